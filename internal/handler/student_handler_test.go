package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/handler"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
)

type studentFixture struct {
	accounts  *stubAuthService
	tests     *stubFitnessTestService
	progress  *stubProgressService
	analytics *stubAnalyticsService
}

func newStudentFixture() *studentFixture {
	return &studentFixture{
		accounts:  &stubAuthService{profile: models.StudentProfile{ID: 4, FullName: "Ana Cruz", Age: 15, Section: "10-A"}},
		tests:     &stubFitnessTestService{},
		progress:  &stubProgressService{},
		analytics: &stubAnalyticsService{},
	}
}

func (f *studentFixture) app(middlewares ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{}, middlewares...)
	group := app.Group("/api/v1/student", handlers...)
	handler.NewStudentHandler(f.accounts, f.tests, f.progress, f.analytics, zerolog.Nop()).Register(group)
	return app
}

func TestStudentHandlerSubmitReturnsMessages(t *testing.T) {
	fixture := newStudentFixture()
	fixture.tests.submitted = models.FitnessTestEntry{
		ID:        12,
		BMI:       decimal.RequireFromString("24.22"),
		VO2Max:    decimal.RequireFromString("42.5"),
		CreatedAt: time.Now().UTC(),
	}
	app := fixture.app(authenticate(9, service.RoleStudent))

	body := `{"height_cm":170,"weight_kg":"70","vo2_max":42.5,"flexibility":31,"strength":20,"agility":11.2,"speed":6.8,"endurance":18}`
	resp, err := app.Test(postJSON("/api/v1/student/tests/pre", body), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, []interface{}{service.MessagePreTestSaved}, payload.Meta["messages"])
	require.Contains(t, string(payload.Data), `"bmi":"24.22"`)
	require.Contains(t, string(payload.Data), `"test_type_label":"Pre-test"`)

	require.Equal(t, models.TestTypePre, fixture.tests.lastType)
	require.NotNil(t, fixture.tests.lastPayload.HeightCM)
	require.Equal(t, "170", fixture.tests.lastPayload.HeightCM.String())
	require.Equal(t, "70", fixture.tests.lastPayload.WeightKG.String())
}

func TestStudentHandlerSubmitValidationFailure(t *testing.T) {
	fixture := newStudentFixture()
	fixture.tests.submitErr = service.NewValidationError(map[string]string{"height_cm": "Ensure this value is greater than or equal to 1."})
	app := fixture.app(authenticate(9, service.RoleStudent))

	resp, err := app.Test(postJSON("/api/v1/student/tests/post", `{"height_cm":0}`), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.False(t, payload.Success)
	require.Equal(t, "Ensure this value is greater than or equal to 1.", payload.Details["height_cm"])
	require.Equal(t, models.TestTypePost, fixture.tests.lastType)
}

func TestStudentHandlerRequiresIdentity(t *testing.T) {
	fixture := newStudentFixture()
	app := fixture.app()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, fixture.accounts.profileCalls)
}

func TestStudentHandlerMissingProfile(t *testing.T) {
	fixture := newStudentFixture()
	fixture.accounts.profileErr = service.ErrStudentNotFound
	app := fixture.app(authenticate(9, service.RoleStudent))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/progress", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandlerLatestEntry(t *testing.T) {
	fixture := newStudentFixture()
	app := fixture.app(authenticate(9, service.RoleStudent))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/latest?type=pre", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	require.Equal(t, false, payload.Meta["found"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/latest?type=mid", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandlerEntryFormPassesQuery(t *testing.T) {
	fixture := newStudentFixture()
	fixture.tests.form = dto.EntryFormResponse{ActiveTab: models.TestTypePost, NewPost: true}
	app := fixture.app(authenticate(9, service.RoleStudent))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/tests/form?new=POST", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "post", fixture.tests.lastForm.New)

	payload := decodeEnvelope(t, resp)
	require.Contains(t, string(payload.Data), `"active_tab":"post"`)
}

func TestStudentHandlerClassAnalyticsUsesOwnSection(t *testing.T) {
	fixture := newStudentFixture()
	fixture.analytics.summary = dto.ClassAnalyticsResponse{StudentCount: 3, CacheHit: true}
	app := fixture.app(authenticate(9, service.RoleStudent))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/student/class-analytics?section=12-Z", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "10-A", fixture.analytics.lastSection)

	payload := decodeEnvelope(t, resp)
	require.Equal(t, true, payload.Meta["cache_hit"])
}
