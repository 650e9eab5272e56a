package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]string      `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload envelope
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

// authenticate mimics the JWT middleware for handler-level tests.
func authenticate(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}

type stubAuthService struct {
	signupResponse dto.AuthResponse
	loginResponse  dto.AuthResponse
	profile        models.StudentProfile
	err            error
	profileErr     error
	lastSignup     dto.SignupRequest
	profileCalls   int
}

func (s *stubAuthService) Signup(_ context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	s.lastSignup = payload
	if s.err != nil {
		return dto.AuthResponse{}, s.err
	}
	return s.signupResponse, nil
}

func (s *stubAuthService) Login(_ context.Context, _ dto.LoginRequest) (dto.AuthResponse, error) {
	if s.err != nil {
		return dto.AuthResponse{}, s.err
	}
	return s.loginResponse, nil
}

func (s *stubAuthService) Profile(_ context.Context, userID uint) (models.StudentProfile, error) {
	s.profileCalls++
	if s.profileErr != nil {
		return models.StudentProfile{}, s.profileErr
	}
	profile := s.profile
	profile.UserID = userID
	return profile, nil
}

type stubFitnessTestService struct {
	latest      *models.FitnessTestEntry
	entries     []models.FitnessTestEntry
	submitted   models.FitnessTestEntry
	submitErr   error
	lastPayload dto.TestEntryRequest
	lastType    string
	form        dto.EntryFormResponse
	lastForm    dto.EntryFormRequest
}

func (s *stubFitnessTestService) LatestValidEntry(_ context.Context, _ uint, testType string) (*models.FitnessTestEntry, error) {
	if !models.IsValidTestType(testType) {
		return nil, service.ErrInvalidTestType
	}
	return s.latest, nil
}

func (s *stubFitnessTestService) ListValidEntries(_ context.Context, _ uint, testType string) ([]models.FitnessTestEntry, error) {
	if testType != "" && !models.IsValidTestType(testType) {
		return nil, service.ErrInvalidTestType
	}
	return s.entries, nil
}

func (s *stubFitnessTestService) SubmitEntry(_ context.Context, scope *service.RequestScope, _ models.StudentProfile, testType string, payload dto.TestEntryRequest) (models.FitnessTestEntry, error) {
	s.lastPayload = payload
	s.lastType = testType
	if s.submitErr != nil {
		return models.FitnessTestEntry{}, s.submitErr
	}
	scope.AddMessage(service.MessagePreTestSaved)
	entry := s.submitted
	entry.TestType = testType
	return entry, nil
}

func (s *stubFitnessTestService) EntryForm(_ context.Context, _ uint, req dto.EntryFormRequest) (dto.EntryFormResponse, error) {
	s.lastForm = req
	return s.form, nil
}

type stubProgressService struct {
	response dto.ProgressResponse
}

func (s *stubProgressService) Progress(_ context.Context, student models.StudentProfile) (dto.ProgressResponse, error) {
	response := s.response
	response.Student = dto.NewStudentProfileResponse(student)
	return response, nil
}

type stubAnalyticsService struct {
	summary     dto.ClassAnalyticsResponse
	lastSection string
}

func (s *stubAnalyticsService) SectionSummary(_ context.Context, section string) (dto.ClassAnalyticsResponse, error) {
	s.lastSection = section
	if section == "" {
		return dto.ClassAnalyticsResponse{}, service.ErrSectionRequired
	}
	summary := s.summary
	summary.Section = section
	return summary, nil
}

func (s *stubAnalyticsService) Invalidate(context.Context, string) {}

type stubExportService struct {
	export service.SectionExport
}

func (s *stubExportService) ExportSection(_ context.Context, _ *service.RequestScope, section string) (service.SectionExport, error) {
	if section == "" {
		return service.SectionExport{}, service.ErrSectionRequired
	}
	return s.export, nil
}

var (
	_ service.AuthService           = (*stubAuthService)(nil)
	_ service.FitnessTestService    = (*stubFitnessTestService)(nil)
	_ service.ProgressService       = (*stubProgressService)(nil)
	_ service.ClassAnalyticsService = (*stubAnalyticsService)(nil)
	_ service.ExportService         = (*stubExportService)(nil)
)
