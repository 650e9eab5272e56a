package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

// StudentHandler serves the authenticated student's own fitness data.
type StudentHandler struct {
	accounts  service.AuthService
	tests     service.FitnessTestService
	progress  service.ProgressService
	analytics service.ClassAnalyticsService
	logger    zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(accounts service.AuthService, tests service.FitnessTestService, progress service.ProgressService, analytics service.ClassAnalyticsService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		accounts:  accounts,
		tests:     tests,
		progress:  progress,
		analytics: analytics,
		logger:    logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
	router.Get("/tests/form", h.entryForm)
	router.Get("/tests/latest", h.latest)
	router.Get("/tests", h.list)
	router.Post("/tests/pre", h.submit(models.TestTypePre))
	router.Post("/tests/post", h.submit(models.TestTypePost))
	router.Get("/progress", h.showProgress)
	router.Get("/class-analytics", h.classAnalytics)
}

// currentStudent resolves the caller's profile. When it returns a nil profile
// the response has already been written.
func (h *StudentHandler) currentStudent(c *fiber.Ctx) (*models.StudentProfile, error) {
	userID := userIDFromContext(c)
	if userID == 0 {
		return nil, utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	profile, err := h.accounts.Profile(withRequestContext(c), userID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return nil, utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student profile")
		return nil, utils.SendError(c, fiber.StatusInternalServerError, "failed to load student profile")
	}

	return &profile, nil
}

func (h *StudentHandler) me(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	return utils.SendSuccess(c, "profile retrieved", dto.NewStudentProfileResponse(*student))
}

func (h *StudentHandler) entryForm(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	req := dto.EntryFormRequest{
		Tab: strings.ToLower(strings.TrimSpace(c.Query("tab"))),
		New: strings.ToLower(strings.TrimSpace(c.Query("new"))),
	}
	form, err := h.tests.EntryForm(withRequestContext(c), student.ID, req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build entry form")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load entry form")
	}

	return utils.SendSuccess(c, "entry form", form)
}

func (h *StudentHandler) latest(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	testType := strings.ToLower(strings.TrimSpace(c.Query("type")))
	entry, err := h.tests.LatestValidEntry(withRequestContext(c), student.ID, testType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTestType) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load latest entry")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load latest entry")
	}

	return utils.OK(c, dto.NewFitnessEntryResponsePtr(entry), "latest entry", fiber.Map{"found": entry != nil})
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	testType := strings.ToLower(strings.TrimSpace(c.Query("type")))
	entries, err := h.tests.ListValidEntries(withRequestContext(c), student.ID, testType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTestType) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list entries")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list entries")
	}

	return utils.OK(c, dto.NewFitnessEntryResponses(entries), "entries retrieved", fiber.Map{"count": len(entries)})
}

func (h *StudentHandler) submit(testType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		student, err := h.currentStudent(c)
		if student == nil {
			return err
		}

		var payload dto.TestEntryRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		scope := requestScope(c)
		entry, err := h.tests.SubmitEntry(withRequestContext(c), scope, *student, testType, payload)
		if err != nil {
			if handled, sendErr := sendValidationError(c, err); handled {
				return sendErr
			}
			if errors.Is(err, service.ErrStudentNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
			}
			requestLogger(h.logger, c).Error().Err(err).Str("test_type", testType).Msg("failed to submit entry")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save entry")
		}

		return utils.Respond(c, fiber.StatusCreated, dto.NewFitnessEntryResponse(entry), "entry saved", scopeMeta(scope))
	}
}

func (h *StudentHandler) showProgress(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	response, err := h.progress.Progress(withRequestContext(c), *student)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", response)
}

func (h *StudentHandler) classAnalytics(c *fiber.Ctx) error {
	student, err := h.currentStudent(c)
	if student == nil {
		return err
	}

	summary, err := h.analytics.SectionSummary(withRequestContext(c), student.Section)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load class analytics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load class analytics")
	}

	return utils.OK(c, summary, "class analytics", fiber.Map{"cache_hit": summary.CacheHit})
}
