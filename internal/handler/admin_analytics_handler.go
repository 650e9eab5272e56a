package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/service"
	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminAnalyticsHandler exposes section analytics and exports for administrators.
type AdminAnalyticsHandler struct {
	analytics service.ClassAnalyticsService
	exports   service.ExportService
	logger    zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(analytics service.ClassAnalyticsService, exports service.ExportService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		analytics: analytics,
		exports:   exports,
		logger:    logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register attaches analytics routes to the router group.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/analytics", h.get)
	router.Get("/sections/:section/export", h.export)
}

func (h *AdminAnalyticsHandler) get(c *fiber.Ctx) error {
	summary, err := h.analytics.SectionSummary(withRequestContext(c), c.Query("section"))
	if err != nil {
		if errors.Is(err, service.ErrSectionRequired) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fiber.Map{"section": "This field is required."})
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load section analytics")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load analytics")
	}

	return utils.OK(c, summary, "section analytics", fiber.Map{"cache_hit": summary.CacheHit})
}

func (h *AdminAnalyticsHandler) export(c *fiber.Ctx) error {
	result, err := h.exports.ExportSection(withRequestContext(c), requestScope(c), c.Params("section"))
	if err != nil {
		if errors.Is(err, service.ErrSectionRequired) {
			return utils.SendError(c, fiber.StatusBadRequest, "section is required")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export section")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export section")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Filename))
	return c.Status(fiber.StatusOK).Send(result.Content)
}
