package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

// AdminAuthHandler exposes the back-office login.
type AdminAuthHandler struct {
	service service.AdminAuthService
	logger  zerolog.Logger
}

// NewAdminAuthHandler constructs the handler.
func NewAdminAuthHandler(service service.AdminAuthService, logger zerolog.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_auth_handler").Logger(),
	}
}

// Register attaches admin auth routes to the router group.
func (h *AdminAuthHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
}

func (h *AdminAuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(withRequestContext(c), payload)
	if err != nil {
		if handled, sendErr := sendValidationError(c, err); handled {
			return sendErr
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			return utils.SendError(c, fiber.StatusUnauthorized, msgInvalidCredentials)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to log in admin")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to log in")
	}

	return utils.SendSuccess(c, "logged in", response)
}
