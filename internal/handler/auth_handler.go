package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

const (
	msgUsernameTaken      = "Username already taken."
	msgInvalidCredentials = "Invalid username or password."
)

// AuthHandler exposes student signup and login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/signup", h.signup)
	router.Post("/login", h.login)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Signup(withRequestContext(c), payload)
	if err != nil {
		if handled, sendErr := sendValidationError(c, err); handled {
			return sendErr
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			return utils.Fail(c, fiber.StatusConflict, msgUsernameTaken, fiber.Map{"username": msgUsernameTaken})
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to sign up student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to sign up")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", response)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(withRequestContext(c), payload)
	if err != nil {
		if handled, sendErr := sendValidationError(c, err); handled {
			return sendErr
		}
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, msgInvalidCredentials)
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to log in student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to log in")
		}
	}

	return utils.SendSuccess(c, "logged in", response)
}
