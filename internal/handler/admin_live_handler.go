package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/middleware"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
)

// AdminLiveHandler upgrades admin connections to the live submission feed.
type AdminLiveHandler struct {
	service service.LiveFeedService
	logger  zerolog.Logger
}

// NewAdminLiveHandler creates the live feed handler.
func NewAdminLiveHandler(service service.LiveFeedService, logger zerolog.Logger) *AdminLiveHandler {
	return &AdminLiveHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_live_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *AdminLiveHandler) Register(router fiber.Router) {
	router.Use("/live", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		ctx := middleware.ContextWithCorrelation(context.Background(), middleware.GetCorrelationID(c))
		c.Locals("request_ctx", ctx)
		c.Locals("live_user_id", userIDFromContext(c))
		return c.Next()
	})

	router.Get("/live", websocket.New(h.handleConnection))
}

func (h *AdminLiveHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("live_user_id").(uint)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	section := strings.TrimSpace(conn.Query("section"))

	opts := service.LiveFeedOptions{
		UserID:        userID,
		Section:       section,
		CorrelationID: middleware.CorrelationIDFromContext(baseCtx),
		Context:       baseCtx,
	}

	h.logger.Info().Uint("user_id", userID).Str("section", section).Msg("live feed connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", userID).Str("section", section).Msg("live feed disconnected")
}
