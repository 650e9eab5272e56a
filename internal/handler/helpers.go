package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/middleware"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parsePagination(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	return page, pageSize, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	return middleware.UserID(c)
}

func userRoleFromContext(c *fiber.Ctx) string {
	return middleware.UserRole(c)
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestScope(c *fiber.Ctx) *service.RequestScope {
	return service.NewRequestScope(userIDFromContext(c), userRoleFromContext(c), middleware.GetCorrelationID(c))
}

// scopeMeta exposes the scope's messages as response metadata.
func scopeMeta(scope *service.RequestScope) fiber.Map {
	messages := scope.Messages()
	if messages == nil {
		messages = []string{}
	}
	return fiber.Map{"messages": messages}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// sendValidationError writes a 400 with per-field details when err is a
// validation failure and reports whether it did.
func sendValidationError(c *fiber.Ctx, err error) (bool, error) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return false, nil
	}
	return true, utils.Fail(c, fiber.StatusBadRequest, "validation failed", verr.Fields)
}
