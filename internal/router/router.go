package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/fitness-tracker-api/internal/config"
	"github.com/noah-isme/fitness-tracker-api/internal/handler"
	"github.com/noah-isme/fitness-tracker-api/internal/middleware"
	"github.com/noah-isme/fitness-tracker-api/internal/observability"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	StudentHandler        *handler.StudentHandler
	AdminAuthHandler      *handler.AdminAuthHandler
	AdminStudentHandler   *handler.AdminStudentHandler
	AdminAnalyticsHandler *handler.AdminAnalyticsHandler
	AdminActivityHandler  *handler.AdminActivityHandler
	AdminLiveHandler      *handler.AdminLiveHandler
	HealthProbes          map[string]handler.HealthProbe
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application. It panics when
// deps.JWTMiddleware is nil, since every student and admin route needs it.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		panic("router: JWTMiddleware is required")
	}

	authLimit := func(identifier string) fiber.Handler {
		return middleware.RateLimit(identifier, cfg.AuthRateLimitMax, cfg.AuthRateLimitWin)
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", authLimit("auth"))
		deps.AuthHandler.Register(auth)
	}

	if deps.StudentHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(service.RoleStudent))
		deps.StudentHandler.Register(student)
	}

	admin := app.Group("/api/admin")
	if deps.AdminAuthHandler != nil {
		admin.Use("/login", authLimit("admin_auth"))
		deps.AdminAuthHandler.Register(admin)
	}

	requireAdmin := middleware.RequireRole(service.RoleAdmin)
	for _, prefix := range []string{"/students", "/analytics", "/sections", "/activities", "/live"} {
		admin.Use(prefix, jwtMiddleware, requireAdmin)
	}

	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
	}
	if deps.AdminAnalyticsHandler != nil {
		deps.AdminAnalyticsHandler.Register(admin)
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activities"))
	}
	if deps.AdminLiveHandler != nil {
		deps.AdminLiveHandler.Register(admin)
	}
}
