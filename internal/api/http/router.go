package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Complaints     *handlers.ComplaintsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	profile := authGroup.Group("", cfg.AuthMiddleware.Handle)
	profile.Get("/profile", cfg.Auth.GetProfile)
	profile.Put("/profile", cfg.Auth.UpdateProfile)
	profile.Put("/change-password", cfg.Auth.ChangePassword)

	complaints := app.Group("/complaints")
	complaints.Get("/", cfg.AuthMiddleware.HandleOptional, cfg.Complaints.List)
	complaints.Get("/stats", cfg.Complaints.Stats)
	complaints.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Complaints.Get)

	complaints.Post("/", cfg.AuthMiddleware.Handle, cfg.Complaints.Create)
	complaints.Post("/:id/comments", cfg.AuthMiddleware.Handle, cfg.Complaints.AddComment)
	complaints.Put("/:id/status",
		cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleStaff, domain.RoleAdmin),
		cfg.Complaints.UpdateStatus)
	complaints.Delete("/:id",
		cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdmin),
		cfg.Complaints.Delete)
}
