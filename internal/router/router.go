package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cmx-713/adaptive-english-writing/internal/config"
	"github.com/cmx-713/adaptive-english-writing/internal/handler"
	"github.com/cmx-713/adaptive-english-writing/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler             *handler.AuthHandler
	TopicHandler            *handler.TopicHandler
	WritingHandler          *handler.WritingHandler
	EssayHandler            *handler.EssayHandler
	DrillHandler            *handler.DrillHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	TeacherDashboardHandler *handler.TeacherDashboardHandler
	JWTMiddleware           fiber.Handler
	TeacherMiddleware       fiber.Handler
	GenerationLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	teacherOnly := deps.TeacherMiddleware
	if teacherOnly == nil {
		teacherOnly = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Auth: sign-in stays public, the profile route is guarded per path
	// because group middleware in fiber applies to the whole prefix.
	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.RegisterPublic(auth)
		auth.Use("/profile", jwtMiddleware)
		deps.AuthHandler.Register(auth)
	}

	// Topic bank (read-only for students)
	if deps.TopicHandler != nil {
		topics := api.Group("/topics", jwtMiddleware)
		deps.TopicHandler.Register(topics)
	}

	// Pre-writing assistance, every route here hits the language model
	if deps.WritingHandler != nil {
		writing := api.Group("/writing", jwtMiddleware)
		if deps.GenerationLimiter != nil {
			writing.Use(deps.GenerationLimiter)
		}
		deps.WritingHandler.Register(writing)
	}

	// Essays (submit & grade, results, polish, photo upload)
	if deps.EssayHandler != nil {
		essays := api.Group("/essays", jwtMiddleware)
		deps.EssayHandler.Register(essays, deps.GenerationLimiter)
	}

	// Targeted drills
	if deps.DrillHandler != nil {
		drills := api.Group("/drills", jwtMiddleware)
		deps.DrillHandler.Register(drills, deps.GenerationLimiter)
	}

	// Student dashboard
	if deps.StudentDashboardHandler != nil {
		student := api.Group("/student", jwtMiddleware)
		deps.StudentDashboardHandler.Register(student)
	}

	// Teacher dashboard & topic management
	if deps.TeacherDashboardHandler != nil {
		teacher := api.Group("/teacher", jwtMiddleware, teacherOnly)
		deps.TeacherDashboardHandler.Register(teacher)
		if deps.TopicHandler != nil {
			deps.TopicHandler.RegisterManagement(teacher)
		}
	}
}
