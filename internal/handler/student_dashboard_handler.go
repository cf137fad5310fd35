package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/service"
	"github.com/cmx-713/adaptive-english-writing/internal/utils"
)

// StudentDashboardHandler exposes the student progress endpoint.
type StudentDashboardHandler struct {
	service service.StudentProgressService
	logger  zerolog.Logger
}

// NewStudentDashboardHandler creates a new handler instance.
func NewStudentDashboardHandler(service service.StudentProgressService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the progress endpoint.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("/progress", h.getProgress)
}

func (h *StudentDashboardHandler) getProgress(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	progress, err := h.service.GetProgress(c.Context(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to load progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}
