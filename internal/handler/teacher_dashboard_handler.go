package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/service"
	"github.com/cmx-713/adaptive-english-writing/internal/utils"
)

// TeacherDashboardHandler exposes the class-level monitoring endpoints.
type TeacherDashboardHandler struct {
	dashboard service.TeacherDashboardService
	progress  service.StudentProgressService
	activity  service.ActivityService
	logger    zerolog.Logger
}

// NewTeacherDashboardHandler builds a teacher dashboard handler instance.
func NewTeacherDashboardHandler(dashboard service.TeacherDashboardService, progress service.StudentProgressService, activity service.ActivityService, logger zerolog.Logger) *TeacherDashboardHandler {
	return &TeacherDashboardHandler{
		dashboard: dashboard,
		progress:  progress,
		activity:  activity,
		logger:    logger.With().Str("component", "teacher_dashboard_handler").Logger(),
	}
}

// Register attaches the teacher dashboard routes.
func (h *TeacherDashboardHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/students", h.listStudents)
	router.Get("/students/:id/progress", h.studentProgress)
	router.Get("/activity", h.listActivity)
}

func (h *TeacherDashboardHandler) overview(c *fiber.Ctx) error {
	overview, err := h.dashboard.GetOverview(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "overview retrieved", overview)
}

func (h *TeacherDashboardHandler) listStudents(c *fiber.Ctx) error {
	students, err := h.dashboard.ListStudents(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

// studentProgress serves the same aggregation a student sees on their own
// dashboard, so the teacher view can never drift from the student view.
func (h *TeacherDashboardHandler) studentProgress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.progress.GetProgress(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *TeacherDashboardHandler) listActivity(c *fiber.Ctx) error {
	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor_id")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.activity.List(c.Context(), actorID, c.Query("action"), limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity retrieved", entries)
}

func (h *TeacherDashboardHandler) handleError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	result := uint(parsed)
	return &result, nil
}
