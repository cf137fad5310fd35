package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
	"github.com/cmx-713/adaptive-english-writing/internal/utils"
)

// DrillHandler manages targeted practice drills.
type DrillHandler struct {
	service service.DrillService
	logger  zerolog.Logger
}

// NewDrillHandler builds a drill handler instance.
func NewDrillHandler(service service.DrillService, logger zerolog.Logger) *DrillHandler {
	return &DrillHandler{
		service: service,
		logger:  logger.With().Str("component", "drill_handler").Logger(),
	}
}

// Register attaches the drill routes. Generation and review both call the
// language model, so both carry the guard.
func (h *DrillHandler) Register(router fiber.Router, generationGuard fiber.Handler) {
	if generationGuard == nil {
		generationGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("", generationGuard, h.generate)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/answers", generationGuard, h.submit)
}

func (h *DrillHandler) generate(c *fiber.Ctx) error {
	var payload dto.DrillGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drill, err := h.service.Generate(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "drill generated", drill)
}

func (h *DrillHandler) list(c *fiber.Ctx) error {
	drills, err := h.service.List(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drills retrieved", drills)
}

func (h *DrillHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	drill, err := h.service.Get(c.Context(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drill retrieved", drill)
}

func (h *DrillHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DrillSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drill, err := h.service.Submit(c.Context(), userIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "drill reviewed", drill)
}

func (h *DrillHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDrillNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "drill set not found")
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrEssayNotGraded):
		return utils.SendError(c, fiber.StatusConflict, "essay has not been graded yet")
	case errors.Is(err, service.ErrDrillAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, "drill set already reviewed")
	case errors.Is(err, service.ErrAnswerCountMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrModelUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "drill model unavailable")
	case errors.Is(err, service.ErrModelResponseInvalid):
		return utils.SendError(c, fiber.StatusBadGateway, "drill model returned an unusable answer")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
