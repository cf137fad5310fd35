package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
	"github.com/cmx-713/adaptive-english-writing/internal/utils"
)

// WritingHandler exposes the pre-writing assistance endpoints.
type WritingHandler struct {
	brainstorm service.BrainstormService
	scaffold   service.ScaffoldService
	logger     zerolog.Logger
}

// NewWritingHandler builds a writing handler instance.
func NewWritingHandler(brainstorm service.BrainstormService, scaffold service.ScaffoldService, logger zerolog.Logger) *WritingHandler {
	return &WritingHandler{
		brainstorm: brainstorm,
		scaffold:   scaffold,
		logger:     logger.With().Str("component", "writing_handler").Logger(),
	}
}

// Register attaches the writing assistance routes.
func (h *WritingHandler) Register(router fiber.Router) {
	router.Post("/brainstorm", h.brainstormIdeas)
	router.Post("/scaffold", h.scaffoldPack)
}

func (h *WritingHandler) brainstormIdeas(c *fiber.Ctx) error {
	var payload dto.BrainstormRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ideas, err := h.brainstorm.Brainstorm(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ideas generated", ideas)
}

func (h *WritingHandler) scaffoldPack(c *fiber.Ctx) error {
	var payload dto.ScaffoldRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	pack, err := h.scaffold.Scaffold(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scaffold generated", pack)
}

func (h *WritingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrModelUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "writing assistant unavailable")
	case errors.Is(err, service.ErrModelResponseInvalid):
		return utils.SendError(c, fiber.StatusBadGateway, "writing assistant returned an unusable answer")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
