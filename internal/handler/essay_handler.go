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

// EssayHandler manages essay submission, grading results and polish.
type EssayHandler struct {
	grading service.GradingService
	uploads service.UploadService
	logger  zerolog.Logger
}

// NewEssayHandler builds an essay handler instance.
func NewEssayHandler(grading service.GradingService, uploads service.UploadService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		grading: grading,
		uploads: uploads,
		logger:  logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches the essay routes. The guard is applied to the routes
// that call the language model; listing and image upload stay unthrottled.
func (h *EssayHandler) Register(router fiber.Router, generationGuard fiber.Handler) {
	if generationGuard == nil {
		generationGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("", generationGuard, h.submit)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/polish", generationGuard, h.polish)
	router.Post("/:id/image", h.attachImage)
}

func (h *EssayHandler) submit(c *fiber.Ctx) error {
	var payload dto.EssaySubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	essay, err := h.grading.Submit(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "essay graded", essay)
}

func (h *EssayHandler) list(c *fiber.Ctx) error {
	filter := dto.EssayFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if level := c.Query("level"); level != "" {
		filter.Level = &level
	}

	essays, err := h.grading.List(c.Context(), userIDFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essays retrieved", essays)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.grading.Get(c.Context(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay retrieved", essay)
}

func (h *EssayHandler) polish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	polished, err := h.grading.Polish(c.Context(), userIDFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essay polished", polished)
}

func (h *EssayHandler) attachImage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("image")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "image file is required")
	}

	essay, err := h.uploads.AttachImage(c.Context(), userIDFromContext(c), id, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "image attached", essay)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrTopicNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "topic not found")
	case errors.Is(err, service.ErrEssayNotGraded):
		return utils.SendError(c, fiber.StatusConflict, "essay has not been graded yet")
	case errors.Is(err, service.ErrEssayTooShort):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrModelUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "grading model unavailable, essay kept for retry")
	case errors.Is(err, service.ErrModelResponseInvalid):
		return utils.SendError(c, fiber.StatusBadGateway, "grading model returned an unusable answer")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadNotImage):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrUploadUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
