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

// TopicHandler exposes the writing topic bank.
type TopicHandler struct {
	service service.TopicService
	logger  zerolog.Logger
}

// NewTopicHandler builds a topic handler instance.
func NewTopicHandler(service service.TopicService, logger zerolog.Logger) *TopicHandler {
	return &TopicHandler{
		service: service,
		logger:  logger.With().Str("component", "topic_handler").Logger(),
	}
}

// Register attaches the read-only topic routes. The random route must come
// before the id route so "random" is not parsed as an identifier.
func (h *TopicHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/random", h.random)
	router.Get("/:id", h.get)
}

// RegisterManagement attaches the topic administration routes, mounted on
// the teacher surface.
func (h *TopicHandler) RegisterManagement(router fiber.Router) {
	router.Post("/topics", h.create)
}

func (h *TopicHandler) list(c *fiber.Ctx) error {
	filter := dto.TopicFilter{}
	if level := c.Query("level"); level != "" {
		filter.Level = &level
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}

	topics, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "topics retrieved", topics)
}

func (h *TopicHandler) random(c *fiber.Ctx) error {
	topic, err := h.service.Random(c.Context(), c.Query("level"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "topic retrieved", topic)
}

func (h *TopicHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	topic, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "topic retrieved", topic)
}

func (h *TopicHandler) create(c *fiber.Ctx) error {
	var payload dto.TopicCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	topic, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "topic created", topic)
}

func (h *TopicHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTopicNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "topic not found")
	case errors.Is(err, service.ErrInvalidLevel), errors.Is(err, service.ErrTopicContentEmpty):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
