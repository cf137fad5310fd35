package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

// ErrTopicNotFound indicates the requested topic does not exist.
var ErrTopicNotFound = errors.New("topic not found")

// ErrInvalidLevel indicates an exam band outside cet4/cet6.
var ErrInvalidLevel = errors.New("level must be cet4 or cet6")

// ErrTopicContentEmpty indicates a submitted topic was nothing but markup.
var ErrTopicContentEmpty = errors.New("topic title and prompt must not be empty after sanitisation")

// TopicService exposes the writing topic bank.
type TopicService interface {
	List(ctx context.Context, filter dto.TopicFilter) ([]dto.TopicResponse, error)
	Get(ctx context.Context, id uint) (dto.TopicResponse, error)
	Random(ctx context.Context, level string) (dto.TopicResponse, error)
	Create(ctx context.Context, payload dto.TopicCreateRequest) (dto.TopicResponse, error)
}

type topicService struct {
	repo      repository.TopicRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewTopicService builds a topic service.
func NewTopicService(repo repository.TopicRepository, validate *validator.Validate, logger zerolog.Logger) TopicService {
	return &topicService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "topic_service").Logger(),
	}
}

func (s *topicService) List(ctx context.Context, filter dto.TopicFilter) ([]dto.TopicResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.TopicFilter{}
	if filter.Level != nil {
		repoFilter.Level = *filter.Level
	}
	if filter.Category != nil {
		repoFilter.Category = *filter.Category
	}

	topics, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TopicResponse, 0, len(topics))
	for _, topic := range topics {
		responses = append(responses, dto.NewTopicResponse(topic))
	}

	return responses, nil
}

func (s *topicService) Get(ctx context.Context, id uint) (dto.TopicResponse, error) {
	topic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TopicResponse{}, ErrTopicNotFound
		}

		return dto.TopicResponse{}, err
	}

	return dto.NewTopicResponse(topic), nil
}

func (s *topicService) Random(ctx context.Context, level string) (dto.TopicResponse, error) {
	if level != "" && !models.ValidLevel(level) {
		return dto.TopicResponse{}, ErrInvalidLevel
	}

	topic, err := s.repo.Random(ctx, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TopicResponse{}, ErrTopicNotFound
		}

		return dto.TopicResponse{}, err
	}

	return dto.NewTopicResponse(topic), nil
}

func (s *topicService) Create(ctx context.Context, payload dto.TopicCreateRequest) (dto.TopicResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TopicResponse{}, err
	}

	topic := models.Topic{
		Title:    s.clean(payload.Title),
		Prompt:   s.clean(payload.Prompt),
		Level:    payload.Level,
		Category: s.clean(payload.Category),
		Source:   "teacher",
	}
	if topic.Title == "" || topic.Prompt == "" {
		return dto.TopicResponse{}, ErrTopicContentEmpty
	}

	if err := s.repo.Create(ctx, &topic); err != nil {
		return dto.TopicResponse{}, err
	}

	return dto.NewTopicResponse(topic), nil
}

func (s *topicService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}
