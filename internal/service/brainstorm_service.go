package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
	"github.com/cmx-713/adaptive-english-writing/pkg/llmtext"
)

// ErrModelUnavailable indicates the language model request itself failed.
var ErrModelUnavailable = errors.New("language model unavailable")

// ErrModelResponseInvalid indicates the model answered with unusable output.
var ErrModelResponseInvalid = errors.New("language model response invalid")

// BrainstormService generates idea angles for a writing topic.
type BrainstormService interface {
	Brainstorm(ctx context.Context, studentID uint, payload dto.BrainstormRequest) (dto.BrainstormResponse, error)
}

type brainstormService struct {
	generator llm.Generator
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewBrainstormService builds a brainstorm service.
func NewBrainstormService(generator llm.Generator, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) BrainstormService {
	return &brainstormService{
		generator: generator,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "brainstorm_service").Logger(),
	}
}

type brainstormPayload struct {
	Ideas []struct {
		Angle  string   `json:"angle"`
		Thesis string   `json:"thesis"`
		Points []string `json:"points"`
	} `json:"ideas"`
	Outline []string `json:"outline"`
}

func (s *brainstormService) Brainstorm(ctx context.Context, studentID uint, payload dto.BrainstormRequest) (dto.BrainstormResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BrainstormResponse{}, err
	}
	if payload.Level == "" {
		payload.Level = models.LevelCET4
	}

	ctx, span := otel.Tracer("aew.writing").Start(ctx, "writing.brainstorm")
	defer span.End()

	raw, err := s.generator.Generate(ctx, llm.BrainstormPrompt(payload.Topic, payload.Level))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "brainstorm generation failed")

		return dto.BrainstormResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed brainstormPayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "brainstorm response unparseable")

		return dto.BrainstormResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}
	if len(parsed.Ideas) == 0 {
		return dto.BrainstormResponse{}, fmt.Errorf("%w: no ideas returned", ErrModelResponseInvalid)
	}

	ideas := make([]dto.IdeaResponse, 0, len(parsed.Ideas))
	for _, idea := range parsed.Ideas {
		points := idea.Points
		if points == nil {
			points = []string{}
		}
		ideas = append(ideas, dto.IdeaResponse{
			Angle:  idea.Angle,
			Thesis: idea.Thesis,
			Points: points,
		})
	}

	outline := parsed.Outline
	if outline == nil {
		outline = []string{}
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:   studentID,
		ActorRole: "student",
		Action:    "writing.brainstorm",
		Metadata:  map[string]interface{}{"topic": payload.Topic, "level": payload.Level},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record brainstorm activity")
	}

	return dto.BrainstormResponse{
		Topic:   payload.Topic,
		Level:   payload.Level,
		Ideas:   ideas,
		Outline: outline,
	}, nil
}
