package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
	"github.com/cmx-713/adaptive-english-writing/pkg/llmtext"
)

// ScaffoldService produces the language support pack for a topic.
type ScaffoldService interface {
	Scaffold(ctx context.Context, studentID uint, payload dto.ScaffoldRequest) (dto.ScaffoldResponse, error)
}

type scaffoldService struct {
	generator llm.Generator
	exemplars ExemplarSearcher
	activity  ActivityRecorder
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScaffoldService builds a scaffold service. exemplars may be nil when no
// vector store is configured.
func NewScaffoldService(generator llm.Generator, exemplars ExemplarSearcher, activity ActivityRecorder, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) ScaffoldService {
	return &scaffoldService{
		generator: generator,
		exemplars: exemplars,
		activity:  activity,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "scaffold_service").Logger(),
	}
}

type scaffoldPayload struct {
	Vocabulary []struct {
		Word    string `json:"word"`
		Gloss   string `json:"gloss"`
		Example string `json:"example"`
	} `json:"vocabulary"`
	Collocations []string `json:"collocations"`
	Frames       []string `json:"frames"`
	Connectors   []string `json:"connectors"`
}

func (s *scaffoldService) Scaffold(ctx context.Context, studentID uint, payload dto.ScaffoldRequest) (dto.ScaffoldResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScaffoldResponse{}, err
	}
	if payload.Level == "" {
		payload.Level = models.LevelCET4
	}

	cacheKey := scaffoldCacheKey(payload.Topic, payload.Level)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ScaffoldResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("topic", payload.Topic).Msg("scaffold cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read scaffold cache")
		}
	}

	ctx, span := otel.Tracer("aew.writing").Start(ctx, "writing.scaffold")
	defer span.End()

	var excerpts []string
	if s.exemplars != nil {
		found, err := s.exemplars.Search(ctx, payload.Topic, payload.Level, 3)
		if err != nil {
			s.logger.Warn().Err(err).Msg("exemplar search failed, scaffolding without excerpts")
		} else {
			for _, ex := range found {
				excerpts = append(excerpts, ex.Text)
			}
		}
	}

	raw, err := s.generator.Generate(ctx, llm.ScaffoldPrompt(payload.Topic, payload.Level, excerpts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scaffold generation failed")

		return dto.ScaffoldResponse{}, fmt.Errorf("%w: %s", ErrModelUnavailable, err)
	}

	var parsed scaffoldPayload
	if err := json.Unmarshal([]byte(llmtext.Sanitize(raw)), &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scaffold response unparseable")

		return dto.ScaffoldResponse{}, fmt.Errorf("%w: %s", ErrModelResponseInvalid, err)
	}
	if len(parsed.Vocabulary) == 0 && len(parsed.Frames) == 0 {
		return dto.ScaffoldResponse{}, fmt.Errorf("%w: empty scaffold", ErrModelResponseInvalid)
	}

	response := dto.ScaffoldResponse{
		Topic:        payload.Topic,
		Level:        payload.Level,
		Vocabulary:   make([]dto.VocabularyItem, 0, len(parsed.Vocabulary)),
		Collocations: emptyIfNil(parsed.Collocations),
		Frames:       emptyIfNil(parsed.Frames),
		Connectors:   emptyIfNil(parsed.Connectors),
	}
	for _, item := range parsed.Vocabulary {
		response.Vocabulary = append(response.Vocabulary, dto.VocabularyItem{
			Word:    item.Word,
			Gloss:   item.Gloss,
			Example: item.Example,
		})
	}

	if s.cache != nil {
		if body, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, body, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store scaffold cache")
			}
		}
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:   studentID,
		ActorRole: "student",
		Action:    "writing.scaffold",
		Metadata:  map[string]interface{}{"topic": payload.Topic, "level": payload.Level},
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record scaffold activity")
	}

	return response, nil
}

// scaffoldCacheKey hashes the topic so arbitrary prompt text stays out of
// redis key space. Topics that differ only in case or padding share a pack.
func scaffoldCacheKey(topic, level string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(topic))))
	return fmt.Sprintf("scaffold:%s:%x", level, digest[:8])
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
