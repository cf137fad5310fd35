package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
)

// Exemplar is a high-scoring model essay indexed for retrieval.
type Exemplar struct {
	Topic string `json:"topic"`
	Level string `json:"level"`
	Text  string `json:"text"`
}

// ExemplarSearcher is the slice of the exemplar store the scaffold flow
// needs. Implementations may be absent; callers treat nil as "no store".
type ExemplarSearcher interface {
	Search(ctx context.Context, topic, level string, limit int) ([]Exemplar, error)
}

// ExemplarService indexes model essays into a vector store and retrieves the
// ones closest to a topic.
type ExemplarService interface {
	ExemplarSearcher
	EnsureCollection(ctx context.Context) error
	Index(ctx context.Context, exemplar Exemplar) error
}

// ExemplarConfig carries the vector store connection settings.
type ExemplarConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

type exemplarService struct {
	client     *qdrant.Client
	embedder   llm.Embedder
	collection string
	logger     zerolog.Logger
}

// NewExemplarService connects to qdrant. The collection is created lazily by
// EnsureCollection so the embedding dimension can be probed at boot.
func NewExemplarService(cfg ExemplarConfig, embedder llm.Embedder, logger zerolog.Logger) (ExemplarService, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &exemplarService{
		client:     client,
		embedder:   embedder,
		collection: cfg.Collection,
		logger:     logger.With().Str("component", "exemplar_service").Logger(),
	}, nil
}

// EnsureCollection creates the exemplar collection if it is missing. The
// vector size comes from embedding a probe string, so switching embedding
// models needs a fresh collection.
func (s *exemplarService) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	probe, err := s.embedder.Embed(ctx, "cet writing exemplar")
	if err != nil {
		return fmt.Errorf("failed to probe embedding size: %w", err)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(probe)),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	s.logger.Info().Str("collection", s.collection).Int("vector_size", len(probe)).Msg("exemplar collection created")
	return nil
}

func (s *exemplarService) Index(ctx context.Context, exemplar Exemplar) error {
	embedding, err := s.embedder.Embed(ctx, exemplar.Topic+"\n"+exemplar.Text)
	if err != nil {
		return fmt.Errorf("failed to embed exemplar: %w", err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(uuid.New().ID())),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"topic": exemplar.Topic,
			"level": exemplar.Level,
			"text":  exemplar.Text,
		}),
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert exemplar: %w", err)
	}

	return nil
}

func (s *exemplarService) Search(ctx context.Context, topic, level string, limit int) ([]Exemplar, error) {
	embedding, err := s.embedder.Embed(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var filter *qdrant.Filter
	if level != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("level", level),
			},
		}
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search exemplars: %w", err)
	}

	exemplars := make([]Exemplar, 0, len(points))
	for _, point := range points {
		var exemplar Exemplar
		if topicVal, ok := point.Payload["topic"]; ok {
			if val, ok := topicVal.GetKind().(*qdrant.Value_StringValue); ok {
				exemplar.Topic = val.StringValue
			}
		}
		if levelVal, ok := point.Payload["level"]; ok {
			if val, ok := levelVal.GetKind().(*qdrant.Value_StringValue); ok {
				exemplar.Level = val.StringValue
			}
		}
		if textVal, ok := point.Payload["text"]; ok {
			if val, ok := textVal.GetKind().(*qdrant.Value_StringValue); ok {
				exemplar.Text = val.StringValue
			}
		}
		if exemplar.Text != "" {
			exemplars = append(exemplars, exemplar)
		}
	}

	return exemplars, nil
}
