package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

// activitySubject is the NATS subject practice events are published on.
const activitySubject = "aew.activity.events"

// ActivityEntry captures the details required to persist a practice event.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording practice events.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityService persists the activity feed and fans events out over NATS.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actorID *uint, action string, limit int) ([]dto.ActivityResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	nats   *nats.Conn
	logger zerolog.Logger
	now    func() time.Time
}

type activityEvent struct {
	Action     string                 `json:"action"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	SentAt     time.Time              `json:"sent_at"`
}

// NewActivityService constructs the activity service. natsConn may be nil;
// events are then only persisted.
func NewActivityService(repo repository.ActivityLogRepository, natsConn *nats.Conn, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		nats:   natsConn,
		logger: logger.With().Str("component", "activity_service").Logger(),
		now:    time.Now,
	}
}

// Record persists the entry and publishes it on NATS. The publish is best
// effort: a broker outage must never fail the operation being recorded.
func (s *activityService) Record(ctx context.Context, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("activity action is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	if s.nats != nil {
		event := activityEvent{
			Action:     entry.Action,
			ActorID:    entry.ActorID,
			ActorRole:  entry.ActorRole,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Metadata:   entry.Metadata,
			SentAt:     s.now().UTC(),
		}
		if payload, err := json.Marshal(event); err == nil {
			if err := s.nats.Publish(activitySubject, payload); err != nil {
				s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to publish activity event")
			}
		}
	}

	return nil
}

func (s *activityService) List(ctx context.Context, actorID *uint, action string, limit int) ([]dto.ActivityResponse, error) {
	entries, err := s.repo.List(ctx, repository.ActivityLogFilter{
		ActorID: actorID,
		Action:  action,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	return responses, nil
}
