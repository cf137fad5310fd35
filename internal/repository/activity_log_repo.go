package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// ActivityLogFilter narrows activity feed queries.
type ActivityLogFilter struct {
	ActorID *uint
	Action  string
	Limit   int
}

// ActivityLogRepository persists practice activity events.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, error)
	LatestByActor(ctx context.Context) (map[uint]time.Time, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *activityLogRepository) LatestByActor(ctx context.Context) (map[uint]time.Time, error) {
	var entries []models.ActivityLog
	err := r.db.WithContext(ctx).
		Select("actor_id", "created_at").
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uint]time.Time)
	for _, entry := range entries {
		if _, seen := latest[entry.ActorID]; !seen {
			latest[entry.ActorID] = entry.CreatedAt
		}
	}

	return latest, nil
}
