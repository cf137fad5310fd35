package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// TopicFilter narrows topic bank queries.
type TopicFilter struct {
	Level    string
	Category string
}

// TopicRepository provides access to the writing topic bank.
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id uint) (models.Topic, error)
	List(ctx context.Context, filter TopicFilter) ([]models.Topic, error)
	Random(ctx context.Context, level string) (models.Topic, error)
	UpsertBatch(ctx context.Context, topics []models.Topic) error
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository constructs a topic repository.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return models.Topic{}, err
	}

	return topic, nil
}

func (r *topicRepository) List(ctx context.Context, filter TopicFilter) ([]models.Topic, error) {
	query := r.db.WithContext(ctx).Model(&models.Topic{})

	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var topics []models.Topic
	if err := query.Order("created_at DESC").Find(&topics).Error; err != nil {
		return nil, err
	}

	return topics, nil
}

func (r *topicRepository) Random(ctx context.Context, level string) (models.Topic, error) {
	query := r.db.WithContext(ctx).Model(&models.Topic{})

	if level != "" {
		query = query.Where("level = ?", level)
	}

	var topic models.Topic
	if err := query.Order("RANDOM()").Take(&topic).Error; err != nil {
		return models.Topic{}, err
	}

	return topic, nil
}

// UpsertBatch inserts topics, updating rows whose title already exists. Used
// by the bank importer so re-running an import stays idempotent.
func (r *topicRepository) UpsertBatch(ctx context.Context, topics []models.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoUpdates: clause.AssignmentColumns([]string{"prompt", "level", "category", "source", "updated_at"}),
		}).
		Create(&topics).Error
}
