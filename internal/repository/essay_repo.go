package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// EssayFilter narrows essay listings. Topic matches the stored title exactly
// so a student can pull their history on one prompt.
type EssayFilter struct {
	Status string
	Level  string
	Topic  string
}

// EssayRepository persists essays and their grade reports.
type EssayRepository interface {
	Create(ctx context.Context, essay *models.Essay) error
	Update(ctx context.Context, essay *models.Essay) error
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	ListByStudent(ctx context.Context, studentID uint, filter EssayFilter) ([]models.Essay, error)
	ListWithReports(ctx context.Context) ([]models.Essay, error)
	SaveReport(ctx context.Context, report *models.GradeReport) error
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository constructs an essay repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Create(essay).Error
}

func (r *essayRepository) Update(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Save(essay).Error
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.db.WithContext(ctx).Preload("Report").First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

func (r *essayRepository) ListByStudent(ctx context.Context, studentID uint, filter EssayFilter) ([]models.Essay, error) {
	query := r.db.WithContext(ctx).Model(&models.Essay{}).Where("student_id = ?", studentID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}

	if filter.Topic != "" {
		query = query.Where("topic = ?", filter.Topic)
	}

	var essays []models.Essay
	if err := query.Preload("Report").Order("created_at DESC").Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) ListWithReports(ctx context.Context) ([]models.Essay, error) {
	var essays []models.Essay
	if err := r.db.WithContext(ctx).Preload("Report").Order("created_at DESC").Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) SaveReport(ctx context.Context, report *models.GradeReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}
