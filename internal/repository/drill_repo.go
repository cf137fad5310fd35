package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// DrillRepository persists generated exercise sets.
type DrillRepository interface {
	Create(ctx context.Context, set *models.DrillSet) error
	Update(ctx context.Context, set *models.DrillSet) error
	GetByID(ctx context.Context, id uint) (models.DrillSet, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.DrillSet, error)
	CountOpenByStudent(ctx context.Context, studentID uint) (int64, error)
}

type drillRepository struct {
	db *gorm.DB
}

// NewDrillRepository constructs a drill repository.
func NewDrillRepository(db *gorm.DB) DrillRepository {
	return &drillRepository{db: db}
}

func (r *drillRepository) Create(ctx context.Context, set *models.DrillSet) error {
	return r.db.WithContext(ctx).Create(set).Error
}

func (r *drillRepository) Update(ctx context.Context, set *models.DrillSet) error {
	return r.db.WithContext(ctx).Save(set).Error
}

func (r *drillRepository) GetByID(ctx context.Context, id uint) (models.DrillSet, error) {
	var set models.DrillSet
	if err := r.db.WithContext(ctx).First(&set, id).Error; err != nil {
		return models.DrillSet{}, err
	}

	return set, nil
}

func (r *drillRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.DrillSet, error) {
	var sets []models.DrillSet
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at DESC").Find(&sets).Error; err != nil {
		return nil, err
	}

	return sets, nil
}

func (r *drillRepository) CountOpenByStudent(ctx context.Context, studentID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.DrillSet{}).
		Where("student_id = ? AND status = ?", studentID, models.DrillStatusOpen).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}
