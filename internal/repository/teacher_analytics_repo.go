package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// TeacherAnalyticsRepository serves the read-only aggregate queries behind
// the teacher dashboard.
type TeacherAnalyticsRepository interface {
	CountStudents(ctx context.Context) (int64, error)
	CountEssays(ctx context.Context) (int64, error)
	ListGradedReports(ctx context.Context) ([]models.GradeReport, error)
	ListEssaysSince(ctx context.Context, since time.Time) ([]models.Essay, error)
}

type teacherAnalyticsRepository struct {
	db *gorm.DB
}

// NewTeacherAnalyticsRepository constructs the dashboard query repository.
func NewTeacherAnalyticsRepository(db *gorm.DB) TeacherAnalyticsRepository {
	return &teacherAnalyticsRepository{db: db}
}

func (r *teacherAnalyticsRepository) CountStudents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("role = ?", models.RoleStudent).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *teacherAnalyticsRepository) CountEssays(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Essay{}).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (r *teacherAnalyticsRepository) ListGradedReports(ctx context.Context) ([]models.GradeReport, error) {
	var reports []models.GradeReport
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *teacherAnalyticsRepository) ListEssaysSince(ctx context.Context, since time.Time) ([]models.Essay, error) {
	var essays []models.Essay
	if err := r.db.WithContext(ctx).Where("created_at >= ?", since).Order("created_at ASC").Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}
