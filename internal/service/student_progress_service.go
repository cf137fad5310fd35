package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

const recentEssayCount = 5

// StudentProgressService aggregates a student's practice history.
type StudentProgressService interface {
	GetProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error)
}

type studentProgressService struct {
	essays   repository.EssayRepository
	drills   repository.DrillRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStudentProgressService builds the progress aggregator.
func NewStudentProgressService(essays repository.EssayRepository, drills repository.DrillRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentProgressService {
	return &studentProgressService{
		essays:   essays,
		drills:   drills,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "student_progress_service").Logger(),
		now:      time.Now,
	}
}

// progressCacheKey is shared with the grading service, which evicts the
// entry when a new report lands.
func progressCacheKey(studentID uint) string {
	return fmt.Sprintf("progress:student:%d", studentID)
}

func (s *studentProgressService) GetProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error) {
	cacheKey := progressCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("progress cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	essays, err := s.essays.ListByStudent(ctx, studentID, repository.EssayFilter{})
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	openDrills, err := s.drills.CountOpenByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	response := s.buildResponse(essays, int(openDrills))

	if s.cache != nil {
		if body, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, body, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func (s *studentProgressService) buildResponse(essays []models.Essay, openDrills int) dto.StudentProgressResponse {
	summary := dto.ProgressSummary{TotalEssays: len(essays)}
	var dims dto.DimensionAverages
	var totalSum float64

	for _, essay := range essays {
		summary.TotalWords += essay.WordCount
		if essay.Report == nil {
			continue
		}
		summary.Graded++
		totalSum += essay.Report.Total
		if essay.Report.Total > summary.BestTotal {
			summary.BestTotal = essay.Report.Total
		}
		dims.Content += essay.Report.Content
		dims.Organization += essay.Report.Organization
		dims.Proficiency += essay.Report.Proficiency
		dims.Clarity += essay.Report.Clarity
	}

	if summary.Graded > 0 {
		n := float64(summary.Graded)
		summary.AverageTotal = round1(totalSum / n)
		dims.Content = round1(dims.Content / n)
		dims.Organization = round1(dims.Organization / n)
		dims.Proficiency = round1(dims.Proficiency / n)
		dims.Clarity = round1(dims.Clarity / n)
	}

	recent := make([]dto.EssayListItem, 0, recentEssayCount)
	for i, essay := range essays {
		if i == recentEssayCount {
			break
		}
		recent = append(recent, dto.NewEssayListItem(essay))
	}

	return dto.StudentProgressResponse{
		Summary:      summary,
		Dimensions:   dims,
		RecentEssays: recent,
		OpenDrills:   openDrills,
		GeneratedAt:  s.now().UTC(),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
