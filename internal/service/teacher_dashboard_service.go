package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

// teacherOverviewCacheKey is shared with the grading service, which evicts
// the entry when a new report lands.
const teacherOverviewCacheKey = "dashboard:teacher:overview"

const weeklySeriesWeeks = 8

// TeacherDashboardService aggregates class-wide writing activity.
type TeacherDashboardService interface {
	GetOverview(ctx context.Context) (dto.TeacherOverviewResponse, error)
	ListStudents(ctx context.Context) ([]dto.StudentOverviewResponse, error)
}

type teacherDashboardService struct {
	analytics repository.TeacherAnalyticsRepository
	students  repository.StudentRepository
	essays    repository.EssayRepository
	activity  repository.ActivityLogRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTeacherDashboardService builds the teacher dashboard aggregator.
func NewTeacherDashboardService(analytics repository.TeacherAnalyticsRepository, students repository.StudentRepository, essays repository.EssayRepository, activity repository.ActivityLogRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) TeacherDashboardService {
	return &teacherDashboardService{
		analytics: analytics,
		students:  students,
		essays:    essays,
		activity:  activity,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "teacher_dashboard_service").Logger(),
		now:       time.Now,
	}
}

func (s *teacherDashboardService) GetOverview(ctx context.Context) (dto.TeacherOverviewResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, teacherOverviewCacheKey).Result(); err == nil {
			var response dto.TeacherOverviewResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("teacher overview cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read overview cache")
		}
	}

	ctx, span := otel.Tracer("aew.dashboard").Start(ctx, "teacher.overview")
	defer span.End()

	studentCount, err := s.analytics.CountStudents(ctx)
	if err != nil {
		return dto.TeacherOverviewResponse{}, err
	}

	essayCount, err := s.analytics.CountEssays(ctx)
	if err != nil {
		return dto.TeacherOverviewResponse{}, err
	}

	reports, err := s.analytics.ListGradedReports(ctx)
	if err != nil {
		return dto.TeacherOverviewResponse{}, err
	}

	seriesStart := startOfWeek(s.now()).AddDate(0, 0, -7*(weeklySeriesWeeks-1))
	recentEssays, err := s.analytics.ListEssaysSince(ctx, seriesStart)
	if err != nil {
		return dto.TeacherOverviewResponse{}, err
	}

	response := s.buildOverview(int(studentCount), int(essayCount), reports, recentEssays, seriesStart)

	if s.cache != nil {
		if body, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, teacherOverviewCacheKey, body, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store overview cache")
			}
		}
	}

	return response, nil
}

func (s *teacherDashboardService) buildOverview(studentCount, essayCount int, reports []models.GradeReport, recentEssays []models.Essay, seriesStart time.Time) dto.TeacherOverviewResponse {
	var dims dto.DimensionAverages
	var totalSum float64

	distribution := map[string]int{"0-5": 0, "6-8": 0, "9-11": 0, "12-15": 0}
	for _, report := range reports {
		totalSum += report.Total
		dims.Content += report.Content
		dims.Organization += report.Organization
		dims.Proficiency += report.Proficiency
		dims.Clarity += report.Clarity
		distribution[scoreBucket(report.Total)]++
	}

	var average float64
	if len(reports) > 0 {
		n := float64(len(reports))
		average = round1(totalSum / n)
		dims.Content = round1(dims.Content / n)
		dims.Organization = round1(dims.Organization / n)
		dims.Proficiency = round1(dims.Proficiency / n)
		dims.Clarity = round1(dims.Clarity / n)
	}

	weeklyCounts := map[time.Time]int{}
	for _, essay := range recentEssays {
		weeklyCounts[startOfWeek(essay.CreatedAt)]++
	}
	weekly := make([]dto.WeeklyCount, 0, weeklySeriesWeeks)
	for i := 0; i < weeklySeriesWeeks; i++ {
		weekStart := seriesStart.AddDate(0, 0, 7*i)
		weekly = append(weekly, dto.WeeklyCount{WeekStart: weekStart, Essays: weeklyCounts[weekStart]})
	}

	return dto.TeacherOverviewResponse{
		StudentCount:      studentCount,
		EssaysSubmitted:   essayCount,
		EssaysGraded:      len(reports),
		AverageTotal:      average,
		Dimensions:        dims,
		ScoreDistribution: distribution,
		WeeklyEssays:      weekly,
		GeneratedAt:       s.now().UTC(),
	}
}

func (s *teacherDashboardService) ListStudents(ctx context.Context) ([]dto.StudentOverviewResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	essays, err := s.essays.ListWithReports(ctx)
	if err != nil {
		return nil, err
	}

	lastActive, err := s.activity.LatestByActor(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load last-active times")
		lastActive = map[uint]time.Time{}
	}

	type tally struct {
		essays   int
		graded   int
		totalSum float64
	}
	tallies := map[uint]*tally{}
	for _, essay := range essays {
		entry := tallies[essay.StudentID]
		if entry == nil {
			entry = &tally{}
			tallies[essay.StudentID] = entry
		}
		entry.essays++
		if essay.Report != nil {
			entry.graded++
			entry.totalSum += essay.Report.Total
		}
	}

	rows := make([]dto.StudentOverviewResponse, 0, len(students))
	for _, student := range students {
		if student.IsTeacher() {
			continue
		}

		row := dto.StudentOverviewResponse{Student: dto.NewStudentResponse(student)}
		if entry := tallies[student.ID]; entry != nil {
			row.Essays = entry.essays
			row.Graded = entry.graded
			if entry.graded > 0 {
				row.AverageTotal = round1(entry.totalSum / float64(entry.graded))
			}
		}
		if at, ok := lastActive[student.ID]; ok {
			lastAt := at
			row.LastActiveAt = &lastAt
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// scoreBucket maps a fifteen-point total onto the distribution buckets shown
// on the dashboard.
func scoreBucket(total float64) string {
	switch {
	case total < 6:
		return "0-5"
	case total < 9:
		return "6-8"
	case total < 12:
		return "9-11"
	default:
		return "12-15"
	}
}

// startOfWeek returns midnight UTC on the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
