package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

func seedProgressFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()

	essays := []models.Essay{
		{StudentID: 1, Topic: "Latest Graded", Level: models.LevelCET4, Content: testEssay, WordCount: 120, Status: models.EssayStatusGraded, CreatedAt: now},
		{StudentID: 1, Topic: "Older Graded", Level: models.LevelCET4, Content: testEssay, WordCount: 100, Status: models.EssayStatusGraded, CreatedAt: now.Add(-time.Hour)},
		{StudentID: 1, Topic: "Ungraded Draft", Level: models.LevelCET6, Content: testEssay, WordCount: 80, Status: models.EssayStatusSubmitted, CreatedAt: now.Add(-2 * time.Hour)},
		{StudentID: 2, Topic: "Someone Else", Level: models.LevelCET4, Content: testEssay, WordCount: 90, Status: models.EssayStatusSubmitted, CreatedAt: now},
	}
	for i := range essays {
		require.NoError(t, db.Create(&essays[i]).Error)
	}

	reports := []models.GradeReport{
		{EssayID: essays[0].ID, Content: 3.5, Organization: 2.5, Proficiency: 4, Clarity: 2, Total: 12},
		{EssayID: essays[1].ID, Content: 2, Organization: 2, Proficiency: 3, Clarity: 2, Total: 9},
	}
	for i := range reports {
		require.NoError(t, db.Create(&reports[i]).Error)
	}

	drills := []models.DrillSet{
		{StudentID: 1, Focus: "organization", Level: models.LevelCET4, Items: []byte(`[]`), Status: models.DrillStatusOpen},
		{StudentID: 1, Focus: "clarity", Level: models.LevelCET4, Items: []byte(`[]`), Status: models.DrillStatusOpen},
		{StudentID: 1, Focus: "content", Level: models.LevelCET4, Items: []byte(`[]`), Status: models.DrillStatusReviewed},
		{StudentID: 2, Focus: "content", Level: models.LevelCET4, Items: []byte(`[]`), Status: models.DrillStatusOpen},
	}
	for i := range drills {
		require.NoError(t, db.Create(&drills[i]).Error)
	}
}

func newTestProgressService(db *gorm.DB, cache *redis.Client) StudentProgressService {
	return NewStudentProgressService(
		repository.NewEssayRepository(db),
		repository.NewDrillRepository(db),
		cache,
		time.Minute,
		testLogger(),
	)
}

func TestStudentProgressServiceAggregation(t *testing.T) {
	db := setupServiceDB(t)
	seedProgressFixtures(t, db)
	svc := newTestProgressService(db, nil)

	progress, err := svc.GetProgress(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, progress.CacheHit)

	require.Equal(t, 3, progress.Summary.TotalEssays)
	require.Equal(t, 2, progress.Summary.Graded)
	require.Equal(t, 300, progress.Summary.TotalWords)
	require.Equal(t, 10.5, progress.Summary.AverageTotal)
	require.Equal(t, 12.0, progress.Summary.BestTotal)

	require.Equal(t, 2.8, progress.Dimensions.Content)
	require.Equal(t, 2.3, progress.Dimensions.Organization)
	require.Equal(t, 3.5, progress.Dimensions.Proficiency)
	require.Equal(t, 2.0, progress.Dimensions.Clarity)

	require.Len(t, progress.RecentEssays, 3)
	require.Equal(t, "Latest Graded", progress.RecentEssays[0].Topic)
	require.NotNil(t, progress.RecentEssays[0].Total)
	require.Equal(t, 12.0, *progress.RecentEssays[0].Total)
	require.Nil(t, progress.RecentEssays[2].Total)

	require.Equal(t, 2, progress.OpenDrills)
	require.False(t, progress.GeneratedAt.IsZero())
}

func TestStudentProgressServiceCaching(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := setupServiceDB(t)
	seedProgressFixtures(t, db)
	svc := newTestProgressService(db, cache)

	first, err := svc.GetProgress(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.True(t, mini.Exists(progressCacheKey(1)))

	// New activity is invisible until the grading service evicts the entry.
	extra := models.DrillSet{StudentID: 1, Focus: "content", Level: models.LevelCET4, Items: []byte(`[]`), Status: models.DrillStatusOpen}
	require.NoError(t, db.Create(&extra).Error)

	second, err := svc.GetProgress(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.OpenDrills, second.OpenDrills)
	require.Equal(t, first.Summary, second.Summary)

	mini.Del(progressCacheKey(1))
	third, err := svc.GetProgress(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Equal(t, 3, third.OpenDrills)
}

func TestStudentProgressServiceEmptyHistory(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestProgressService(db, nil)

	progress, err := svc.GetProgress(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 0, progress.Summary.TotalEssays)
	require.Equal(t, 0.0, progress.Summary.AverageTotal)
	require.Empty(t, progress.RecentEssays)
	require.NotNil(t, progress.RecentEssays)
	require.Equal(t, 0, progress.OpenDrills)
}
