package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
)

const testEssay = "Reading books opens windows to the wider world and makes our minds grow stronger every day."

type generatorStub struct {
	response string
	err      error
	requests []llm.Request
}

func (g *generatorStub) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Topic{},
		&models.Essay{},
		&models.GradeReport{},
		&models.DrillSet{},
		&models.ActivityLog{},
	))
	return db
}

func newTestGradingService(t *testing.T, db *gorm.DB, generator *generatorStub, cache *redis.Client) (GradingService, *recorderStub) {
	t.Helper()
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(
		repository.NewEssayRepository(db),
		repository.NewTopicRepository(db),
		generator,
		recorder,
		cache,
		validate,
		"",
		"gpt-4o-mini",
		testLogger(),
	)
	return svc, recorder
}

func TestGradingServiceSubmitGradesEssay(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{
		response: " ```json\n{\"scores\": {\"content\": 3, \"organization\": 2.2, \"proficiency\": \"4\", \"clarity\": 2}, " +
			"\"issues\": [{\"severity\": \"critical\", \"category\": \"grammar\", \"excerpt\": \"he go\", \"advice\": \"use goes\"}], " +
			"\"suggestions\": [\"vary openings\"], \"summary\": \"Promising draft.\"}\n```",
	}
	svc, recorder := newTestGradingService(t, db, generator, nil)

	response, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Level:   models.LevelCET4,
		Content: testEssay,
	})
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGraded, response.Status)
	require.Equal(t, 16, response.WordCount)
	require.NotNil(t, response.Report)
	require.Equal(t, 3.0, response.Report.Content)
	require.Equal(t, 2.5, response.Report.Organization)
	require.Equal(t, 4.0, response.Report.Proficiency)
	require.Equal(t, 2.5, response.Report.Clarity)
	require.Equal(t, 12.0, response.Report.Total)
	require.Len(t, response.Report.Issues, 1)
	require.Equal(t, "critical", response.Report.Issues[0].Severity)
	require.Equal(t, "gpt-4o-mini", response.Report.Model)

	require.Len(t, generator.requests, 1)
	require.True(t, generator.requests[0].ForceJSON)
	require.Contains(t, generator.requests[0].User, testEssay)

	var stored models.Essay
	require.NoError(t, db.Preload("Report").First(&stored, response.ID).Error)
	require.Equal(t, models.EssayStatusGraded, stored.Status)
	require.NotNil(t, stored.Report)
	require.Equal(t, 12.0, stored.Report.Total)

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "essay.graded", recorder.entries[0].Action)
}

func TestGradingServiceSubmitRepairsTruncatedResponse(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{
		response: `{"scores": {"content": 2, "organization": 2, "proficiency": 3, "clarity": 2}, "issues": [], "suggestions": ["keep writing"], "summary": "ok", "extra": "cut`,
	}
	svc, _ := newTestGradingService(t, db, generator, nil)

	response, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.NoError(t, err)
	require.NotNil(t, response.Report)
	require.Equal(t, 2.5, response.Report.Content)
	require.Equal(t, 3.5, response.Report.Proficiency)
	require.Equal(t, 10.0, response.Report.Total)
}

func TestGradingServiceSubmitModelUnavailable(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{err: errors.New("connection refused")}
	svc, _ := newTestGradingService(t, db, generator, nil)

	_, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.ErrorIs(t, err, ErrModelUnavailable)

	var stored models.Essay
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, models.EssayStatusFailed, stored.Status)
}

func TestGradingServiceSubmitUnparseableResponse(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{response: "I cannot grade this essay, sorry."}
	svc, _ := newTestGradingService(t, db, generator, nil)

	_, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.ErrorIs(t, err, ErrModelResponseInvalid)

	var stored models.Essay
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, models.EssayStatusFailed, stored.Status)
}

func TestGradingServiceSubmitRejectsTooFewWords(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{}
	svc, _ := newTestGradingService(t, db, generator, nil)

	_, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: "Supercalifragilisticexpialidocious antidisestablishmentarianism floccinaucinihilipilification",
	})
	require.ErrorIs(t, err, ErrEssayTooShort)
	require.Empty(t, generator.requests)
}

func TestGradingServiceSubmitWithBankTopic(t *testing.T) {
	db := setupServiceDB(t)
	topic := models.Topic{Title: "My View on Online Learning", Prompt: "Discuss.", Level: models.LevelCET6}
	require.NoError(t, db.Create(&topic).Error)

	generator := &generatorStub{
		response: `{"scores": {"content": 3, "organization": 2, "proficiency": 3, "clarity": 2}, "issues": [{"severity":"critical","category":"grammar","excerpt":"a","advice":"b"},{"severity":"critical","category":"grammar","excerpt":"c","advice":"d"},{"severity":"critical","category":"content","excerpt":"e","advice":"f"}], "suggestions": [], "summary": "ok"}`,
	}
	svc, _ := newTestGradingService(t, db, generator, nil)

	response, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		TopicID: ptrUint(topic.ID),
		Content: testEssay,
	})
	require.NoError(t, err)
	require.Equal(t, "My View on Online Learning", response.Topic)
	require.Equal(t, models.LevelCET6, response.Level)
	require.Equal(t, 10.0, response.Report.Total)

	_, err = svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		TopicID: ptrUint(9999),
		Content: testEssay,
	})
	require.ErrorIs(t, err, ErrTopicNotFound)
}

func TestGradingServiceOwnership(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{
		response: `{"scores": {"content": 1, "organization": 1, "proficiency": 1, "clarity": 1}, "issues": [], "suggestions": [], "summary": "weak"}`,
	}
	svc, _ := newTestGradingService(t, db, generator, nil)

	response, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, response.ID)
	require.ErrorIs(t, err, ErrEssayNotFound)

	mine, err := svc.Get(context.Background(), 1, response.ID)
	require.NoError(t, err)
	require.Equal(t, response.ID, mine.ID)
}

func TestGradingServicePolish(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{
		response: `{"scores": {"content": 3, "organization": 2, "proficiency": 3, "clarity": 2}, "issues": [], "suggestions": [], "summary": "ok"}`,
	}
	svc, _ := newTestGradingService(t, db, generator, nil)

	graded, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.NoError(t, err)

	generator.response = `{"polished": "Reading opens a window onto the wider world.", "notes": ["tightened the opening"]}`
	polished, err := svc.Polish(context.Background(), 1, graded.ID)
	require.NoError(t, err)
	require.Equal(t, "Reading opens a window onto the wider world.", polished.Polished)
	require.Equal(t, []string{"tightened the opening"}, polished.Notes)

	callsBefore := len(generator.requests)
	again, err := svc.Polish(context.Background(), 1, graded.ID)
	require.NoError(t, err)
	require.Equal(t, polished.Polished, again.Polished)
	require.Len(t, generator.requests, callsBefore)
}

func TestGradingServicePolishRequiresReport(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{err: errors.New("down")}
	svc, _ := newTestGradingService(t, db, generator, nil)

	_, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{
		Topic:   "The Importance of Reading",
		Content: testEssay,
	})
	require.ErrorIs(t, err, ErrModelUnavailable)

	var stored models.Essay
	require.NoError(t, db.First(&stored).Error)

	_, err = svc.Polish(context.Background(), 1, stored.ID)
	require.ErrorIs(t, err, ErrEssayNotGraded)
}

func TestGradingServiceListFilters(t *testing.T) {
	db := setupServiceDB(t)
	generator := &generatorStub{
		response: `{"scores": {"content": 3, "organization": 2, "proficiency": 3, "clarity": 2}, "issues": [], "suggestions": [], "summary": "ok"}`,
	}
	svc, _ := newTestGradingService(t, db, generator, nil)

	_, err := svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{Topic: "Topic One Here", Content: testEssay})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{Topic: "Topic Two Here", Level: models.LevelCET6, Content: testEssay})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), 1, dto.EssayFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Total)

	level := models.LevelCET6
	cet6, err := svc.List(context.Background(), 1, dto.EssayFilter{Level: &level})
	require.NoError(t, err)
	require.Len(t, cet6, 1)
	require.Equal(t, "Topic Two Here", cet6[0].Topic)

	other, err := svc.List(context.Background(), 2, dto.EssayFilter{})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestGradingServiceEvictsDashboardCaches(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	require.NoError(t, cache.Set(context.Background(), progressCacheKey(1), "stale", time.Minute).Err())
	require.NoError(t, cache.Set(context.Background(), teacherOverviewCacheKey, "stale", time.Minute).Err())

	db := setupServiceDB(t)
	generator := &generatorStub{
		response: `{"scores": {"content": 3, "organization": 2, "proficiency": 3, "clarity": 2}, "issues": [], "suggestions": [], "summary": "ok"}`,
	}
	svc, _ := newTestGradingService(t, db, generator, cache)

	_, err = svc.Submit(context.Background(), 1, dto.EssaySubmitRequest{Topic: "The Importance of Reading", Content: testEssay})
	require.NoError(t, err)

	require.False(t, mini.Exists(progressCacheKey(1)))
	require.False(t, mini.Exists(teacherOverviewCacheKey))
}
