package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/config"
	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/handler"
	"github.com/cmx-713/adaptive-english-writing/internal/middleware"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
	"github.com/cmx-713/adaptive-english-writing/internal/router"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
)

func setupTeacherApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Topic{}, &models.Essay{}, &models.GradeReport{}, &models.DrillSet{}, &models.ActivityLog{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	studentRepo := repository.NewStudentRepository(db)
	essayRepo := repository.NewEssayRepository(db)
	drillRepo := repository.NewDrillRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	analyticsRepo := repository.NewTeacherAnalyticsRepository(db)

	activityService := service.NewActivityService(activityRepo, nil, logger)
	progressService := service.NewStudentProgressService(essayRepo, drillRepo, nil, time.Minute, logger)
	dashboardService := service.NewTeacherDashboardService(analyticsRepo, studentRepo, essayRepo, activityRepo, nil, time.Minute, logger)
	topicService := service.NewTopicService(topicRepo, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		TopicHandler:            handler.NewTopicHandler(topicService, logger),
		TeacherDashboardHandler: handler.NewTeacherDashboardHandler(dashboardService, progressService, activityService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(99))
			c.Locals("user_role", "teacher")
			return c.Next()
		},
		TeacherMiddleware: middleware.RequireRole("teacher"),
	})

	return app, db
}

// seedClassData creates two students, three essays (two graded) and a couple
// of activity rows, all timestamped now so they land in the current week.
func seedClassData(t *testing.T, db *gorm.DB) (alice, bob models.Student) {
	t.Helper()

	alice = models.Student{Name: "Alice", StudentNo: "20240001", Role: models.RoleStudent}
	bob = models.Student{Name: "Bob", StudentNo: "20240002", Role: models.RoleStudent}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	first := models.Essay{StudentID: alice.ID, Topic: "On Reading", Level: models.LevelCET4, Content: "text", WordCount: 120, Status: models.EssayStatusGraded}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&models.GradeReport{
		EssayID: first.ID, Content: 3.5, Organization: 2.5, Proficiency: 4, Clarity: 2, Total: 12,
		Issues: datatypesJSON(t, []map[string]string{}), Suggestions: datatypesJSON(t, []string{}),
	}).Error)

	second := models.Essay{StudentID: bob.ID, Topic: "Campus Life", Level: models.LevelCET6, Content: "text", WordCount: 90, Status: models.EssayStatusGraded}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&models.GradeReport{
		EssayID: second.ID, Content: 2.5, Organization: 2, Proficiency: 3, Clarity: 1.5, Total: 9,
		Issues: datatypesJSON(t, []map[string]string{}), Suggestions: datatypesJSON(t, []string{}),
	}).Error)

	third := models.Essay{StudentID: alice.ID, Topic: "My Hometown", Level: models.LevelCET4, Content: "text", WordCount: 80, Status: models.EssayStatusSubmitted}
	require.NoError(t, db.Create(&third).Error)

	entity := first.ID
	require.NoError(t, db.Create(&models.ActivityLog{ActorID: alice.ID, ActorRole: models.RoleStudent, Action: "essay.graded", EntityType: "essay", EntityID: &entity}).Error)
	require.NoError(t, db.Create(&models.ActivityLog{ActorID: alice.ID, ActorRole: models.RoleStudent, Action: "drill.generated", EntityType: "drill_set"}).Error)

	return alice, bob
}

func datatypesJSON(t *testing.T, value interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return data
}

func TestTeacherDashboardOverview(t *testing.T) {
	app, db := setupTeacherApp(t)
	seedClassData(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teacher/overview", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.TeacherOverviewResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.Equal(t, 2, body.Data.StudentCount)
	require.Equal(t, 3, body.Data.EssaysSubmitted)
	require.Equal(t, 2, body.Data.EssaysGraded)
	require.Equal(t, 10.5, body.Data.AverageTotal)
	require.Equal(t, 3.0, body.Data.Dimensions.Content)
	require.Equal(t, 2.3, body.Data.Dimensions.Organization)
	require.Equal(t, 3.5, body.Data.Dimensions.Proficiency)
	require.Equal(t, 1.8, body.Data.Dimensions.Clarity)
	require.Equal(t, 1, body.Data.ScoreDistribution["9-11"])
	require.Equal(t, 1, body.Data.ScoreDistribution["12-15"])
	require.Equal(t, 0, body.Data.ScoreDistribution["0-5"])
	require.Len(t, body.Data.WeeklyEssays, 8)
	require.Equal(t, 3, body.Data.WeeklyEssays[7].Essays)
}

func TestTeacherDashboardRoster(t *testing.T) {
	app, db := setupTeacherApp(t)
	alice, _ := seedClassData(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teacher/students", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.StudentOverviewResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.Len(t, body.Data, 2)
	require.Equal(t, "Alice", body.Data[0].Student.Name)
	require.Equal(t, 2, body.Data[0].Essays)
	require.Equal(t, 1, body.Data[0].Graded)
	require.Equal(t, 12.0, body.Data[0].AverageTotal)
	require.NotNil(t, body.Data[0].LastActiveAt)
	require.Equal(t, "Bob", body.Data[1].Student.Name)
	require.Nil(t, body.Data[1].LastActiveAt)

	progressReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/teacher/students/%d/progress", alice.ID), nil)
	progressResp, err := app.Test(progressReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, progressResp.StatusCode)

	var progress struct {
		Data dto.StudentProgressResponse `json:"data"`
	}
	decodeResponse(t, progressResp, &progress)
	require.Equal(t, 2, progress.Data.Summary.TotalEssays)
	require.Equal(t, 12.0, progress.Data.Summary.BestTotal)
}

func TestTeacherDashboardActivityFilter(t *testing.T) {
	app, db := setupTeacherApp(t)
	alice, _ := seedClassData(t, db)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/teacher/activity?actor_id=%d&action=essay.graded&limit=10", alice.ID), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.ActivityResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "essay.graded", body.Data[0].Action)

	badReq := httptest.NewRequest(http.MethodGet, "/api/v1/teacher/activity?actor_id=abc", nil)
	badResp, err := app.Test(badReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, badResp.StatusCode)
}

func TestTeacherTopicCreateAndList(t *testing.T) {
	app, _ := setupTeacherApp(t)

	payload, err := json.Marshal(map[string]string{
		"title":    "Should University Students Take Part-time Jobs?",
		"prompt":   "Write an essay of no less than 120 words on the topic above.",
		"level":    models.LevelCET4,
		"category": "campus",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/topics", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data dto.TopicResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.NotZero(t, created.Data.ID)
	require.Equal(t, "teacher", created.Data.Source)

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/topics?level=cet4", nil)
	listResp, err := app.Test(listReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	var listing struct {
		Data []dto.TopicResponse `json:"data"`
	}
	decodeResponse(t, listResp, &listing)
	require.Len(t, listing.Data, 1)
}
