package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/handler"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
)

type stubOverviewService struct {
	response dto.TeacherOverviewResponse
}

func (s stubOverviewService) GetOverview(context.Context) (dto.TeacherOverviewResponse, error) {
	return s.response, nil
}

func (s stubOverviewService) ListStudents(context.Context) ([]dto.StudentOverviewResponse, error) {
	return nil, nil
}

type stubProgressService struct{}

func (stubProgressService) GetProgress(context.Context, uint) (dto.StudentProgressResponse, error) {
	return dto.StudentProgressResponse{}, nil
}

type stubActivityService struct{}

func (stubActivityService) Record(context.Context, service.ActivityEntry) error {
	return nil
}

func (stubActivityService) List(context.Context, *uint, string, int) ([]dto.ActivityResponse, error) {
	return nil, nil
}

// The overview payload feeds the teacher frontend's charts, so its shape is
// pinned by a JSON schema rather than field-by-field assertions.
func TestTeacherOverviewContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "teacher_overview.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	weekly := make([]dto.WeeklyCount, 0, 8)
	for i := 7; i >= 0; i-- {
		weekly = append(weekly, dto.WeeklyCount{WeekStart: now.AddDate(0, 0, -7*i), Essays: i % 3})
	}

	response := dto.TeacherOverviewResponse{
		StudentCount:    12,
		EssaysSubmitted: 40,
		EssaysGraded:    36,
		AverageTotal:    10.5,
		Dimensions: dto.DimensionAverages{
			Content:      2.8,
			Organization: 2.3,
			Proficiency:  3.4,
			Clarity:      2.0,
		},
		ScoreDistribution: map[string]int{"0-5": 2, "6-8": 10, "9-11": 16, "12-15": 8},
		WeeklyEssays:      weekly,
		GeneratedAt:       now,
		CacheHit:          false,
	}

	dashboardHandler := handler.NewTeacherDashboardHandler(stubOverviewService{response: response}, stubProgressService{}, stubActivityService{}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/teacher", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	dashboardHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teacher/overview", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
