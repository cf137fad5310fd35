package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

func newTestBrainstormService(generator *generatorStub) (BrainstormService, *recorderStub) {
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewBrainstormService(generator, recorder, validate, testLogger())
	return svc, recorder
}

func TestBrainstormServiceGeneratesIdeas(t *testing.T) {
	generator := &generatorStub{
		response: `{"ideas": [
			{"angle": "personal growth", "thesis": "Part-time jobs build independence.", "points": ["budgeting", "time management"]},
			{"angle": "academic cost", "thesis": "Work hours compete with study hours.", "points": ["fatigue"]}
		], "outline": ["introduce the debate", "argue for growth", "concede the cost", "conclude"]}`,
	}
	svc, recorder := newTestBrainstormService(generator)

	response, err := svc.Brainstorm(context.Background(), 7, dto.BrainstormRequest{Topic: "The Value of Part-time Jobs"})
	require.NoError(t, err)
	require.Equal(t, "The Value of Part-time Jobs", response.Topic)
	require.Equal(t, models.LevelCET4, response.Level)
	require.Len(t, response.Ideas, 2)
	require.Equal(t, "personal growth", response.Ideas[0].Angle)
	require.Equal(t, []string{"budgeting", "time management"}, response.Ideas[0].Points)
	require.Len(t, response.Outline, 4)

	require.Len(t, generator.requests, 1)
	require.True(t, generator.requests[0].ForceJSON)
	require.Contains(t, generator.requests[0].User, "The Value of Part-time Jobs")

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "writing.brainstorm", recorder.entries[0].Action)
	require.Equal(t, uint(7), recorder.entries[0].ActorID)
}

func TestBrainstormServiceUnwrapsChattyResponse(t *testing.T) {
	generator := &generatorStub{
		response: "Here are some ideas for your essay:\n```json\n" +
			`{"ideas": [{"angle": "health", "thesis": "Exercise sharpens the mind.", "points": null}], "outline": null}` +
			"\n```\nGood luck with your writing!",
	}
	svc, _ := newTestBrainstormService(generator)

	response, err := svc.Brainstorm(context.Background(), 1, dto.BrainstormRequest{Topic: "Exercise and Study", Level: models.LevelCET6})
	require.NoError(t, err)
	require.Equal(t, models.LevelCET6, response.Level)
	require.Len(t, response.Ideas, 1)
	require.NotNil(t, response.Ideas[0].Points)
	require.Empty(t, response.Ideas[0].Points)
	require.NotNil(t, response.Outline)
	require.Empty(t, response.Outline)
}

func TestBrainstormServiceRejectsEmptyIdeas(t *testing.T) {
	generator := &generatorStub{response: `{"ideas": [], "outline": ["intro"]}`}
	svc, _ := newTestBrainstormService(generator)

	_, err := svc.Brainstorm(context.Background(), 1, dto.BrainstormRequest{Topic: "The Value of Part-time Jobs"})
	require.ErrorIs(t, err, ErrModelResponseInvalid)
}

func TestBrainstormServiceModelUnavailable(t *testing.T) {
	generator := &generatorStub{err: errors.New("rate limited")}
	svc, _ := newTestBrainstormService(generator)

	_, err := svc.Brainstorm(context.Background(), 1, dto.BrainstormRequest{Topic: "The Value of Part-time Jobs"})
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestBrainstormServiceValidatesTopic(t *testing.T) {
	generator := &generatorStub{}
	svc, _ := newTestBrainstormService(generator)

	_, err := svc.Brainstorm(context.Background(), 1, dto.BrainstormRequest{Topic: "ab"})
	require.Error(t, err)
	require.Empty(t, generator.requests)
}
