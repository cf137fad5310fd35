package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberDecodesLeniently(t *testing.T) {
	var payload struct {
		Content      Number `json:"content"`
		Organization Number `json:"organization"`
		Proficiency  Number `json:"proficiency"`
		Clarity      Number `json:"clarity"`
	}
	in := `{"content": 3.5, "organization": "2.5", "proficiency": "n/a", "clarity": null}`
	require.NoError(t, json.Unmarshal([]byte(in), &payload))
	require.Equal(t, 3.5, payload.Content.Float())
	require.Equal(t, 2.5, payload.Organization.Float())
	require.Equal(t, 0.0, payload.Proficiency.Float())
	require.Equal(t, 0.0, payload.Clarity.Float())
}

func TestNumberMissingFieldIsZero(t *testing.T) {
	var payload struct {
		Content Number `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &payload))
	require.Equal(t, 0.0, payload.Content.Float())
}

func TestNumberIgnoresStructuredValues(t *testing.T) {
	var payload struct {
		Score Number `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"score": {"value": 3}}`), &payload))
	require.Equal(t, 0.0, payload.Score.Float())

	require.NoError(t, json.Unmarshal([]byte(`{"score": [3]}`), &payload))
	require.Equal(t, 0.0, payload.Score.Float())
}
