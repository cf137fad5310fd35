package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsAndRounds(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		want Result
	}{
		{
			"plain integers pass through",
			Raw{Content: 3, Organization: 2, Proficiency: 4, Clarity: 2},
			Result{Content: 3, Organization: 2, Proficiency: 4, Clarity: 2, Total: 11},
		},
		{
			"negatives clamp to zero",
			Raw{Content: -1, Organization: -0.5, Proficiency: 2, Clarity: 1},
			Result{Content: 0, Organization: 0, Proficiency: 2, Clarity: 1, Total: 3},
		},
		{
			"overshoot clamps to the dimension maximum",
			Raw{Content: 9, Organization: 7, Proficiency: 11, Clarity: 8},
			Result{Content: 4, Organization: 3, Proficiency: 5, Clarity: 3, Total: 15},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// High critical count keeps the mid-band adjustment out of the way.
			got := Normalize(tc.raw, 3)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRoundsHalvesUp(t *testing.T) {
	r := Normalize(Raw{Content: 2.25, Organization: 2.24, Proficiency: 2.75, Clarity: 0.1}, 99)
	require.Equal(t, 2.5, r.Content)
	require.Equal(t, 2.0, r.Organization)
	require.Equal(t, 3.0, r.Proficiency)
	require.Equal(t, 0.0, r.Clarity)
}

func TestNormalizeHandlesNonFiniteInput(t *testing.T) {
	r := Normalize(Raw{Content: math.NaN(), Organization: math.Inf(1), Proficiency: math.Inf(-1), Clarity: 2}, 99)
	require.Equal(t, 0.0, r.Content)
	require.Equal(t, 0.0, r.Organization)
	require.Equal(t, 0.0, r.Proficiency)
	require.Equal(t, 2.0, r.Clarity)
}

func TestNormalizeScoresAreHalfPointSteps(t *testing.T) {
	raws := []Raw{
		{Content: 3.14159, Organization: 1.7, Proficiency: 4.44, Clarity: 2.01},
		{Content: 0.26, Organization: 2.74, Proficiency: 0.01, Clarity: 2.99},
		{Content: 1.23, Organization: 0.49, Proficiency: 3.51, Clarity: 1.75},
	}
	for _, raw := range raws {
		for _, critical := range []int{0, 5} {
			r := Normalize(raw, critical)
			for _, v := range []float64{r.Content, r.Organization, r.Proficiency, r.Clarity, r.Total} {
				require.Zero(t, math.Mod(v*2, 1), "score %v is not a half-point step", v)
			}
			require.InDelta(t, r.Content+r.Organization+r.Proficiency+r.Clarity, r.Total, 1e-9)
			require.LessOrEqual(t, r.Content, MaxContent)
			require.LessOrEqual(t, r.Organization, MaxOrganization)
			require.LessOrEqual(t, r.Proficiency, MaxProficiency)
			require.LessOrEqual(t, r.Clarity, MaxClarity)
		}
	}
}

func TestNormalizeMidBandAdjustment(t *testing.T) {
	raw := Raw{Content: 2, Organization: 2, Proficiency: 3, Clarity: 1}

	// Few critical issues: one full point spread over the neediest dimensions.
	got := Normalize(raw, 0)
	require.Equal(t, Result{Content: 2.5, Organization: 2, Proficiency: 3, Clarity: 1.5, Total: 9}, got)

	// Too many critical issues: no adjustment.
	got = Normalize(raw, 3)
	require.Equal(t, Result{Content: 2, Organization: 2, Proficiency: 3, Clarity: 1, Total: 8}, got)
}

func TestNormalizeAdjustmentBandBoundaries(t *testing.T) {
	// Exactly 6 still qualifies.
	low := Normalize(Raw{Content: 1.5, Organization: 1.5, Proficiency: 1.5, Clarity: 1.5}, 0)
	require.Equal(t, 7.0, low.Total)

	// Exactly 14 still qualifies; the only dimension with headroom gets a bump.
	high := Normalize(Raw{Content: 4, Organization: 3, Proficiency: 5, Clarity: 2}, 0)
	require.Equal(t, 2.5, high.Clarity)
	require.Equal(t, 14.5, high.Total)

	// Above 14 does not.
	over := Normalize(Raw{Content: 4, Organization: 3, Proficiency: 5, Clarity: 2.5}, 0)
	require.Equal(t, 14.5, over.Total)
	require.Equal(t, 2.5, over.Clarity)

	// Below 6 does not.
	under := Normalize(Raw{Content: 1, Organization: 1, Proficiency: 2, Clarity: 1}, 0)
	require.Equal(t, 5.0, under.Total)
}

func TestNormalizeAdjustmentNeverExceedsMaxima(t *testing.T) {
	r := Normalize(Raw{Content: 4, Organization: 3, Proficiency: 5, Clarity: 3}, 0)
	require.Equal(t, Result{Content: 4, Organization: 3, Proficiency: 5, Clarity: 3, Total: 15}, r)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := Raw{Content: 2.3, Organization: 1.8, Proficiency: 3.2, Clarity: 1.1}
	first := Normalize(raw, 1)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Normalize(raw, 1))
	}
}
