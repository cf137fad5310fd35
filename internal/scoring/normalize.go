// Package scoring normalises the raw dimension scores returned by the
// grading model into the fifteen-point CET writing band.
package scoring

import (
	"math"
	"sort"
)

// Dimension maxima. Content + organization + proficiency + clarity add up to
// the fifteen-point band used on the CET-4/6 answer sheet.
const (
	MaxContent      = 4.0
	MaxOrganization = 3.0
	MaxProficiency  = 5.0
	MaxClarity      = 3.0
	MaxTotal        = MaxContent + MaxOrganization + MaxProficiency + MaxClarity
)

// Mid-band adjustment. Graders bump essays that land between bonusFloor and
// bonusCeil by up to bonusBudget, half a point per dimension, unless the
// essay carries more than bonusMaxCritical critical issues.
const (
	bonusFloor       = 6.0
	bonusCeil        = 14.0
	bonusBudget      = 1.0
	bonusStep        = 0.5
	bonusMaxCritical = 2
)

// Raw holds the dimension scores as the model reported them, before any
// clamping or rounding.
type Raw struct {
	Content      float64
	Organization float64
	Proficiency  float64
	Clarity      float64
}

// Result is a normalised report: every dimension clamped to its maximum,
// rounded to the nearest half point, and summed into Total.
type Result struct {
	Content      float64
	Organization float64
	Proficiency  float64
	Clarity      float64
	Total        float64
}

// Normalize clamps and rounds each raw dimension score, recomputes the total
// as their sum, and applies the mid-band adjustment when the essay qualifies.
// criticalIssues is the number of critical findings the model reported.
func Normalize(raw Raw, criticalIssues int) Result {
	r := Result{
		Content:      normalizeDim(raw.Content, MaxContent),
		Organization: normalizeDim(raw.Organization, MaxOrganization),
		Proficiency:  normalizeDim(raw.Proficiency, MaxProficiency),
		Clarity:      normalizeDim(raw.Clarity, MaxClarity),
	}
	r.Total = r.Content + r.Organization + r.Proficiency + r.Clarity
	if r.Total >= bonusFloor && r.Total <= bonusCeil && criticalIssues <= bonusMaxCritical {
		applyAdjustment(&r)
	}
	return r
}

// normalizeDim coerces a raw value into [0, max] in half-point steps. Halves
// round up, so 2.25 becomes 2.5 and 2.24 becomes 2.0.
func normalizeDim(v, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		v = 0
	}
	if v > max {
		v = max
	}
	return math.Floor(v*2+0.5) / 2
}

// applyAdjustment distributes the adjustment budget across the dimensions
// with at least half a point of headroom, largest headroom first, ties going
// to the lower current score and then to declaration order. No dimension
// receives more than one step or exceeds its maximum.
func applyAdjustment(r *Result) {
	dims := []struct {
		score *float64
		max   float64
	}{
		{&r.Content, MaxContent},
		{&r.Organization, MaxOrganization},
		{&r.Proficiency, MaxProficiency},
		{&r.Clarity, MaxClarity},
	}

	type candidate struct {
		idx      int
		headroom float64
	}
	var cands []candidate
	for i, d := range dims {
		if h := d.max - *d.score; h >= bonusStep {
			cands = append(cands, candidate{idx: i, headroom: h})
		}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].headroom != cands[b].headroom {
			return cands[a].headroom > cands[b].headroom
		}
		return *dims[cands[a].idx].score < *dims[cands[b].idx].score
	})

	budget := bonusBudget
	for _, c := range cands {
		if budget < bonusStep {
			break
		}
		*dims[c.idx].score += bonusStep
		r.Total += bonusStep
		budget -= bonusStep
	}
}
