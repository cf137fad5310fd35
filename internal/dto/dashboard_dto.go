package dto

import "time"

// ProgressSummary captures aggregated statistics over a student's essays.
type ProgressSummary struct {
	TotalEssays  int     `json:"total_essays"`
	Graded       int     `json:"graded"`
	AverageTotal float64 `json:"average_total"`
	BestTotal    float64 `json:"best_total"`
	TotalWords   int     `json:"total_words"`
}

// DimensionAverages holds per-dimension mean scores over graded essays.
type DimensionAverages struct {
	Content      float64 `json:"content"`
	Organization float64 `json:"organization"`
	Proficiency  float64 `json:"proficiency"`
	Clarity      float64 `json:"clarity"`
}

// StudentProgressResponse aggregates one student's practice history.
type StudentProgressResponse struct {
	Summary      ProgressSummary   `json:"summary"`
	Dimensions   DimensionAverages `json:"dimensions"`
	RecentEssays []EssayListItem   `json:"recent_essays"`
	OpenDrills   int               `json:"open_drills"`
	GeneratedAt  time.Time         `json:"generated_at"`
	CacheHit     bool              `json:"cache_hit"`
}

// WeeklyCount is one bar of the submissions-per-week chart.
type WeeklyCount struct {
	WeekStart time.Time `json:"week_start"`
	Essays    int       `json:"essays"`
}

// TeacherOverviewResponse aggregates class-wide writing activity.
type TeacherOverviewResponse struct {
	StudentCount      int               `json:"student_count"`
	EssaysSubmitted   int               `json:"essays_submitted"`
	EssaysGraded      int               `json:"essays_graded"`
	AverageTotal      float64           `json:"average_total"`
	Dimensions        DimensionAverages `json:"dimensions"`
	ScoreDistribution map[string]int    `json:"score_distribution"`
	WeeklyEssays      []WeeklyCount     `json:"weekly_essays"`
	GeneratedAt       time.Time         `json:"generated_at"`
	CacheHit          bool              `json:"cache_hit"`
}

// StudentOverviewResponse is one row of the teacher's roster view.
type StudentOverviewResponse struct {
	Student      StudentResponse `json:"student"`
	Essays       int             `json:"essays"`
	Graded       int             `json:"graded"`
	AverageTotal float64         `json:"average_total"`
	LastActiveAt *time.Time      `json:"last_active_at"`
}
