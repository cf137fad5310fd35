package models

import (
	"time"

	"gorm.io/datatypes"
)

// DrillSet is a batch of practice exercises generated for one student,
// usually from the weakest dimension of a graded essay. Items, Answers and
// Feedback are parallel JSON arrays; Answers and Feedback stay empty until
// the student submits.
type DrillSet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StudentID uint           `gorm:"not null;index" json:"student_id"`
	EssayID   *uint          `json:"essay_id"`
	Focus     string         `gorm:"size:64;not null" json:"focus"`
	Level     string         `gorm:"size:16;not null" json:"level"`
	Items     datatypes.JSON `gorm:"type:json;not null" json:"items"`
	Answers   datatypes.JSON `gorm:"type:json" json:"answers"`
	Feedback  datatypes.JSON `gorm:"type:json" json:"feedback"`
	Status    string         `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Student   Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

const (
	// DrillStatusOpen indicates the set is waiting for answers.
	DrillStatusOpen = "open"
	// DrillStatusReviewed indicates answers were submitted and feedback
	// generated.
	DrillStatusReviewed = "reviewed"
)

// IsReviewed reports whether the drill set has feedback attached.
func (d DrillSet) IsReviewed() bool {
	return d.Status == DrillStatusReviewed
}
