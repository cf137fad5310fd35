package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradeReport holds the normalised grading result for one essay. Dimension
// scores are half-point steps; Total is always their sum. Issues and
// Suggestions keep the model's findings as JSON documents.
type GradeReport struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	EssayID      uint           `gorm:"uniqueIndex;not null" json:"essay_id"`
	Content      float64        `gorm:"not null" json:"content"`
	Organization float64        `gorm:"not null" json:"organization"`
	Proficiency  float64        `gorm:"not null" json:"proficiency"`
	Clarity      float64        `gorm:"not null" json:"clarity"`
	Total        float64        `gorm:"not null;index" json:"total"`
	Issues       datatypes.JSON `gorm:"type:json" json:"issues"`
	Suggestions  datatypes.JSON `gorm:"type:json" json:"suggestions"`
	Summary      string         `gorm:"type:text" json:"summary"`
	Polished     string         `gorm:"type:text" json:"polished"`
	Model        string         `gorm:"size:64" json:"model"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
