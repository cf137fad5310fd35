package models

import "time"

// Essay is one writing attempt submitted for grading. Topic is stored as
// text so students can practise prompts that are not in the bank; TopicID is
// set when the prompt came from it.
type Essay struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	StudentID uint         `gorm:"not null;index" json:"student_id"`
	TopicID   *uint        `json:"topic_id"`
	Topic     string       `gorm:"size:512;not null" json:"topic"`
	Level     string       `gorm:"size:16;not null" json:"level"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	WordCount int          `gorm:"not null" json:"word_count"`
	ImageURL  string       `gorm:"size:512" json:"image_url"`
	Status    string       `gorm:"size:32;not null" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Student   Student      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Report    *GradeReport `gorm:"foreignKey:EssayID" json:"report,omitempty"`
}

const (
	// EssayStatusSubmitted indicates the essay is stored but not yet graded.
	EssayStatusSubmitted = "submitted"
	// EssayStatusGraded indicates a grade report exists for the essay.
	EssayStatusGraded = "graded"
	// EssayStatusFailed indicates grading was attempted and did not produce
	// a usable report.
	EssayStatusFailed = "failed"
)

// IsGraded reports whether the essay has a final grade report.
func (e Essay) IsGraded() bool {
	return e.Status == EssayStatusGraded
}
