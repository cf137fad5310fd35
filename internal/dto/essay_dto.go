package dto

import (
	"encoding/json"
	"time"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// EssaySubmitRequest is the grading payload. Topic may reference the bank by
// id or be free text; Level defaults to cet4 when omitted.
type EssaySubmitRequest struct {
	TopicID *uint  `json:"topic_id" validate:"omitempty,gt=0"`
	Topic   string `json:"topic" validate:"required_without=TopicID,omitempty,min=4,max=512"`
	Level   string `json:"level" validate:"omitempty,oneof=cet4 cet6"`
	Content string `json:"content" validate:"required,min=40,max=10000"`
}

// EssayFilter describes query string filters for listing essays.
type EssayFilter struct {
	Status *string `query:"status" validate:"omitempty,oneof=submitted graded failed"`
	Level  *string `query:"level" validate:"omitempty,oneof=cet4 cet6"`
}

// IssueResponse is one finding from the grading model.
type IssueResponse struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
	Advice   string `json:"advice"`
}

// GradeReportResponse serializes a grade report with its findings decoded.
type GradeReportResponse struct {
	Content      float64         `json:"content"`
	Organization float64         `json:"organization"`
	Proficiency  float64         `json:"proficiency"`
	Clarity      float64         `json:"clarity"`
	Total        float64         `json:"total"`
	Issues       []IssueResponse `json:"issues"`
	Suggestions  []string        `json:"suggestions"`
	Summary      string          `json:"summary"`
	Polished     string          `json:"polished,omitempty"`
	Model        string          `json:"model"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EssayResponse is the full view of an essay, report included when graded.
type EssayResponse struct {
	ID        uint                 `json:"id"`
	StudentID uint                 `json:"student_id"`
	TopicID   *uint                `json:"topic_id"`
	Topic     string               `json:"topic"`
	Level     string               `json:"level"`
	Content   string               `json:"content"`
	WordCount int                  `json:"word_count"`
	ImageURL  string               `json:"image_url,omitempty"`
	Status    string               `json:"status"`
	Report    *GradeReportResponse `json:"report,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// EssayListItem is the content-free view used in listings.
type EssayListItem struct {
	ID        uint      `json:"id"`
	Topic     string    `json:"topic"`
	Level     string    `json:"level"`
	WordCount int       `json:"word_count"`
	Status    string    `json:"status"`
	Total     *float64  `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// PolishResponse carries the rewritten essay with the coach's change notes.
type PolishResponse struct {
	EssayID  uint     `json:"essay_id"`
	Polished string   `json:"polished"`
	Notes    []string `json:"notes"`
}

// NewGradeReportResponse converts a GradeReport model into a DTO.
func NewGradeReportResponse(model models.GradeReport) GradeReportResponse {
	response := GradeReportResponse{
		Content:      model.Content,
		Organization: model.Organization,
		Proficiency:  model.Proficiency,
		Clarity:      model.Clarity,
		Total:        model.Total,
		Summary:      model.Summary,
		Polished:     model.Polished,
		Model:        model.Model,
		CreatedAt:    model.CreatedAt,
		Issues:       []IssueResponse{},
		Suggestions:  []string{},
	}
	if len(model.Issues) > 0 {
		_ = json.Unmarshal(model.Issues, &response.Issues)
	}
	if len(model.Suggestions) > 0 {
		_ = json.Unmarshal(model.Suggestions, &response.Suggestions)
	}
	return response
}

// NewEssayResponse converts an Essay model into a DTO.
func NewEssayResponse(model models.Essay) EssayResponse {
	response := EssayResponse{
		ID:        model.ID,
		StudentID: model.StudentID,
		TopicID:   model.TopicID,
		Topic:     model.Topic,
		Level:     model.Level,
		Content:   model.Content,
		WordCount: model.WordCount,
		ImageURL:  model.ImageURL,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.Report != nil {
		report := NewGradeReportResponse(*model.Report)
		response.Report = &report
	}
	return response
}

// NewEssayListItem converts an Essay model into its listing view.
func NewEssayListItem(model models.Essay) EssayListItem {
	item := EssayListItem{
		ID:        model.ID,
		Topic:     model.Topic,
		Level:     model.Level,
		WordCount: model.WordCount,
		Status:    model.Status,
		CreatedAt: model.CreatedAt,
	}
	if model.Report != nil {
		total := model.Report.Total
		item.Total = &total
	}
	return item
}
