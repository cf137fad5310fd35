package dto

import (
	"encoding/json"
	"time"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// DrillGenerateRequest asks for a new exercise set. EssayID targets the
// weakest dimension of that essay's report; Focus picks a dimension
// directly. At least one must be given.
type DrillGenerateRequest struct {
	EssayID *uint  `json:"essay_id" validate:"omitempty,gt=0"`
	Focus   string `json:"focus" validate:"required_without=EssayID,omitempty,oneof=content organization proficiency clarity"`
	Level   string `json:"level" validate:"omitempty,oneof=cet4 cet6"`
}

// DrillSubmitRequest carries the student's answers, one per item in order.
type DrillSubmitRequest struct {
	Answers []string `json:"answers" validate:"required,min=1,max=20,dive,max=2000"`
}

// DrillItemResponse is one exercise. Answer holds the model solution and is
// only revealed once the set has been reviewed.
type DrillItemResponse struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	Hint   string `json:"hint,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// DrillFeedbackResponse is the per-item verdict on a submitted answer.
type DrillFeedbackResponse struct {
	Correct bool   `json:"correct"`
	Comment string `json:"comment"`
}

// DrillSetResponse serializes a drill set. Answers and Feedback are empty
// until the student submits.
type DrillSetResponse struct {
	ID        uint                    `json:"id"`
	EssayID   *uint                   `json:"essay_id"`
	Focus     string                  `json:"focus"`
	Level     string                  `json:"level"`
	Status    string                  `json:"status"`
	Items     []DrillItemResponse     `json:"items"`
	Answers   []string                `json:"answers"`
	Feedback  []DrillFeedbackResponse `json:"feedback"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewDrillSetResponse converts a DrillSet model into a DTO, hiding model
// solutions while the set is still open.
func NewDrillSetResponse(model models.DrillSet) DrillSetResponse {
	response := DrillSetResponse{
		ID:        model.ID,
		EssayID:   model.EssayID,
		Focus:     model.Focus,
		Level:     model.Level,
		Status:    model.Status,
		Items:     []DrillItemResponse{},
		Answers:   []string{},
		Feedback:  []DrillFeedbackResponse{},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if len(model.Items) > 0 {
		_ = json.Unmarshal(model.Items, &response.Items)
	}
	if !model.IsReviewed() {
		for i := range response.Items {
			response.Items[i].Answer = ""
		}
		return response
	}
	if len(model.Answers) > 0 {
		_ = json.Unmarshal(model.Answers, &response.Answers)
	}
	if len(model.Feedback) > 0 {
		_ = json.Unmarshal(model.Feedback, &response.Feedback)
	}
	return response
}
