package dto

import (
	"time"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// TopicFilter describes query string filters for listing topics.
type TopicFilter struct {
	Level    *string `query:"level" validate:"omitempty,oneof=cet4 cet6"`
	Category *string `query:"category" validate:"omitempty,max=64"`
}

// TopicCreateRequest is used by teachers to add a prompt to the bank.
type TopicCreateRequest struct {
	Title    string `json:"title" validate:"required,min=4,max=255"`
	Prompt   string `json:"prompt" validate:"required,min=10"`
	Level    string `json:"level" validate:"required,oneof=cet4 cet6"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

// TopicResponse is returned to API clients when viewing topics.
type TopicResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTopicResponse converts a Topic model into a DTO.
func NewTopicResponse(model models.Topic) TopicResponse {
	return TopicResponse{
		ID:        model.ID,
		Title:     model.Title,
		Prompt:    model.Prompt,
		Level:     model.Level,
		Category:  model.Category,
		Source:    model.Source,
		CreatedAt: model.CreatedAt,
	}
}
