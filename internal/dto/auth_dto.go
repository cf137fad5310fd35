package dto

import (
	"time"

	"github.com/cmx-713/adaptive-english-writing/internal/models"
)

// SignInRequest is the quick sign-in payload. There is no password: a name
// plus student number identifies the account, creating it on first use.
// TeacherCode, when it matches the configured value, grants the teacher role.
type SignInRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	StudentNo   string `json:"student_no" validate:"required,alphanum,min=4,max=32"`
	TeacherCode string `json:"teacher_code" validate:"omitempty,max=64"`
}

// SignInResponse carries the bearer token and the signed-in profile.
type SignInResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Student   StudentResponse `json:"student"`
}

// StudentResponse is the public view of an account.
type StudentResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StudentNo string    `json:"student_no"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStudentResponse converts a Student model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:        model.ID,
		Name:      model.Name,
		StudentNo: model.StudentNo,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}
