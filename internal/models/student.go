package models

import "time"

// Student represents a learner practising for the CET writing section.
// Sign-in is by name and student number; no password is involved.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	StudentNo string    `gorm:"size:64;uniqueIndex;not null" json:"student_no"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// RoleStudent is the default role for everyone who signs in.
	RoleStudent = "student"
	// RoleTeacher unlocks the class-wide dashboard and activity feed.
	RoleTeacher = "teacher"
)

// IsTeacher reports whether the account may access teacher endpoints.
func (s Student) IsTeacher() bool {
	return s.Role == RoleTeacher
}
