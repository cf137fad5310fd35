package models

import "time"

// Topic is a writing prompt from the question bank.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null;uniqueIndex" json:"title"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Level     string    `gorm:"size:16;not null;index" json:"level"`
	Category  string    `gorm:"size:64;index" json:"category"`
	Source    string    `gorm:"size:255" json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// LevelCET4 marks material aimed at the College English Test band 4.
	LevelCET4 = "cet4"
	// LevelCET6 marks material aimed at the College English Test band 6.
	LevelCET6 = "cet6"
)

// ValidLevel reports whether level is one of the supported exam bands.
func ValidLevel(level string) bool {
	return level == LevelCET4 || level == LevelCET6
}
