package models

import (
	"time"

	"gorm.io/gorm"
)

// Remark is a note left on a student's history, optionally tied to one test entry.
type Remark struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	StudentID     uint              `gorm:"not null;index" json:"student_id"`
	FitnessTestID *uint             `gorm:"index" json:"fitness_test_id"`
	AuthorID      *uint             `json:"author_id"`
	Text          string            `gorm:"type:text;not null" json:"text"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	Student       StudentProfile    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	FitnessTest   *FitnessTestEntry `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Author        *AdminAccount     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// BeforeCreate stores the creation time in UTC, like FitnessTestEntry.
func (r *Remark) BeforeCreate(*gorm.DB) error {
	r.CreatedAt = utcOrNow(r.CreatedAt)
	return nil
}

// AuthorName returns the author's username, or "System" once the author is gone.
func (r Remark) AuthorName() string {
	if r.Author != nil && r.Author.Username != "" {
		return r.Author.Username
	}
	return "System"
}
