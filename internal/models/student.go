package models

import "time"

// StudentProfile stores the fitness-tracking details of a registered student.
// Authentication lives on the owning User.
type StudentProfile struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName   string     `gorm:"size:100;not null" json:"full_name"`
	Age        uint       `gorm:"not null" json:"age"`
	Section    string     `gorm:"size:50;not null;index" json:"section"`
	LastUpdate *time.Time `json:"last_update"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// DisplayName renders the profile the way it appears in admin listings.
func (p StudentProfile) DisplayName() string {
	return p.FullName + " (" + p.Section + ")"
}
