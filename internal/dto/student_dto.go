package dto

import (
	"time"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// SignupRequest registers a student account and profile.
type SignupRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Age      int    `json:"age" validate:"required,gte=1"`
	Section  string `json:"section" validate:"required,max=50"`
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest carries student or admin credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful signup or login.
type AuthResponse struct {
	Token     string                  `json:"token"`
	ExpiresAt time.Time               `json:"expires_at"`
	Role      string                  `json:"role"`
	Student   *StudentProfileResponse `json:"student,omitempty"`
}

// StudentProfileResponse serializes a student profile.
type StudentProfileResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	FullName   string     `json:"full_name"`
	Age        uint       `json:"age"`
	Section    string     `json:"section"`
	LastUpdate *time.Time `json:"last_update"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewStudentProfileResponse converts a profile model into a DTO.
func NewStudentProfileResponse(profile models.StudentProfile) StudentProfileResponse {
	return StudentProfileResponse{
		ID:         profile.ID,
		Username:   profile.User.Username,
		FullName:   profile.FullName,
		Age:        profile.Age,
		Section:    profile.Section,
		LastUpdate: profile.LastUpdate,
		CreatedAt:  profile.CreatedAt,
	}
}
