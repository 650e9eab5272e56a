package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AdminStudentListRequest defines filters for listing students.
type AdminStudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Section  string
	Sort     string
}

// AdminStudentListResponse wraps a paginated student response.
type AdminStudentListResponse struct {
	Items      []StudentProfileResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}

// AdminStudentDetailResponse shows a student with latest entries and remarks.
type AdminStudentDetailResponse struct {
	Student    StudentProfileResponse `json:"student"`
	LatestPre  *FitnessEntryResponse  `json:"latest_pre"`
	LatestPost *FitnessEntryResponse  `json:"latest_post"`
	Entries    []FitnessEntryResponse `json:"entries"`
	Remarks    []RemarkResponse       `json:"remarks"`
}

// AdminStudentUpdateRequest captures partial update payloads for students.
type AdminStudentUpdateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Age      *int    `json:"age" validate:"omitempty,gte=1"`
	Section  *string `json:"section" validate:"omitempty,min=1,max=50"`
}

// AdminLoginResponse is returned after a successful admin login.
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	Username  string    `json:"username"`
}

// RemarkCreateRequest adds a remark to a student's record.
type RemarkCreateRequest struct {
	Text          string `json:"text" validate:"required,max=2000"`
	FitnessTestID *uint  `json:"fitness_test_id"`
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}
