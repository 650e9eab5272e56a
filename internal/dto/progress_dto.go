package dto

import (
	"time"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// RemarkResponse serializes a remark left on a student's record.
type RemarkResponse struct {
	ID            uint      `json:"id"`
	Text          string    `json:"text"`
	Author        string    `json:"author"`
	FitnessTestID *uint     `json:"fitness_test_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewRemarkResponse converts a remark model into a DTO.
func NewRemarkResponse(remark models.Remark) RemarkResponse {
	return RemarkResponse{
		ID:            remark.ID,
		Text:          remark.Text,
		Author:        remark.AuthorName(),
		FitnessTestID: remark.FitnessTestID,
		CreatedAt:     remark.CreatedAt,
	}
}

// NewRemarkResponses converts a list of remarks.
func NewRemarkResponses(remarks []models.Remark) []RemarkResponse {
	responses := make([]RemarkResponse, 0, len(remarks))
	for _, remark := range remarks {
		responses = append(responses, NewRemarkResponse(remark))
	}
	return responses
}

// ProgressResponse aggregates a student's personal progress.
type ProgressResponse struct {
	Student     StudentProfileResponse `json:"student"`
	LatestPre   *FitnessEntryResponse  `json:"latest_pre"`
	LatestPost  *FitnessEntryResponse  `json:"latest_post"`
	Comparisons []MetricComparison     `json:"comparisons"`
	Chart       ChartResponse          `json:"chart"`
	Remarks     []RemarkResponse       `json:"remarks"`
}
