package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

// RemarkService lets administrators annotate a student's record.
type RemarkService interface {
	Add(ctx context.Context, scope *RequestScope, studentID uint, payload dto.RemarkCreateRequest) (dto.RemarkResponse, error)
}

type remarkService struct {
	remarks   repository.RemarkRepository
	students  repository.StudentRepository
	entries   repository.FitnessTestRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewRemarkService constructs the remark service.
func NewRemarkService(remarks repository.RemarkRepository, students repository.StudentRepository, entries repository.FitnessTestRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) RemarkService {
	return &remarkService{
		remarks:   remarks,
		students:  students,
		entries:   entries,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "remark_service").Logger(),
	}
}

func (s *remarkService) Add(ctx context.Context, scope *RequestScope, studentID uint, payload dto.RemarkCreateRequest) (dto.RemarkResponse, error) {
	payload.Text = strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.RemarkResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RemarkResponse{}, ErrAdminStudentNotFound
		}
		return dto.RemarkResponse{}, err
	}

	if payload.FitnessTestID != nil {
		ok, err := s.entries.ExistsForStudent(ctx, *payload.FitnessTestID, studentID)
		if err != nil {
			return dto.RemarkResponse{}, err
		}
		if !ok {
			return dto.RemarkResponse{}, NewValidationError(map[string]string{
				"fitness_test_id": "Select a test entry of this student.",
			})
		}
	}

	remark := models.Remark{
		StudentID:     studentID,
		FitnessTestID: payload.FitnessTestID,
		Text:          payload.Text,
	}
	actor := scope.Actor()
	if actor.Role == RoleAdmin && actor.ID > 0 {
		authorID := actor.ID
		remark.AuthorID = &authorID
	}

	if err := s.remarks.Create(ctx, &remark); err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to store remark")
		return dto.RemarkResponse{}, err
	}

	if s.activity != nil {
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "remark.created",
			EntityType: "student",
			EntityID:   &studentID,
			Metadata:   map[string]interface{}{"remark_id": remark.ID},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record activity")
		}
	}

	scope.AddMessage("Remark added.")

	// Author name is resolved on read; reload so the response matches listings.
	remarks, err := s.remarks.ListByStudent(ctx, studentID)
	if err == nil {
		for _, stored := range remarks {
			if stored.ID == remark.ID {
				return dto.NewRemarkResponse(stored), nil
			}
		}
	}

	return dto.NewRemarkResponse(remark), nil
}
