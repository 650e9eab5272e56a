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

// ErrAdminStudentNotFound indicates the student was not found for admin operations.
var ErrAdminStudentNotFound = errors.New("admin student not found")

// AdminStudentService orchestrates admin student management use cases.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.AdminStudentDetailResponse, error)
	Update(ctx context.Context, scope *RequestScope, id uint, payload dto.AdminStudentUpdateRequest) (dto.StudentProfileResponse, error)
	Delete(ctx context.Context, scope *RequestScope, id uint) error
}

type adminStudentService struct {
	repo      repository.AdminStudentRepository
	entries   FitnessTestService
	remarks   repository.RemarkRepository
	analytics ClassAnalyticsService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAdminStudentService constructs the admin student service. analytics and
// activity may be nil.
func NewAdminStudentService(repo repository.AdminStudentRepository, entries FitnessTestService, remarks repository.RemarkRepository, analytics ClassAnalyticsService, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AdminStudentService {
	return &adminStudentService{
		repo:      repo,
		entries:   entries,
		remarks:   remarks,
		analytics: analytics,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "admin_student_service").Logger(),
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	filter := repository.AdminStudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Section:  strings.TrimSpace(req.Section),
		Sort:     strings.ToLower(strings.TrimSpace(req.Sort)),
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	responses := make([]dto.StudentProfileResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentProfileResponse(student))
	}

	return dto.AdminStudentListResponse{Items: responses, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func (s *adminStudentService) Get(ctx context.Context, id uint) (dto.AdminStudentDetailResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentDetailResponse{}, ErrAdminStudentNotFound
		}
		return dto.AdminStudentDetailResponse{}, err
	}

	entries, err := s.entries.ListValidEntries(ctx, student.ID, "")
	if err != nil {
		return dto.AdminStudentDetailResponse{}, err
	}

	remarks, err := s.remarks.ListByStudent(ctx, student.ID)
	if err != nil {
		return dto.AdminStudentDetailResponse{}, err
	}

	response := dto.AdminStudentDetailResponse{
		Student: dto.NewStudentProfileResponse(student),
		Entries: dto.NewFitnessEntryResponses(entries),
		Remarks: dto.NewRemarkResponses(remarks),
	}
	// entries are newest-first, so the first of each type is the latest.
	for i := range entries {
		entry := entries[i]
		switch {
		case entry.TestType == models.TestTypePre && response.LatestPre == nil:
			response.LatestPre = dto.NewFitnessEntryResponsePtr(&entry)
		case entry.TestType == models.TestTypePost && response.LatestPost == nil:
			response.LatestPost = dto.NewFitnessEntryResponsePtr(&entry)
		}
	}

	return response, nil
}

func (s *adminStudentService) Update(ctx context.Context, scope *RequestScope, id uint, payload dto.AdminStudentUpdateRequest) (dto.StudentProfileResponse, error) {
	if payload.FullName != nil {
		cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*payload.FullName))
		payload.FullName = &cleaned
	}
	if payload.Section != nil {
		cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Section))
		payload.Section = &cleaned
	}
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.StudentProfileResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrAdminStudentNotFound
		}
		return dto.StudentProfileResponse{}, err
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)

	if payload.FullName != nil {
		updates["full_name"] = *payload.FullName
		changedFields = append(changedFields, "full_name")
	}
	if payload.Age != nil {
		updates["age"] = uint(*payload.Age)
		changedFields = append(changedFields, "age")
	}
	if payload.Section != nil {
		updates["section"] = *payload.Section
		changedFields = append(changedFields, "section")
	}

	if len(updates) == 0 {
		return dto.NewStudentProfileResponse(current), nil
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrAdminStudentNotFound
		}
		return dto.StudentProfileResponse{}, err
	}

	s.invalidateSections(ctx, current.Section, student.Section)
	s.record(ctx, scope, "student.updated", id, map[string]interface{}{
		"student_id": id,
		"fields":     changedFields,
	})

	return dto.NewStudentProfileResponse(student), nil
}

func (s *adminStudentService) Delete(ctx context.Context, scope *RequestScope, id uint) error {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminStudentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminStudentNotFound
		}
		return err
	}

	s.invalidateSections(ctx, student.Section)
	s.record(ctx, scope, "student.deleted", id, map[string]interface{}{
		"student_id": id,
		"username":   student.User.Username,
		"section":    student.Section,
	})

	return nil
}

func (s *adminStudentService) invalidateSections(ctx context.Context, sections ...string) {
	if s.analytics == nil {
		return
	}
	for _, section := range sections {
		s.analytics.Invalidate(ctx, section)
	}
}

func (s *adminStudentService) record(ctx context.Context, scope *RequestScope, action string, id uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	actor := scope.Actor()
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}
