package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/observability"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

// ErrInvalidTestType indicates a test type other than pre or post.
var ErrInvalidTestType = errors.New("test type must be pre or post")

// Messages added to the request scope after a successful submission.
const (
	MessagePreTestSaved  = "Pre-test data saved successfully."
	MessagePostTestSaved = "New post-test entry saved successfully."
)

// FitnessTestService reads and records a student's fitness test entries.
type FitnessTestService interface {
	LatestValidEntry(ctx context.Context, studentID uint, testType string) (*models.FitnessTestEntry, error)
	ListValidEntries(ctx context.Context, studentID uint, testType string) ([]models.FitnessTestEntry, error)
	SubmitEntry(ctx context.Context, scope *RequestScope, student models.StudentProfile, testType string, payload dto.TestEntryRequest) (models.FitnessTestEntry, error)
	EntryForm(ctx context.Context, studentID uint, req dto.EntryFormRequest) (dto.EntryFormResponse, error)
}

type fitnessTestService struct {
	repo      repository.FitnessTestRepository
	events    EntryEventBus
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewFitnessTestService constructs the fitness test service. events may be nil.
func NewFitnessTestService(repo repository.FitnessTestRepository, events EntryEventBus, validate *validator.Validate, logger zerolog.Logger) FitnessTestService {
	return &fitnessTestService{
		repo:      repo,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "fitness_test_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/fitness-tracker-api/internal/service/fitness_test"),
		now:       time.Now,
	}
}

func (s *fitnessTestService) LatestValidEntry(ctx context.Context, studentID uint, testType string) (*models.FitnessTestEntry, error) {
	if !models.IsValidTestType(testType) {
		return nil, ErrInvalidTestType
	}

	ctx, span := s.tracer.Start(ctx, "fitness.latest_valid_entry", trace.WithAttributes(
		attribute.Int64("fitness.student_id", int64(studentID)),
		attribute.String("fitness.test_type", testType),
	))
	defer span.End()

	entry, err := s.repo.LatestValid(ctx, studentID, testType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "latest_valid_failed")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("fitness.found", entry != nil))

	return entry, nil
}

func (s *fitnessTestService) ListValidEntries(ctx context.Context, studentID uint, testType string) ([]models.FitnessTestEntry, error) {
	if testType != "" && !models.IsValidTestType(testType) {
		return nil, ErrInvalidTestType
	}

	ctx, span := s.tracer.Start(ctx, "fitness.list_valid_entries", trace.WithAttributes(
		attribute.Int64("fitness.student_id", int64(studentID)),
		attribute.String("fitness.test_type", testType),
	))
	defer span.End()

	entries, err := s.repo.ListValid(ctx, studentID, testType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_valid_failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("fitness.entry_count", len(entries)))

	return entries, nil
}

// SubmitEntry validates the payload, derives the body-mass-index and stores a
// new entry. Any failure leaves storage untouched.
func (s *fitnessTestService) SubmitEntry(ctx context.Context, scope *RequestScope, student models.StudentProfile, testType string, payload dto.TestEntryRequest) (models.FitnessTestEntry, error) {
	if !models.IsValidTestType(testType) {
		return models.FitnessTestEntry{}, ErrInvalidTestType
	}

	fields, err := s.validateEntry(payload)
	if err != nil {
		return models.FitnessTestEntry{}, err
	}

	bmi, err := fitness.ComputeBMI(*payload.HeightCM, *payload.WeightKG)
	if err != nil {
		if errors.Is(err, fitness.ErrNonPositiveHeight) {
			fields.Add("height_cm", "Height must be greater than zero.")
		} else {
			fields.Add(NonFieldErrorsKey, "Unable to calculate BMI from the provided values.")
		}
		return models.FitnessTestEntry{}, fields
	}

	ctx, span := s.tracer.Start(ctx, "fitness.submit_entry", trace.WithAttributes(
		attribute.Int64("fitness.student_id", int64(student.ID)),
		attribute.String("fitness.test_type", testType),
	))
	defer span.End()

	now := s.now().UTC()
	entry := models.FitnessTestEntry{
		StudentID:   student.ID,
		TestType:    testType,
		BMI:         bmi,
		VO2Max:      *payload.VO2Max,
		Flexibility: *payload.Flexibility,
		Strength:    *payload.Strength,
		Agility:     *payload.Agility,
		Speed:       *payload.Speed,
		Endurance:   *payload.Endurance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_entry_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			return models.FitnessTestEntry{}, ErrStudentNotFound
		}
		s.logger.Error().Err(err).Uint("student_id", student.ID).Str("test_type", testType).Msg("failed to store fitness entry")
		return models.FitnessTestEntry{}, err
	}

	observability.EntriesSubmitted().WithLabelValues(testType).Inc()
	if testType == models.TestTypePre {
		scope.AddMessage(MessagePreTestSaved)
	} else {
		scope.AddMessage(MessagePostTestSaved)
	}

	if s.events != nil {
		s.events.Publish(ctx, EntrySubmittedEvent{
			EntryID:     entry.ID,
			StudentID:   student.ID,
			Section:     student.Section,
			TestType:    testType,
			SubmittedAt: now,
		})
	}

	s.logger.Info().
		Uint("student_id", student.ID).
		Uint("entry_id", entry.ID).
		Str("test_type", testType).
		Msg("fitness entry stored")

	return entry, nil
}

// validateEntry returns an empty ValidationError when the payload is
// acceptable so BMI failures can be added to it.
func (s *fitnessTestService) validateEntry(payload dto.TestEntryRequest) (*ValidationError, error) {
	fields := NewValidationError(nil)
	for name, message := range payload.Malformed {
		fields.Add(name, message)
	}
	if err := validateStruct(s.validator, payload); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		for name, message := range verr.Fields {
			fields.Add(name, message)
		}
	}

	values := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"height_cm", payload.HeightCM},
		{"weight_kg", payload.WeightKG},
		{"vo2_max", payload.VO2Max},
		{"flexibility", payload.Flexibility},
		{"strength", payload.Strength},
		{"agility", payload.Agility},
		{"speed", payload.Speed},
		{"endurance", payload.Endurance},
	}
	for _, item := range values {
		if item.value == nil {
			continue
		}
		switch err := fitness.CheckPrecision(*item.value); {
		case errors.Is(err, fitness.ErrTooManyDecimalPlaces):
			fields.Add(item.name, "Ensure that there are no more than 2 decimal places.")
		case errors.Is(err, fitness.ErrTooManyDigits):
			fields.Add(item.name, "Ensure that there are no more than 5 digits in total.")
		}
	}

	if fields.HasErrors() {
		return nil, fields
	}
	return fields, nil
}

func (s *fitnessTestService) EntryForm(ctx context.Context, studentID uint, req dto.EntryFormRequest) (dto.EntryFormResponse, error) {
	newPost := req.New == models.TestTypePost
	response := dto.EntryFormResponse{ActiveTab: models.TestTypePre, NewPost: newPost}
	if req.Tab == models.TestTypePost || newPost {
		response.ActiveTab = models.TestTypePost
	}

	pre, err := s.LatestValidEntry(ctx, studentID, models.TestTypePre)
	if err != nil {
		return dto.EntryFormResponse{}, err
	}
	response.PreInitial = dto.NewEntryInitialValues(pre)

	if !newPost {
		post, err := s.LatestValidEntry(ctx, studentID, models.TestTypePost)
		if err != nil {
			return dto.EntryFormResponse{}, err
		}
		response.PostInitial = dto.NewEntryInitialValues(post)
	}

	return response, nil
}
