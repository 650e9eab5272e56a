package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

// ProgressService assembles a student's pre/post comparison.
type ProgressService interface {
	Progress(ctx context.Context, student models.StudentProfile) (dto.ProgressResponse, error)
}

type progressService struct {
	entries     FitnessTestService
	remarks     repository.RemarkRepository
	chartHeight int
	logger      zerolog.Logger
}

// NewProgressService constructs the progress service.
func NewProgressService(entries FitnessTestService, remarks repository.RemarkRepository, chartHeight int, logger zerolog.Logger) ProgressService {
	if chartHeight <= 0 {
		chartHeight = fitness.DefaultChartHeight
	}
	return &progressService{
		entries:     entries,
		remarks:     remarks,
		chartHeight: chartHeight,
		logger:      logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) Progress(ctx context.Context, student models.StudentProfile) (dto.ProgressResponse, error) {
	pre, err := s.entries.LatestValidEntry(ctx, student.ID, models.TestTypePre)
	if err != nil {
		return dto.ProgressResponse{}, err
	}
	post, err := s.entries.LatestValidEntry(ctx, student.ID, models.TestTypePost)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	remarks, err := s.remarks.ListByStudent(ctx, student.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("failed to load remarks")
		return dto.ProgressResponse{}, err
	}

	preSet := metricSetOf(pre)
	postSet := metricSetOf(post)

	return dto.ProgressResponse{
		Student:     dto.NewStudentProfileResponse(student),
		LatestPre:   dto.NewFitnessEntryResponsePtr(pre),
		LatestPost:  dto.NewFitnessEntryResponsePtr(post),
		Comparisons: dto.NewMetricComparisons(preSet, postSet),
		Chart:       dto.NewChartResponse(s.chartHeight, fitness.ComparisonBars(preSet, postSet, s.chartHeight), preSet, postSet),
		Remarks:     dto.NewRemarkResponses(remarks),
	}, nil
}

func metricSetOf(entry *models.FitnessTestEntry) *fitness.MetricSet {
	if entry == nil {
		return nil
	}
	set := entry.Metrics()
	return &set
}
