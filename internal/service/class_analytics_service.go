package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/observability"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

// ErrSectionRequired indicates analytics were requested without a section.
var ErrSectionRequired = errors.New("section is required")

const classAnalyticsCachePrefix = "analytics:section:"

// ClassAnalyticsService aggregates the latest valid results of a section.
type ClassAnalyticsService interface {
	SectionSummary(ctx context.Context, section string) (dto.ClassAnalyticsResponse, error)
	Invalidate(ctx context.Context, section string)
}

type classAnalyticsService struct {
	students    repository.AdminStudentRepository
	entries     repository.FitnessTestRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	chartHeight int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewClassAnalyticsService constructs the analytics service. A nil cache
// disables caching.
func NewClassAnalyticsService(students repository.AdminStudentRepository, entries repository.FitnessTestRepository, cache *redis.Client, ttl time.Duration, chartHeight int, logger zerolog.Logger) ClassAnalyticsService {
	if chartHeight <= 0 {
		chartHeight = fitness.DefaultChartHeight
	}
	return &classAnalyticsService{
		students:    students,
		entries:     entries,
		cache:       cache,
		cacheTTL:    ttl,
		chartHeight: chartHeight,
		logger:      logger.With().Str("component", "class_analytics_service").Logger(),
		now:         time.Now,
	}
}

// InvalidateOnSubmit drops the cached summary of the section an entry belongs to.
func InvalidateOnSubmit(analytics ClassAnalyticsService) EntryEventHandler {
	return func(ctx context.Context, event EntrySubmittedEvent) {
		analytics.Invalidate(ctx, event.Section)
	}
}

func (s *classAnalyticsService) SectionSummary(ctx context.Context, section string) (dto.ClassAnalyticsResponse, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return dto.ClassAnalyticsResponse{}, ErrSectionRequired
	}

	cacheKey := classAnalyticsCachePrefix + section
	tracer := otel.Tracer("github.com/noah-isme/fitness-tracker-api/internal/service/class_analytics")
	ctx, span := tracer.Start(ctx, "analytics.section_summary")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.ClassAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				observability.AnalyticsCache().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
		observability.AnalyticsCache().WithLabelValues("miss").Inc()
	}

	students, err := s.students.ListBySection(ctx, section)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_students_failed")
		return dto.ClassAnalyticsResponse{}, err
	}

	entries, err := s.entries.ListValidBySection(ctx, section)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_entries_failed")
		return dto.ClassAnalyticsResponse{}, err
	}

	summary := s.buildSummary(section, len(students), entries)
	span.SetAttributes(
		attribute.Int("analytics.student_count", summary.StudentCount),
		attribute.Int("analytics.entry_count", len(entries)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func (s *classAnalyticsService) Invalidate(ctx context.Context, section string) {
	if s.cache == nil || strings.TrimSpace(section) == "" {
		return
	}
	if err := s.cache.Del(ctx, classAnalyticsCachePrefix+strings.TrimSpace(section)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("section", section).Msg("failed to invalidate analytics cache")
	}
}

// buildSummary averages each student's latest valid pre and post entry.
func (s *classAnalyticsService) buildSummary(section string, studentCount int, entries []models.FitnessTestEntry) dto.ClassAnalyticsResponse {
	latest := latestByStudent(entries)

	preAvg := averageMetrics(latest[models.TestTypePre])
	postAvg := averageMetrics(latest[models.TestTypePost])

	averages := make([]dto.MetricAverage, 0, fitness.MetricCount)
	for _, metric := range fitness.AllMetrics {
		averages = append(averages, dto.MetricAverage{
			Metric: string(metric),
			Label:  metric.Label(),
			Pre:    dto.MetricFromSet(preAvg, metric),
			Post:   dto.MetricFromSet(postAvg, metric),
		})
	}

	return dto.ClassAnalyticsResponse{
		Section:          section,
		StudentCount:     studentCount,
		StudentsWithPre:  len(latest[models.TestTypePre]),
		StudentsWithPost: len(latest[models.TestTypePost]),
		Averages:         averages,
		Chart:            dto.NewChartResponse(s.chartHeight, fitness.ComparisonBars(preAvg, postAvg, s.chartHeight), preAvg, postAvg),
		GeneratedAt:      s.now().UTC(),
	}
}

func averageMetrics(entries map[uint]*models.FitnessTestEntry) *fitness.MetricSet {
	if len(entries) == 0 {
		return nil
	}

	var sum fitness.MetricSet
	for i := range sum {
		sum[i] = decimal.Zero
	}
	for _, entry := range entries {
		for i, value := range entry.Metrics() {
			sum[i] = sum[i].Add(value)
		}
	}

	count := decimal.NewFromInt(int64(len(entries)))
	var avg fitness.MetricSet
	for i, total := range sum {
		avg[i] = total.Div(count).Round(2)
	}
	return &avg
}
