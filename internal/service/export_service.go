package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

const exportSheetName = "Students"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SectionExport is a generated workbook ready to be downloaded.
type SectionExport struct {
	Filename string
	Content  []byte
	Rows     int
}

// ExportService renders section results as spreadsheets.
type ExportService interface {
	ExportSection(ctx context.Context, scope *RequestScope, section string) (SectionExport, error)
}

type exportService struct {
	students repository.AdminStudentRepository
	entries  repository.FitnessTestRepository
	activity ActivityRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(students repository.AdminStudentRepository, entries repository.FitnessTestRepository, activity ActivityRecorder, logger zerolog.Logger) ExportService {
	return &exportService{
		students: students,
		entries:  entries,
		activity: activity,
		logger:   logger.With().Str("component", "export_service").Logger(),
		now:      time.Now,
	}
}

// ExportSection writes one row per student with the latest valid pre and post metrics.
func (s *exportService) ExportSection(ctx context.Context, scope *RequestScope, section string) (SectionExport, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return SectionExport{}, ErrSectionRequired
	}

	students, err := s.students.ListBySection(ctx, section)
	if err != nil {
		return SectionExport{}, err
	}
	entries, err := s.entries.ListValidBySection(ctx, section)
	if err != nil {
		return SectionExport{}, err
	}

	latest := latestByStudent(entries)

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := file.SetSheetName(file.GetSheetName(0), exportSheetName); err != nil {
		return SectionExport{}, err
	}
	if err := file.SetSheetRow(exportSheetName, "A1", exportHeader()); err != nil {
		return SectionExport{}, err
	}

	for i, student := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return SectionExport{}, err
		}
		row := exportRow(student, latest[models.TestTypePre][student.ID], latest[models.TestTypePost][student.ID])
		if err := file.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return SectionExport{}, err
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return SectionExport{}, err
	}

	if s.activity != nil {
		actor := scope.Actor()
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "section.exported",
			EntityType: "section",
			Metadata:   map[string]interface{}{"section": section, "rows": len(students)},
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record activity")
		}
	}

	filename := fmt.Sprintf("fitness-%s-%s.xlsx",
		unsafeFilenameChars.ReplaceAllString(section, "_"),
		s.now().UTC().Format("20060102"))

	return SectionExport{Filename: filename, Content: buffer.Bytes(), Rows: len(students)}, nil
}

// latestByStudent picks the first entry per student and test type. entries
// arrive newest-first, so that is the latest one.
func latestByStudent(entries []models.FitnessTestEntry) map[string]map[uint]*models.FitnessTestEntry {
	latest := map[string]map[uint]*models.FitnessTestEntry{
		models.TestTypePre:  {},
		models.TestTypePost: {},
	}
	for i := range entries {
		entry := &entries[i]
		byStudent, ok := latest[entry.TestType]
		if !ok {
			continue
		}
		if _, seen := byStudent[entry.StudentID]; !seen {
			byStudent[entry.StudentID] = entry
		}
	}
	return latest
}

func exportHeader() *[]interface{} {
	header := []interface{}{"Full name", "Username", "Age", "Last update"}
	for _, prefix := range []string{"Pre", "Post"} {
		for _, metric := range fitness.AllMetrics {
			header = append(header, prefix+" "+metric.Label())
		}
	}
	return &header
}

func exportRow(student models.StudentProfile, pre, post *models.FitnessTestEntry) []interface{} {
	lastUpdate := ""
	if student.LastUpdate != nil {
		lastUpdate = student.LastUpdate.UTC().Format(time.RFC3339)
	}

	row := []interface{}{student.FullName, student.User.Username, student.Age, lastUpdate}
	for _, entry := range []*models.FitnessTestEntry{pre, post} {
		for _, metric := range fitness.AllMetrics {
			if entry == nil {
				row = append(row, "")
				continue
			}
			value, _ := entry.Metrics().Get(metric).Float64()
			row = append(row, value)
		}
	}
	return row
}
