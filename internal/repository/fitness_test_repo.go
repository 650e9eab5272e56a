package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/observability"
)

const entryColumns = "e.id, e.student_id, e.test_type, e.bmi, e.vo2_max, e.flexibility, e.strength, e.agility, e.speed, e.endurance, e.created_at, e.updated_at"

const entryOrder = "e.created_at DESC, e.id DESC"

// FitnessTestRepository stores fitness test entries. Every read path skips rows
// whose metrics do not parse, so callers only ever see valid entries.
type FitnessTestRepository interface {
	Create(ctx context.Context, entry *models.FitnessTestEntry) error
	LatestValid(ctx context.Context, studentID uint, testType string) (*models.FitnessTestEntry, error)
	ListValid(ctx context.Context, studentID uint, testType string) ([]models.FitnessTestEntry, error)
	ListValidBySection(ctx context.Context, section string) ([]models.FitnessTestEntry, error)
	ExistsForStudent(ctx context.Context, entryID, studentID uint) (bool, error)
}

type fitnessTestRepository struct {
	db *gorm.DB
}

// NewFitnessTestRepository constructs the fitness test repository.
func NewFitnessTestRepository(db *gorm.DB) FitnessTestRepository {
	return &fitnessTestRepository{db: db}
}

// Create inserts a new entry and stamps the owning profile's last update in the same transaction.
func (r *fitnessTestRepository) Create(ctx context.Context, entry *models.FitnessTestEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Student").Create(entry).Error; err != nil {
			return err
		}

		update := tx.Model(&models.StudentProfile{}).
			Where("id = ?", entry.StudentID).
			Update("last_update", entry.CreatedAt)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

// LatestValid returns the newest valid entry, or nil when the student has none.
func (r *fitnessTestRepository) LatestValid(ctx context.Context, studentID uint, testType string) (*models.FitnessTestEntry, error) {
	query := r.entries(ctx).
		Where("e.student_id = ? AND e.test_type = ?", studentID, testType)

	var latest *models.FitnessTestEntry
	err := scanValidEntries(query, func(entry models.FitnessTestEntry) bool {
		latest = &entry
		return false
	})
	if err != nil {
		return nil, err
	}

	return latest, nil
}

// ListValid returns all valid entries for a student newest-first. An empty
// testType lists both pre- and post-test entries.
func (r *fitnessTestRepository) ListValid(ctx context.Context, studentID uint, testType string) ([]models.FitnessTestEntry, error) {
	query := r.entries(ctx).Where("e.student_id = ?", studentID)
	if testType != "" {
		query = query.Where("e.test_type = ?", testType)
	}

	return collectValidEntries(query)
}

// ListValidBySection returns valid entries of every student in a section, newest-first.
func (r *fitnessTestRepository) ListValidBySection(ctx context.Context, section string) ([]models.FitnessTestEntry, error) {
	query := r.entries(ctx).
		Joins("JOIN student_profiles s ON s.id = e.student_id").
		Where("s.section = ?", section)

	return collectValidEntries(query)
}

// ExistsForStudent reports whether the entry exists and belongs to the student,
// regardless of whether its metrics are valid.
func (r *fitnessTestRepository) ExistsForStudent(ctx context.Context, entryID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FitnessTestEntry{}).
		Where("id = ? AND student_id = ?", entryID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *fitnessTestRepository) entries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("fitness_test_entries AS e").
		Select(entryColumns).
		Order(entryOrder)
}

func collectValidEntries(query *gorm.DB) ([]models.FitnessTestEntry, error) {
	entries := make([]models.FitnessTestEntry, 0)
	err := scanValidEntries(query, func(entry models.FitnessTestEntry) bool {
		entries = append(entries, entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// scanValidEntries streams rows in query order, hands every valid entry to
// visit and stops early once visit returns false.
func scanValidEntries(query *gorm.DB, visit func(models.FitnessTestEntry) bool) error {
	rows, err := query.Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry   models.FitnessTestEntry
			columns [fitness.MetricCount]sql.NullString
			created time.Time
			updated time.Time
		)

		dest := []interface{}{&entry.ID, &entry.StudentID, &entry.TestType}
		for i := range columns {
			dest = append(dest, &columns[i])
		}
		dest = append(dest, &created, &updated)

		if err := rows.Scan(dest...); err != nil {
			return err
		}

		metrics, ok := fitness.ParseMetricSet(rawMetrics(columns))
		if !ok {
			observability.CorruptedEntriesSkipped().WithLabelValues(entry.TestType).Inc()
			continue
		}

		entry.SetMetrics(metrics)
		entry.CreatedAt = created
		entry.UpdatedAt = updated

		if !visit(entry) {
			break
		}
	}

	return rows.Err()
}

func rawMetrics(columns [fitness.MetricCount]sql.NullString) fitness.RawMetricSet {
	var raw fitness.RawMetricSet
	for i, column := range columns {
		if column.Valid {
			value := column.String
			raw[i] = &value
		}
	}
	return raw
}
