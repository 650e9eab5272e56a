package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
)

const (
	// TestTypePre marks a pre-test entry.
	TestTypePre = "pre"
	// TestTypePost marks a post-test entry.
	TestTypePost = "post"
)

// IsValidTestType reports whether the tag is one of the known test types.
func IsValidTestType(testType string) bool {
	return testType == TestTypePre || testType == TestTypePost
}

// TestTypeLabel returns the display label for a test type tag.
func TestTypeLabel(testType string) string {
	switch testType {
	case TestTypePre:
		return "Pre-test"
	case TestTypePost:
		return "Post-test"
	default:
		return testType
	}
}

// FitnessTestEntry is one submitted pre- or post-test. Rows are append-only;
// resubmitting creates a new entry.
type FitnessTestEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	StudentID   uint            `gorm:"not null;index:idx_fitness_entries_student_type" json:"student_id"`
	TestType    string          `gorm:"size:4;not null;index:idx_fitness_entries_student_type" json:"test_type"`
	BMI         decimal.Decimal `gorm:"column:bmi;type:decimal(5,2);not null" json:"bmi"`
	VO2Max      decimal.Decimal `gorm:"column:vo2_max;type:decimal(5,2);not null" json:"vo2_max"`
	Flexibility decimal.Decimal `gorm:"column:flexibility;type:decimal(5,2);not null" json:"flexibility"`
	Strength    decimal.Decimal `gorm:"column:strength;type:decimal(5,2);not null" json:"strength"`
	Agility     decimal.Decimal `gorm:"column:agility;type:decimal(5,2);not null" json:"agility"`
	Speed       decimal.Decimal `gorm:"column:speed;type:decimal(5,2);not null" json:"speed"`
	Endurance   decimal.Decimal `gorm:"column:endurance;type:decimal(5,2);not null" json:"endurance"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Student     StudentProfile  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BeforeCreate stores timestamps in UTC. SQLite orders them as text, so
// mixed offsets would break newest-first reads.
func (e *FitnessTestEntry) BeforeCreate(*gorm.DB) error {
	e.CreatedAt = utcOrNow(e.CreatedAt)
	e.UpdatedAt = utcOrNow(e.UpdatedAt)
	return nil
}

// Metrics returns the entry's metrics in column order.
func (e FitnessTestEntry) Metrics() fitness.MetricSet {
	return fitness.MetricSet{e.BMI, e.VO2Max, e.Flexibility, e.Strength, e.Agility, e.Speed, e.Endurance}
}

// SetMetrics copies a metric set onto the entry.
func (e *FitnessTestEntry) SetMetrics(set fitness.MetricSet) {
	e.BMI = set[0]
	e.VO2Max = set[1]
	e.Flexibility = set[2]
	e.Strength = set[3]
	e.Agility = set[4]
	e.Speed = set[5]
	e.Endurance = set[6]
}

func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
