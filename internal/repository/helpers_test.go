package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, username, name, section string) models.StudentProfile {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)
	profile := models.StudentProfile{UserID: user.ID, FullName: name, Age: 15, Section: section}
	require.NoError(t, db.Omit("User").Create(&profile).Error)
	return profile
}

func createEntry(t *testing.T, db *gorm.DB, studentID uint, testType string, bmi string, createdAt time.Time) models.FitnessTestEntry {
	t.Helper()
	entry := models.FitnessTestEntry{
		StudentID:   studentID,
		TestType:    testType,
		BMI:         decimal.RequireFromString(bmi),
		VO2Max:      decimal.RequireFromString("40.5"),
		Flexibility: decimal.RequireFromString("30"),
		Strength:    decimal.RequireFromString("25"),
		Agility:     decimal.RequireFromString("12.1"),
		Speed:       decimal.RequireFromString("7.25"),
		Endurance:   decimal.RequireFromString("15"),
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
	require.NoError(t, db.Omit("Student").Create(&entry).Error)
	return entry
}

func validMetricSet(bmi string) fitness.MetricSet {
	return fitness.MetricSet{
		decimal.RequireFromString(bmi),
		decimal.RequireFromString("40.5"),
		decimal.RequireFromString("30"),
		decimal.RequireFromString("25"),
		decimal.RequireFromString("12.1"),
		decimal.RequireFromString("7.25"),
		decimal.RequireFromString("15"),
	}
}

func corruptEntry(t *testing.T, db *gorm.DB, id uint, column, value string) {
	t.Helper()
	require.NoError(t, db.Exec("UPDATE fitness_test_entries SET "+column+" = ? WHERE id = ?", value, id).Error)
}
