package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, username, section string) models.StudentProfile {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, db.Create(&user).Error)
	profile := models.StudentProfile{UserID: user.ID, FullName: strings.ToUpper(username[:1]) + username[1:], Age: 16, Section: section}
	require.NoError(t, db.Omit("User").Create(&profile).Error)
	profile.User = user
	return profile
}

func seedEntry(t *testing.T, db *gorm.DB, studentID uint, testType string, values [7]string, createdAt time.Time) models.FitnessTestEntry {
	t.Helper()
	var set [7]decimal.Decimal
	for i, value := range values {
		set[i] = decimal.RequireFromString(value)
	}
	entry := models.FitnessTestEntry{StudentID: studentID, TestType: testType, CreatedAt: createdAt.UTC(), UpdatedAt: createdAt.UTC()}
	entry.SetMetrics(set)
	require.NoError(t, db.Omit("Student").Create(&entry).Error)
	return entry
}

func dec(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func validEntryRequest() dto.TestEntryRequest {
	return dto.TestEntryRequest{
		HeightCM:    dec("170"),
		WeightKG:    dec("70"),
		VO2Max:      dec("42.5"),
		Flexibility: dec("31"),
		Strength:    dec("20"),
		Agility:     dec("11.2"),
		Speed:       dec("6.8"),
		Endurance:   dec("18"),
	}
}

type recordingBus struct {
	mu     sync.Mutex
	events []EntrySubmittedEvent
}

func (b *recordingBus) Publish(_ context.Context, event EntrySubmittedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) Subscribe(EntryEventHandler) {}

func (b *recordingBus) Start(context.Context) {}

type recordingActivity struct {
	entries []ActivityEntry
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	r.entries = append(r.entries, entry)
	return dto.AdminActivityResponse{Action: entry.Action}, nil
}
