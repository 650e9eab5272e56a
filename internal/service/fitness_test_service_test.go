package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
)

func newTestFitnessService(t *testing.T, db *gorm.DB, bus EntryEventBus, now time.Time) FitnessTestService {
	t.Helper()
	svc := NewFitnessTestService(repository.NewFitnessTestRepository(db), bus, NewValidator(), testLogger())
	svc.(*fitnessTestService).now = func() time.Time { return now }
	return svc
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.FitnessTestEntry{}).Count(&count).Error)
	return count
}

func TestSubmitEntryDerivesBMIAndStampsProfile(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "ana", "10-A")
	bus := &recordingBus{}
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc := newTestFitnessService(t, db, bus, now)
	scope := NewRequestScope(student.UserID, RoleStudent, "corr-1")

	entry, err := svc.SubmitEntry(context.Background(), scope, student, models.TestTypePre, validEntryRequest())
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.Equal(t, "24.22", entry.BMI.StringFixed(2))
	require.Equal(t, []string{MessagePreTestSaved}, scope.Messages())

	var stored models.StudentProfile
	require.NoError(t, db.First(&stored, student.ID).Error)
	require.NotNil(t, stored.LastUpdate)
	require.True(t, stored.LastUpdate.Equal(now))

	require.Len(t, bus.events, 1)
	require.Equal(t, entry.ID, bus.events[0].EntryID)
	require.Equal(t, "10-A", bus.events[0].Section)
	require.Equal(t, models.TestTypePre, bus.events[0].TestType)
}

func TestSubmitEntryRejectsZeroHeight(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "ben", "10-A")
	svc := newTestFitnessService(t, db, nil, time.Now())
	scope := NewRequestScope(student.UserID, RoleStudent, "")

	payload := validEntryRequest()
	payload.HeightCM = dec("0")

	_, err := svc.SubmitEntry(context.Background(), scope, student, models.TestTypePre, payload)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "height_cm")
	require.Empty(t, scope.Messages())
	require.EqualValues(t, 0, countEntries(t, db))

	var stored models.StudentProfile
	require.NoError(t, db.First(&stored, student.ID).Error)
	require.Nil(t, stored.LastUpdate)
}

func TestSubmitEntryRejectsExcessPrecision(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "cara", "10-A")
	svc := newTestFitnessService(t, db, nil, time.Now())

	payload := validEntryRequest()
	payload.VO2Max = dec("42.555")
	payload.Speed = nil

	_, err := svc.SubmitEntry(context.Background(), nil, student, models.TestTypePost, payload)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Ensure that there are no more than 2 decimal places.", verr.Fields["vo2_max"])
	require.Contains(t, verr.Fields, "speed")
	require.EqualValues(t, 0, countEntries(t, db))
}

func TestSubmitEntryRejectsUndefinedBMI(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "dan", "10-A")
	svc := newTestFitnessService(t, db, nil, time.Now())

	payload := validEntryRequest()
	payload.HeightCM = dec("1")
	payload.WeightKG = dec("999.99")

	_, err := svc.SubmitEntry(context.Background(), nil, student, models.TestTypePre, payload)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "Unable to calculate BMI from the provided values.", verr.Fields[NonFieldErrorsKey])
	require.EqualValues(t, 0, countEntries(t, db))
}

func TestSubmitEntryPostResubmissionAppends(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "eli", "10-B")
	svc := newTestFitnessService(t, db, nil, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	scope := NewRequestScope(student.UserID, RoleStudent, "")

	first, err := svc.SubmitEntry(ctx, scope, student, models.TestTypePost, validEntryRequest())
	require.NoError(t, err)

	svc.(*fitnessTestService).now = func() time.Time { return time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC) }
	payload := validEntryRequest()
	payload.Strength = dec("25")
	second, err := svc.SubmitEntry(ctx, scope, student, models.TestTypePost, payload)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.EqualValues(t, 2, countEntries(t, db))
	require.Equal(t, []string{MessagePostTestSaved, MessagePostTestSaved}, scope.Messages())

	latest, err := svc.LatestValidEntry(ctx, student.ID, models.TestTypePost)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, "25.00", latest.Strength.StringFixed(2))

	entries, err := svc.ListValidEntries(ctx, student.ID, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, second.ID, entries[0].ID)
}

func TestSubmitEntryUnknownStudent(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestFitnessService(t, db, nil, time.Now())

	_, err := svc.SubmitEntry(context.Background(), nil, models.StudentProfile{ID: 404, Section: "X"}, models.TestTypePre, validEntryRequest())
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.EqualValues(t, 0, countEntries(t, db))
}

func TestFitnessServiceRejectsUnknownTestType(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestFitnessService(t, db, nil, time.Now())
	ctx := context.Background()

	_, err := svc.SubmitEntry(ctx, nil, models.StudentProfile{ID: 1}, "mid", validEntryRequest())
	require.ErrorIs(t, err, ErrInvalidTestType)

	_, err = svc.LatestValidEntry(ctx, 1, "")
	require.ErrorIs(t, err, ErrInvalidTestType)

	_, err = svc.ListValidEntries(ctx, 1, "mid")
	require.ErrorIs(t, err, ErrInvalidTestType)
}

func TestEntryFormSelectsTabAndInitialValues(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "fay", "10-A")
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	seedEntry(t, db, student.ID, models.TestTypePre, [7]string{"22.5", "40", "30", "20", "12", "7", "15"}, base)
	seedEntry(t, db, student.ID, models.TestTypePost, [7]string{"22", "44", "32", "24", "11.5", "6.5", "17"}, base.Add(time.Hour))
	svc := newTestFitnessService(t, db, nil, time.Now())
	ctx := context.Background()

	form, err := svc.EntryForm(ctx, student.ID, dto.EntryFormRequest{})
	require.NoError(t, err)
	require.Equal(t, models.TestTypePre, form.ActiveTab)
	require.False(t, form.NewPost)
	require.NotNil(t, form.PreInitial)
	require.Equal(t, "40.00", form.PreInitial.VO2Max)
	require.NotNil(t, form.PostInitial)
	require.Equal(t, "44.00", form.PostInitial.VO2Max)

	form, err = svc.EntryForm(ctx, student.ID, dto.EntryFormRequest{Tab: models.TestTypePost})
	require.NoError(t, err)
	require.Equal(t, models.TestTypePost, form.ActiveTab)
	require.NotNil(t, form.PostInitial)

	form, err = svc.EntryForm(ctx, student.ID, dto.EntryFormRequest{New: models.TestTypePost})
	require.NoError(t, err)
	require.Equal(t, models.TestTypePost, form.ActiveTab)
	require.True(t, form.NewPost)
	require.NotNil(t, form.PreInitial)
	require.Nil(t, form.PostInitial)
}

func TestEntryFormWithoutHistory(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "gus", "10-A")
	svc := newTestFitnessService(t, db, nil, time.Now())

	form, err := svc.EntryForm(context.Background(), student.ID, dto.EntryFormRequest{Tab: "bogus"})
	require.NoError(t, err)
	require.Equal(t, models.TestTypePre, form.ActiveTab)
	require.Nil(t, form.PreInitial)
	require.Nil(t, form.PostInitial)
}

func TestSubmitEntryReportsMalformedMetrics(t *testing.T) {
	db := setupServiceDB(t)
	student := seedStudent(t, db, "dora", "10-A")
	svc := newTestFitnessService(t, db, nil, time.Now())
	scope := NewRequestScope(student.UserID, RoleStudent, "")

	var payload dto.TestEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"height_cm":170,"weight_kg":"70","vo2_max":42.5,"flexibility":31,"strength":"abc","agility":11.2,"speed":true,"endurance":18}`), &payload))

	_, err := svc.SubmitEntry(context.Background(), scope, student, models.TestTypePre, payload)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, dto.MessageNotANumber, verr.Fields["strength"])
	require.Equal(t, dto.MessageNotANumber, verr.Fields["speed"])
	require.NotContains(t, verr.Fields, "weight_kg")
	require.EqualValues(t, 0, countEntries(t, db))
}
