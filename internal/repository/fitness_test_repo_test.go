package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

func TestFitnessTestRepositoryLatestValidSkipsCorruptedRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "ana", "Ana Cruz", "10-A")

	base := time.Now().Add(-time.Hour)
	older := createEntry(t, db, student.ID, models.TestTypePre, "20.00", base)
	newest := createEntry(t, db, student.ID, models.TestTypePre, "22.00", base.Add(10*time.Minute))
	corruptEntry(t, db, newest.ID, "vo2_max", "not-a-number")

	latest, err := repo.LatestValid(context.Background(), student.ID, models.TestTypePre)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, older.ID, latest.ID)
	require.True(t, latest.BMI.Equal(decimal.RequireFromString("20")))
}

func TestFitnessTestRepositoryLatestValidReturnsNewest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "ben", "Ben Reyes", "10-A")

	base := time.Now().Add(-time.Hour)
	createEntry(t, db, student.ID, models.TestTypePost, "20.00", base)
	newest := createEntry(t, db, student.ID, models.TestTypePost, "21.50", base.Add(time.Minute))
	createEntry(t, db, student.ID, models.TestTypePre, "30.00", base.Add(2*time.Minute))

	latest, err := repo.LatestValid(context.Background(), student.ID, models.TestTypePost)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, newest.ID, latest.ID)
	require.Equal(t, models.TestTypePost, latest.TestType)
	require.Equal(t, "21.50", latest.BMI.StringFixed(2))
	require.Equal(t, "7.25", latest.Speed.StringFixed(2))
}

func TestFitnessTestRepositoryLatestValidAllCorrupted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "cy", "Cy Lim", "10-B")

	first := createEntry(t, db, student.ID, models.TestTypePre, "20.00", time.Now().Add(-time.Minute))
	second := createEntry(t, db, student.ID, models.TestTypePre, "21.00", time.Now())
	corruptEntry(t, db, first.ID, "strength", "n/a")
	corruptEntry(t, db, second.ID, "endurance", "")

	latest, err := repo.LatestValid(context.Background(), student.ID, models.TestTypePre)
	require.NoError(t, err)
	require.Nil(t, latest)

	none, err := repo.LatestValid(context.Background(), student.ID, models.TestTypePost)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestFitnessTestRepositoryListValidOrderingAndFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "dee", "Dee Santos", "10-A")
	other := createStudent(t, db, "eli", "Eli Tan", "10-A")

	base := time.Now().Add(-time.Hour)
	pre1 := createEntry(t, db, student.ID, models.TestTypePre, "20.00", base)
	post1 := createEntry(t, db, student.ID, models.TestTypePost, "21.00", base.Add(time.Minute))
	broken := createEntry(t, db, student.ID, models.TestTypePost, "22.00", base.Add(2*time.Minute))
	pre2 := createEntry(t, db, student.ID, models.TestTypePre, "23.00", base.Add(3*time.Minute))
	createEntry(t, db, other.ID, models.TestTypePre, "19.00", base.Add(4*time.Minute))
	corruptEntry(t, db, broken.ID, "agility", "fast")

	all, err := repo.ListValid(context.Background(), student.ID, "")
	require.NoError(t, err)
	require.Equal(t, []uint{pre2.ID, post1.ID, pre1.ID}, entryIDs(all))

	pre, err := repo.ListValid(context.Background(), student.ID, models.TestTypePre)
	require.NoError(t, err)
	require.Equal(t, []uint{pre2.ID, pre1.ID}, entryIDs(pre))
	require.Subset(t, entryIDs(all), entryIDs(pre))

	post, err := repo.ListValid(context.Background(), student.ID, models.TestTypePost)
	require.NoError(t, err)
	require.Equal(t, []uint{post1.ID}, entryIDs(post))
	require.Subset(t, entryIDs(all), entryIDs(post))
}

func TestFitnessTestRepositoryCreateStampsLastUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "fay", "Fay Uy", "10-C")

	createdAt := time.Now().UTC().Truncate(time.Second)
	entry := models.FitnessTestEntry{StudentID: student.ID, TestType: models.TestTypePre, CreatedAt: createdAt}
	require.NoError(t, repo.Create(context.Background(), &entry))
	require.NotZero(t, entry.ID)

	var reloaded models.StudentProfile
	require.NoError(t, db.First(&reloaded, student.ID).Error)
	require.NotNil(t, reloaded.LastUpdate)
	require.True(t, reloaded.LastUpdate.Equal(createdAt))

	missing := models.FitnessTestEntry{StudentID: 9999, TestType: models.TestTypePre}
	require.Error(t, repo.Create(context.Background(), &missing))
}

func TestFitnessTestRepositoryListValidBySection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	inSection := createStudent(t, db, "gil", "Gil Ong", "11-A")
	elsewhere := createStudent(t, db, "hal", "Hal Go", "11-B")

	entry := createEntry(t, db, inSection.ID, models.TestTypePre, "20.00", time.Now())
	createEntry(t, db, elsewhere.ID, models.TestTypePre, "20.00", time.Now())

	entries, err := repo.ListValidBySection(context.Background(), "11-A")
	require.NoError(t, err)
	require.Equal(t, []uint{entry.ID}, entryIDs(entries))
}

func entryIDs(entries []models.FitnessTestEntry) []uint {
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func TestFitnessTestRepositoryExistsForStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	owner := createStudent(t, db, "owner", "Owner One", "10-A")
	other := createStudent(t, db, "other", "Other Two", "10-A")

	entry := createEntry(t, db, owner.ID, models.TestTypePre, "20.00", time.Now())
	corruptEntry(t, db, entry.ID, "agility", "bad")

	ok, err := repo.ExistsForStudent(context.Background(), entry.ID, owner.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ExistsForStudent(context.Background(), entry.ID, other.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFitnessTestRepositoryOrdersAcrossTimeZones(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFitnessTestRepository(db)
	student := createStudent(t, db, "zed", "Zed Ko", "10-C")

	// 10:00 at +07:00 is 03:00 UTC, two hours before the second entry, but
	// sorts after it as text when the offset is kept.
	eastern := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*60*60))
	older := models.FitnessTestEntry{StudentID: student.ID, TestType: models.TestTypePre, CreatedAt: eastern}
	older.SetMetrics(validMetricSet("20.00"))
	require.NoError(t, repo.Create(context.Background(), &older))

	newer := models.FitnessTestEntry{StudentID: student.ID, TestType: models.TestTypePre, CreatedAt: time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)}
	newer.SetMetrics(validMetricSet("21.00"))
	require.NoError(t, repo.Create(context.Background(), &newer))

	require.Equal(t, time.UTC, older.CreatedAt.Location())

	latest, err := repo.LatestValid(context.Background(), student.ID, models.TestTypePre)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, newer.ID, latest.ID)

	entries, err := repo.ListValid(context.Background(), student.ID, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, []uint{newer.ID, older.ID}, []uint{entries[0].ID, entries[1].ID})

	var profile models.StudentProfile
	require.NoError(t, db.First(&profile, student.ID).Error)
	require.NotNil(t, profile.LastUpdate)
	require.True(t, profile.LastUpdate.Equal(newer.CreatedAt))
}
