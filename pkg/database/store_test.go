package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	return db
}

func TestRosterRoundTrip(t *testing.T) {
	db := openTestDB(t)

	roster := []models.Person{
		{ID: "raz", LastDuty: models.DateKey(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)), LastSlot: "06:00-08:00"},
		{ID: "natan", LastDuty: models.OverrideKey()},
		{ID: "biton"},
	}
	require.NoError(t, SaveRoster(db, roster))

	got, err := LoadRoster(db)
	require.NoError(t, err)
	require.Equal(t, roster, got)

	require.NoError(t, SaveRoster(db, roster[1:]))
	got, err = LoadRoster(db)
	require.NoError(t, err)
	require.Equal(t, []string{"natan", "biton"}, []string{got[0].ID, got[1].ID})
}

func TestRecordUsage(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RecordUsage(db, 7, 22, 19))
	require.NoError(t, RecordUsage(db, 7, 22, 17))

	usage, err := RecentUsage(db, 7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	require.Equal(t, 2, usage[0].RequestCount)
	require.Equal(t, 44, usage[0].TotalSlots)
	require.Equal(t, 36, usage[0].TotalPersonnel)
}

func TestResolveAPIKey(t *testing.T) {
	db := openTestDB(t)

	first, err := ResolveAPIKey(db, "ops.sig", "ops", "ops...sig")
	require.NoError(t, err)
	require.Equal(t, "ops", first.Name)
	require.Equal(t, 10000, first.RateLimit)

	again, err := ResolveAPIKey(db, "ops.sig", "ops", "ops...sig")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	require.NoError(t, db.Delete(&APIKey{}, first.ID).Error)
	_, err = ResolveAPIKey(db, "ops.sig", "ops", "ops...sig")
	require.ErrorIs(t, err, ErrKeyRevoked)

	var count int64
	require.NoError(t, db.Unscoped().Model(&APIKey{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
