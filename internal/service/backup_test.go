package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/points-cli/internal/cache"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCreateListRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	mustAdd(t, st, "2024-05-01", mustEntry(t, model.MealLunch, "Reis", 5))

	dir := filepath.Join(t.TempDir(), "backups")
	out := filepath.Join(dir, service.BackupFileName(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	info, err := service.CreateBackup(ctx, st, out)
	require.NoError(t, err)
	assert.Equal(t, "points-20240501-120000.db", filepath.Base(info.Path))
	assert.Len(t, info.Checksum, 64)
	assert.FileExists(t, out+".sha256")

	_, err = service.CreateBackup(ctx, st, out)
	assert.Error(t, err, "existing backups are not overwritten")

	list, err := service.ListBackups(dir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Checksum, list[0].Checksum)

	none, err := service.ListBackups(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)

	target := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, service.RestoreBackup(out, target, false))
	assert.Error(t, service.RestoreBackup(out, target, false))

	restored, err := store.Open(ctx, target)
	require.NoError(t, err)
	defer restored.Close()
	d, err := service.GetDayLog(ctx, restored, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, d.Meals.Lunch, 1)
}

func TestRestoreBackupChecksumMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	out := filepath.Join(t.TempDir(), "b.db")
	_, err := service.CreateBackup(ctx, st, out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out+".sha256", []byte("deadbeef\n"), 0o644))

	err = service.RestoreBackup(out, filepath.Join(t.TempDir(), "x.db"), true)
	assert.True(t, errors.Is(err, service.ErrChecksumMismatch))
}

func TestRunDoctor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	e := mustEntry(t, model.MealLunch, "Reis", 5)
	e.PointsTotal = 9
	d := service.EmptyDayLog("2024-05-20")
	d.Meals.Lunch = []model.LogEntry{e}
	require.NoError(t, st.Logs.Put(ctx, d.Date, d))

	old := now.Add(-8 * 24 * time.Hour).UnixMilli()
	require.NoError(t, st.Cache.Put(ctx, "de-DE|alt", model.CacheEntry{Key: "de-DE|alt", Timestamp: old}))
	require.NoError(t, st.Cache.Put(ctx, "de-DE|neu", model.CacheEntry{Key: "de-DE|neu", Timestamp: now.UnixMilli()}))
	_, err := st.DB().ExecContext(ctx, `INSERT INTO weight (key, value) VALUES ('2024-05-19', '{broken')`)
	require.NoError(t, err)

	c := cache.New(st.Cache, cache.WithClock(func() time.Time { return now }))
	report, err := service.RunDoctor(ctx, st, c, cache.MaxAge, now, false)
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, []string{"2024-05-19"}, report.Undecodable["weight"])
	assert.Equal(t, []string{"2024-05-20/" + e.ID}, report.TotalMismatches)
	assert.Equal(t, 1, report.ExpiredCacheRows)
	assert.Zero(t, report.FixedTotals)

	report, err = service.RunDoctor(ctx, st, c, cache.MaxAge, now, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FixedTotals)
	assert.Equal(t, 1, report.SweptCacheRows)

	fixed, err := service.GetDayLog(ctx, st, "2024-05-20")
	require.NoError(t, err)
	assert.Equal(t, 5.0, fixed.Meals.Lunch[0].PointsTotal)

	report, err = service.RunDoctor(ctx, st, c, cache.MaxAge, now, false)
	require.NoError(t, err)
	assert.Empty(t, report.TotalMismatches)
	assert.Zero(t, report.ExpiredCacheRows)
}

func TestRunDoctorFlagsRoundedTotals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	e := mustEntry(t, model.MealBreakfast, "Müsli", 0.25, 1)
	e.PointsTotal = 1.3
	d := service.EmptyDayLog("2024-05-21")
	d.Meals.Breakfast = []model.LogEntry{e}
	require.NoError(t, st.Logs.Put(ctx, d.Date, d))

	report, err := service.RunDoctor(ctx, st, nil, cache.MaxAge, time.Now(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-21/" + e.ID}, report.TotalMismatches)
	assert.Equal(t, 1, report.FixedTotals)

	fixed, err := service.GetDayLog(ctx, st, "2024-05-21")
	require.NoError(t, err)
	assert.Equal(t, 1.25, fixed.Meals.Breakfast[0].PointsTotal)
}
