package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedForExport(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	points := 25
	_, err := service.UpdateSettings(ctx, st, service.SettingsUpdate{DailyPoints: &points})
	require.NoError(t, err)
	mustAdd(t, st, "2024-04-01", mustEntry(t, model.MealLunch, "Reis", 5))
	require.NoError(t, service.SaveWeight(ctx, st, model.WeightEntry{Date: "2024-04-01", Value: 82}))
	require.NoError(t, st.Cache.Put(ctx, "de-DE|reis", model.CacheEntry{Key: "de-DE|reis", Timestamp: 1}))
}

func TestExportRoundTripOverwrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src := newTestStore(t)
	seedForExport(t, src)

	data, err := service.ExportSnapshot(ctx, src, time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, data.Version)

	var buf bytes.Buffer
	require.NoError(t, service.WriteExport(&buf, data))
	assert.NotContains(t, buf.String(), "de-DE|reis", "the cache is not exported")
	assert.Contains(t, buf.String(), `"exportedAt": "2024-04-02T08:00:00Z"`)

	dst := newTestStore(t)
	mustAdd(t, dst, "2024-03-01", mustEntry(t, model.MealLunch, "alt", 3))
	require.NoError(t, dst.Cache.Put(ctx, "k", model.CacheEntry{Key: "k"}))

	parsed, err := service.ReadExport(&buf)
	require.NoError(t, err)
	report, err := service.ImportSnapshot(ctx, dst, parsed, service.ImportOptions{Mode: service.ImportModeOverwrite})
	require.NoError(t, err)
	assert.True(t, report.SettingsWritten)
	assert.Equal(t, 1, report.LogsWritten)
	assert.Equal(t, 1, report.WeightsWritten)

	stats, err := dst.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Logs, "overwrite clears days missing from the file")
	assert.Zero(t, stats.Cache)

	s, err := service.GetSettings(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 25, s.DailyPoints)
}

func TestImportMergeKeepsDaysWithEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)

	kept := mustEntry(t, model.MealDinner, "lokal", 9)
	mustAdd(t, st, "2024-04-01", kept)
	require.NoError(t, service.SaveDayLog(ctx, st, service.EmptyDayLog("2024-04-02")))
	require.NoError(t, service.SaveWeight(ctx, st, model.WeightEntry{Date: "2024-04-01", Value: 90}))

	incoming := service.DefaultSettings()
	incoming.DailyPoints = 30
	day1 := service.EmptyDayLog("2024-04-01")
	day1.Meals.Lunch = []model.LogEntry{mustEntry(t, model.MealLunch, "import", 1)}
	day2 := service.EmptyDayLog("2024-04-02")
	day2.Meals.Snack = []model.LogEntry{mustEntry(t, model.MealSnack, "import", 2)}
	day3 := model.DayLog{Date: "2024-04-03"}
	data := &service.ExportData{
		Version:  1,
		Settings: &incoming,
		Logs:     []model.DayLog{day1, day2, day3},
		Weight:   []model.WeightEntry{{Date: "2024-04-01", Value: 88}},
	}

	report, err := service.ImportSnapshot(ctx, st, data, service.ImportOptions{Mode: service.ImportModeMerge})
	require.NoError(t, err)
	assert.Equal(t, 1, report.LogsSkipped)
	assert.Equal(t, 2, report.LogsWritten)

	d, err := service.GetDayLog(ctx, st, "2024-04-01")
	require.NoError(t, err)
	require.Len(t, d.Meals.Dinner, 1)
	assert.Equal(t, kept.ID, d.Meals.Dinner[0].ID)
	assert.Empty(t, d.Meals.Lunch)

	d, err = service.GetDayLog(ctx, st, "2024-04-02")
	require.NoError(t, err)
	assert.Len(t, d.Meals.Snack, 1)

	raw, ok, err := st.Logs.Get(ctx, "2024-04-03")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, raw.Meals.Breakfast, "imported buckets are normalized")

	w, _, err := st.Weight.Get(ctx, "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, 88.0, w.Value)

	s, err := service.GetSettings(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 30, s.DailyPoints)
}

func TestImportDryRunWritesNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := newTestStore(t)
	mustAdd(t, st, "2024-04-01", mustEntry(t, model.MealDinner, "lokal", 9))

	settings := service.DefaultSettings()
	data := &service.ExportData{Version: 1, Settings: &settings, Logs: []model.DayLog{}}
	report, err := service.ImportSnapshot(ctx, st, data, service.ImportOptions{Mode: service.ImportModeOverwrite, DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)

	n, err := st.Logs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = st.Settings.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestValidateExport(t *testing.T) {
	t.Parallel()
	settings := service.DefaultSettings()

	cases := []struct {
		name string
		data *service.ExportData
		want string
	}{
		{"nil", nil, "empty"},
		{"version", &service.ExportData{Version: 2, Settings: &settings, Logs: []model.DayLog{}}, "version"},
		{"settings", &service.ExportData{Version: 1, Logs: []model.DayLog{}}, "settings"},
		{"logs", &service.ExportData{Version: 1, Settings: &settings}, "logs"},
		{"bad day", &service.ExportData{Version: 1, Settings: &settings, Logs: []model.DayLog{{Date: "yesterday"}}}, "yesterday"},
		{"bad weight", &service.ExportData{Version: 1, Settings: &settings, Logs: []model.DayLog{}, Weight: []model.WeightEntry{{Date: "2024-01-01", Value: 0}}}, "value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.ValidateExport(tc.data)
			var vErr *service.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := service.ReadExport(strings.NewReader("{not json"))
	assert.Error(t, err)
	_, err = service.ParseImportMode("replace")
	assert.Error(t, err)
}
