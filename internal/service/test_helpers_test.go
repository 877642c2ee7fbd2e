package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/service"
	"github.com/saadjs/points-cli/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "points.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func mustEntry(t *testing.T, meal model.MealType, text string, points ...float64) model.LogEntry {
	t.Helper()
	items := make([]model.FoodItem, 0, len(points))
	for i, p := range points {
		name := text
		if len(points) > 1 {
			name = text + " " + string(rune('a'+i))
		}
		items = append(items, model.FoodItem{Name: name, Points: p})
	}
	e, err := service.NewEntry(service.EntryInput{MealType: meal, RawText: text, Items: items})
	require.NoError(t, err)
	return e
}

func mustAdd(t *testing.T, st *store.Store, date string, e model.LogEntry) {
	t.Helper()
	_, err := service.AddEntry(context.Background(), st, date, e)
	require.NoError(t, err)
}
