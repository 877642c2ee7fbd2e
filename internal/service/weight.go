package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

const MaxWeightKg = 500

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

type WeightTrend struct {
	Latest     model.WeightEntry
	Previous   model.WeightEntry
	Diff       float64
	Percentage float64
	Direction  TrendDirection
}

// ParseWeight accepts a comma or dot decimal, e.g. "82,4".
func ParseWeight(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("weight", "%q is not a number", value)
	}
	if v <= 0 || v > MaxWeightKg {
		return 0, invalid("weight", "must be > 0 and <= %d", MaxWeightKg)
	}
	return v, nil
}

// SaveWeight stores one sample per date; the same date overwrites.
func SaveWeight(ctx context.Context, st *store.Store, e model.WeightEntry) error {
	e.Date = strings.TrimSpace(e.Date)
	if err := validateStruct(e); err != nil {
		return err
	}
	if err := st.Weight.Put(ctx, e.Date, e); err != nil {
		return fmt.Errorf("save weight %s: %w", e.Date, err)
	}
	return nil
}

func DeleteWeight(ctx context.Context, st *store.Store, date string) (bool, error) {
	removed, err := st.Weight.Delete(ctx, strings.TrimSpace(date))
	if err != nil {
		return false, fmt.Errorf("delete weight %s: %w", date, err)
	}
	return removed, nil
}

// ListWeights returns samples in ascending date order.
func ListWeights(ctx context.Context, st *store.Store, from, to string) ([]model.WeightEntry, error) {
	recs, err := st.Weight.Range(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	out := make([]model.WeightEntry, 0, len(recs))
	for _, r := range recs {
		e := r.Value
		e.Date = r.Key
		out = append(out, e)
	}
	return out, nil
}

func LatestWeight(ctx context.Context, st *store.Store) (model.WeightEntry, bool, error) {
	all, err := ListWeights(ctx, st, "", "")
	if err != nil {
		return model.WeightEntry{}, false, err
	}
	if len(all) == 0 {
		return model.WeightEntry{}, false, nil
	}
	return all[len(all)-1], true, nil
}

// Trend compares the latest sample with the one before it. It needs at
// least two samples.
func Trend(entries []model.WeightEntry) (WeightTrend, bool) {
	if len(entries) < 2 {
		return WeightTrend{}, false
	}
	latest := entries[len(entries)-1]
	prev := entries[len(entries)-2]
	diff := round1(latest.Value - prev.Value)
	t := WeightTrend{
		Latest:     latest,
		Previous:   prev,
		Diff:       diff,
		Percentage: round1(diff / prev.Value * 100),
		Direction:  TrendStable,
	}
	switch {
	case diff > 0:
		t.Direction = TrendUp
	case diff < 0:
		t.Direction = TrendDown
	}
	return t, true
}

func WeightTrendFor(ctx context.Context, st *store.Store) (WeightTrend, bool, error) {
	all, err := ListWeights(ctx, st, "", "")
	if err != nil {
		return WeightTrend{}, false, err
	}
	t, ok := Trend(all)
	return t, ok, nil
}
