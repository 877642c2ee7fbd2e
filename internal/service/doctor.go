package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

// totalTolerance absorbs float addition noise only.
const totalTolerance = 1e-9

type CacheSweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

type DoctorReport struct {
	Undecodable      map[string][]string `json:"undecodable,omitempty"`
	TotalMismatches  []string            `json:"totalMismatches,omitempty"`
	ExpiredCacheRows int                 `json:"expiredCacheRows"`
	FixedTotals      int                 `json:"fixedTotals,omitempty"`
	SweptCacheRows   int                 `json:"sweptCacheRows,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return len(r.Undecodable) == 0 && len(r.TotalMismatches) == 0 && r.ExpiredCacheRows == 0
}

// RunDoctor reports rows that no longer decode, entries whose stored total
// differs from the sum of their items, and cache rows older than maxAge. With
// fix, totals are recomputed and the cache is swept.
func RunDoctor(ctx context.Context, st *store.Store, sweeper CacheSweeper, maxAge time.Duration, now time.Time, fix bool) (DoctorReport, error) {
	report := DoctorReport{Undecodable: map[string][]string{}}

	checks := []struct {
		name   string
		list   func(context.Context) ([]store.Record[string], error)
		decode func([]byte) error
	}{
		{st.Settings.Name(), st.Settings.ListRaw, decodeInto[model.Settings]},
		{st.Logs.Name(), st.Logs.ListRaw, decodeInto[model.DayLog]},
		{st.Weight.Name(), st.Weight.ListRaw, decodeInto[model.WeightEntry]},
		{st.Cache.Name(), st.Cache.ListRaw, decodeInto[model.CacheEntry]},
	}
	broken := map[string]bool{}
	for _, c := range checks {
		recs, err := c.list(ctx)
		if err != nil {
			return report, fmt.Errorf("doctor %s check: %w", c.name, err)
		}
		for _, r := range recs {
			if err := c.decode([]byte(r.Value)); err != nil {
				report.Undecodable[c.name] = append(report.Undecodable[c.name], r.Key)
				broken[c.name+"/"+r.Key] = true
			}
		}
	}
	if len(report.Undecodable) == 0 {
		report.Undecodable = nil
	}

	rawLogs, err := st.Logs.ListRaw(ctx)
	if err != nil {
		return report, fmt.Errorf("doctor totals check: %w", err)
	}
	var toFix []model.DayLog
	for _, r := range rawLogs {
		if broken["logs/"+r.Key] {
			continue
		}
		var d model.DayLog
		_ = json.Unmarshal([]byte(r.Value), &d)
		d.Date = r.Key
		changed := false
		for _, m := range model.MealTypes {
			b := d.Bucket(m)
			for i := range *b {
				e := &(*b)[i]
				want := sumItems(e.Items)
				if math.Abs(e.PointsTotal-want) < totalTolerance {
					continue
				}
				report.TotalMismatches = append(report.TotalMismatches, fmt.Sprintf("%s/%s", d.Date, e.ID))
				e.PointsTotal = want
				changed = true
			}
		}
		if changed {
			toFix = append(toFix, d)
		}
	}

	rawCache, err := st.Cache.ListRaw(ctx)
	if err != nil {
		return report, fmt.Errorf("doctor cache check: %w", err)
	}
	cutoff := now.UnixMilli() - maxAge.Milliseconds()
	for _, r := range rawCache {
		if broken["cache/"+r.Key] {
			continue
		}
		var e model.CacheEntry
		_ = json.Unmarshal([]byte(r.Value), &e)
		if e.Timestamp < cutoff {
			report.ExpiredCacheRows++
		}
	}

	if !fix {
		return report, nil
	}
	if len(toFix) > 0 {
		err := st.WithTx(ctx, func(tx *store.Store) error {
			for _, d := range toFix {
				if err := SaveDayLog(ctx, tx, d); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("doctor fix totals: %w", err)
		}
		report.FixedTotals = len(report.TotalMismatches)
	}
	if sweeper != nil && report.ExpiredCacheRows > 0 {
		n, err := sweeper.Sweep(ctx, maxAge)
		if err != nil {
			return report, fmt.Errorf("doctor sweep cache: %w", err)
		}
		report.SweptCacheRows = n
	}
	return report, nil
}

func decodeInto[T any](raw []byte) error {
	var v T
	return json.Unmarshal(raw, &v)
}
