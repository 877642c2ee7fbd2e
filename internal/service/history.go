package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

type DaySummary struct {
	Date        string
	Points      float64
	Entries     int
	UnderBudget bool
}

type HistoryStats struct {
	From            string
	To              string
	TotalDays       int
	AvgPoints       int
	UnderBudgetDays int
	Days            []DaySummary
}

// History summarizes logged days in [from, to]. Days without entries are not
// counted. A day is under budget when its total does not exceed the daily
// budget.
func History(ctx context.Context, st *store.Store, from, to string) (HistoryStats, error) {
	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}
		if _, err := ParseDate(v); err != nil {
			return HistoryStats{}, err
		}
	}
	if from != "" && to != "" && from > to {
		return HistoryStats{}, invalid("from", "must not be after --to")
	}
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return HistoryStats{}, err
	}
	logs, err := LogsInRange(ctx, st, from, to)
	if err != nil {
		return HistoryStats{}, err
	}

	daily := float64(settings.DailyPoints)
	out := HistoryStats{From: from, To: to, Days: make([]DaySummary, 0, len(logs))}
	total := 0.0
	for _, d := range logs {
		if d.IsEmpty() {
			continue
		}
		points := DayTotal(d)
		s := DaySummary{Date: d.Date, Points: points, Entries: len(d.Entries()), UnderBudget: points <= daily}
		out.Days = append(out.Days, s)
		total += points
		if s.UnderBudget {
			out.UnderBudgetDays++
		}
	}
	out.TotalDays = len(out.Days)
	if out.TotalDays > 0 {
		out.AvgPoints = int(math.Round(total / float64(out.TotalDays)))
	}
	return out, nil
}

func MonthRange(month string) (string, string, error) {
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(month), time.Local)
	if err != nil {
		return "", "", invalid("month", "%q is not a month (expected YYYY-MM)", month)
	}
	return DateKey(t), DateKey(t.AddDate(0, 1, -1)), nil
}

// MonthCalendar returns one summary per calendar day of the month, including
// days with nothing logged.
func MonthCalendar(ctx context.Context, st *store.Store, month string) ([]DaySummary, error) {
	from, to, err := MonthRange(month)
	if err != nil {
		return nil, err
	}
	stats, err := History(ctx, st, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]DaySummary, len(stats.Days))
	for _, d := range stats.Days {
		byDate[d.Date] = d
	}
	start, _ := ParseDate(from)
	end, _ := ParseDate(to)
	out := make([]DaySummary, 0, 31)
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		key := DateKey(t)
		if d, ok := byDate[key]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, DaySummary{Date: key})
	}
	return out, nil
}

type FoodFrequency struct {
	Name  string
	Count int
}

// FrequentFoods counts item names over [from, to], most frequent first.
func FrequentFoods(ctx context.Context, st *store.Store, from, to string, limit int) ([]FoodFrequency, error) {
	logs, err := LogsInRange(ctx, st, from, to)
	if err != nil {
		return nil, fmt.Errorf("frequent foods: %w", err)
	}
	counts := make(map[string]*FoodFrequency)
	for _, d := range logs {
		for _, e := range d.Entries() {
			for _, it := range e.Items {
				name := strings.TrimSpace(it.Name)
				if name == "" {
					continue
				}
				key := strings.ToLower(name)
				if f, ok := counts[key]; ok {
					f.Count++
					continue
				}
				counts[key] = &FoodFrequency{Name: name, Count: 1}
			}
		}
	}
	out := make([]FoodFrequency, 0, len(counts))
	for _, f := range counts {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func entryItemNames(e model.LogEntry) []string {
	names := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		if it.AmountText != "" {
			names = append(names, it.AmountText+" "+it.Name)
			continue
		}
		names = append(names, it.Name)
	}
	return names
}
