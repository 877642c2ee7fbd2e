package service

import (
	"context"
	"math"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

type MealBudget struct {
	MealType model.MealType
	Points   float64
	Entries  int
}

type DayBudget struct {
	Date      string
	Budget    float64
	Used      float64
	Remaining float64
	Over      bool
	Meals     []MealBudget
}

type WeekBudget struct {
	Start     string
	End       string
	Budget    float64
	Used      float64
	Remaining float64
	Over      bool
	Days      []DayBudget
}

func DayStatus(ctx context.Context, st *store.Store, date string) (DayBudget, error) {
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return DayBudget{}, err
	}
	d, err := GetDayLog(ctx, st, date)
	if err != nil {
		return DayBudget{}, err
	}
	return dayBudget(d, float64(settings.DailyPoints)), nil
}

func dayBudget(d model.DayLog, daily float64) DayBudget {
	used := DayTotal(d)
	out := DayBudget{
		Date:      d.Date,
		Budget:    daily,
		Used:      used,
		Remaining: round1(daily - used),
		Over:      used > daily,
		Meals:     make([]MealBudget, 0, len(model.MealTypes)),
	}
	for _, m := range model.MealTypes {
		out.Meals = append(out.Meals, MealBudget{MealType: m, Points: MealTotal(d, m), Entries: len(*d.Bucket(m))})
	}
	return out
}

// PointsAvailable is the remaining daily budget, floored at zero.
func PointsAvailable(b DayBudget) float64 {
	return math.Max(0, b.Remaining)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekStatus sums Monday through Sunday. The weekly budget is seven daily
// budgets plus the weekly bonus.
func WeekStatus(ctx context.Context, st *store.Store, date string) (WeekBudget, error) {
	t, err := ParseDate(date)
	if err != nil {
		return WeekBudget{}, err
	}
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return WeekBudget{}, err
	}
	start := WeekStart(t)
	end := start.AddDate(0, 0, 6)
	logs, err := LogsInRange(ctx, st, DateKey(start), DateKey(end))
	if err != nil {
		return WeekBudget{}, err
	}
	byDate := make(map[string]model.DayLog, len(logs))
	for _, d := range logs {
		byDate[d.Date] = d
	}

	daily := float64(settings.DailyPoints)
	out := WeekBudget{
		Start:  DateKey(start),
		End:    DateKey(end),
		Budget: daily*7 + float64(settings.WeeklyBonus),
		Days:   make([]DayBudget, 0, 7),
	}
	for i := 0; i < 7; i++ {
		key := DateKey(start.AddDate(0, 0, i))
		d, ok := byDate[key]
		if !ok {
			d = EmptyDayLog(key)
		}
		db := dayBudget(d, daily)
		out.Used += db.Used
		out.Days = append(out.Days, db)
	}
	out.Used = round1(out.Used)
	out.Remaining = round1(out.Budget - out.Used)
	out.Over = out.Used > out.Budget
	return out, nil
}
