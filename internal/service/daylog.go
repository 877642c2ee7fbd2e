package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

var ErrEntryNotFound = errors.New("log entry not found")

// DefaultMealType picks the bucket for an entry logged at the given hour.
func DefaultMealType(hour int) model.MealType {
	switch {
	case hour < 10:
		return model.MealBreakfast
	case hour < 14:
		return model.MealLunch
	case hour < 18:
		return model.MealDinner
	default:
		return model.MealSnack
	}
}

func ParseMealType(value string) (model.MealType, error) {
	m := model.MealType(strings.ToLower(strings.TrimSpace(value)))
	if !m.Valid() {
		return "", invalid("meal", "must be one of: breakfast, lunch, dinner, snack")
	}
	return m, nil
}

func EmptyDayLog(date string) model.DayLog {
	d := model.DayLog{Date: date}
	d.EnsureBuckets()
	return d
}

// GetDayLog returns the stored day, or an empty one with all four buckets.
func GetDayLog(ctx context.Context, st *store.Store, date string) (model.DayLog, error) {
	if _, err := ParseDate(date); err != nil {
		return model.DayLog{}, err
	}
	d, ok, err := st.Logs.Get(ctx, date)
	if err != nil {
		return model.DayLog{}, fmt.Errorf("get day log %s: %w", date, err)
	}
	if !ok {
		return EmptyDayLog(date), nil
	}
	d.Date = date
	d.EnsureBuckets()
	return d, nil
}

func SaveDayLog(ctx context.Context, st *store.Store, d model.DayLog) error {
	if _, err := ParseDate(d.Date); err != nil {
		return err
	}
	d.EnsureBuckets()
	if err := st.Logs.Put(ctx, d.Date, d); err != nil {
		return fmt.Errorf("save day log %s: %w", d.Date, err)
	}
	return nil
}

func LogsInRange(ctx context.Context, st *store.Store, from, to string) ([]model.DayLog, error) {
	recs, err := st.Logs.Range(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list day logs: %w", err)
	}
	out := make([]model.DayLog, 0, len(recs))
	for _, r := range recs {
		d := r.Value
		d.Date = r.Key
		d.EnsureBuckets()
		out = append(out, d)
	}
	return out, nil
}

type EntryInput struct {
	MealType model.MealType
	RawText  string
	Items    []model.FoodItem
	// Points is used for a manual entry without items.
	Points    float64
	Source    model.Source
	Notes     string
	CreatedAt time.Time
}

// NewEntry builds an entry whose total is the sum of its items.
func NewEntry(in EntryInput) (model.LogEntry, error) {
	raw := strings.TrimSpace(in.RawText)
	items := append([]model.FoodItem(nil), in.Items...)
	if len(items) == 0 {
		if raw == "" {
			return model.LogEntry{}, invalid("text", "is required")
		}
		items = []model.FoodItem{{Name: raw, AmountText: "", Points: in.Points}}
	}
	if in.Source == "" {
		in.Source = model.SourceManual
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	e := model.LogEntry{
		ID:          uuid.NewString(),
		MealType:    in.MealType,
		RawText:     raw,
		Items:       items,
		PointsTotal: sumItems(items),
		CreatedAt:   in.CreatedAt,
		Source:      in.Source,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := validateStruct(e); err != nil {
		return model.LogEntry{}, err
	}
	return e, nil
}

func EntryFromFood(resp model.FoodResponse, meal model.MealType, rawText, notes string) (model.LogEntry, error) {
	if rawText == "" {
		rawText = resp.Raw
	}
	items := make([]model.FoodItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		if strings.TrimSpace(it.Name) == "" {
			it.Name = strings.TrimSpace(rawText)
		}
		if it.Points < 0 {
			it.Points = 0
		}
		items = append(items, it)
	}
	return NewEntry(EntryInput{MealType: meal, RawText: rawText, Items: items, Source: model.SourceAI, Notes: notes})
}

// sumItems is the exact total. Rounding happens only when totals are shown.
func sumItems(items []model.FoodItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Points
	}
	return total
}

func AddEntry(ctx context.Context, st *store.Store, date string, e model.LogEntry) (model.DayLog, error) {
	if !e.MealType.Valid() {
		return model.DayLog{}, invalid("meal", "must be one of: breakfast, lunch, dinner, snack")
	}
	d, err := GetDayLog(ctx, st, date)
	if err != nil {
		return model.DayLog{}, err
	}
	b := d.Bucket(e.MealType)
	*b = append(*b, e)
	if err := SaveDayLog(ctx, st, d); err != nil {
		return model.DayLog{}, err
	}
	return d, nil
}

type EntryUpdate struct {
	MealType *model.MealType
	Items    *[]model.FoodItem
	RawText  *string
	Notes    *string
}

// UpdateEntry replaces fields of an entry. Changing the meal moves the entry to
// the end of the new bucket; items are replaced wholesale and the total is
// recomputed.
func UpdateEntry(ctx context.Context, st *store.Store, date, id string, u EntryUpdate) (model.LogEntry, error) {
	d, err := GetDayLog(ctx, st, date)
	if err != nil {
		return model.LogEntry{}, err
	}
	meal, idx, ok := findEntry(d, id)
	if !ok {
		return model.LogEntry{}, fmt.Errorf("%w: %s on %s", ErrEntryNotFound, id, date)
	}
	bucket := d.Bucket(meal)
	e := (*bucket)[idx]

	if u.Items != nil {
		if len(*u.Items) == 0 {
			return model.LogEntry{}, invalid("items", "must not be empty")
		}
		e.Items = append([]model.FoodItem(nil), (*u.Items)...)
		e.PointsTotal = sumItems(e.Items)
	}
	if u.RawText != nil {
		e.RawText = strings.TrimSpace(*u.RawText)
	}
	if u.Notes != nil {
		e.Notes = strings.TrimSpace(*u.Notes)
	}
	if u.MealType != nil {
		if !u.MealType.Valid() {
			return model.LogEntry{}, invalid("meal", "must be one of: breakfast, lunch, dinner, snack")
		}
		e.MealType = *u.MealType
	}
	if err := validateStruct(e); err != nil {
		return model.LogEntry{}, err
	}

	if e.MealType == meal {
		(*bucket)[idx] = e
	} else {
		*bucket = append((*bucket)[:idx], (*bucket)[idx+1:]...)
		target := d.Bucket(e.MealType)
		*target = append(*target, e)
	}
	if err := SaveDayLog(ctx, st, d); err != nil {
		return model.LogEntry{}, err
	}
	return e, nil
}

// RemoveEntry deletes an entry. The day stays stored with empty buckets.
func RemoveEntry(ctx context.Context, st *store.Store, date, id string) error {
	d, err := GetDayLog(ctx, st, date)
	if err != nil {
		return err
	}
	meal, idx, ok := findEntry(d, id)
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrEntryNotFound, id, date)
	}
	bucket := d.Bucket(meal)
	*bucket = append((*bucket)[:idx], (*bucket)[idx+1:]...)
	return SaveDayLog(ctx, st, d)
}

// FindEntry accepts a full id or a unique prefix of at least four characters.
func FindEntry(d model.DayLog, id string) (model.LogEntry, bool) {
	meal, idx, ok := findEntry(d, id)
	if !ok {
		return model.LogEntry{}, false
	}
	return (*d.Bucket(meal))[idx], true
}

func findEntry(d model.DayLog, id string) (model.MealType, int, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", 0, false
	}
	var (
		foundMeal model.MealType
		foundIdx  int
		matches   int
	)
	for _, m := range model.MealTypes {
		for i, e := range *d.Bucket(m) {
			if e.ID == id {
				return m, i, true
			}
			if len(id) >= 4 && strings.HasPrefix(e.ID, id) {
				foundMeal, foundIdx = m, i
				matches++
			}
		}
	}
	if matches == 1 {
		return foundMeal, foundIdx, true
	}
	return "", 0, false
}

func DayTotal(d model.DayLog) float64 {
	return round1(d.TotalPoints())
}

func MealTotal(d model.DayLog, m model.MealType) float64 {
	total := 0.0
	for _, e := range *d.Bucket(m) {
		total += e.PointsTotal
	}
	return round1(total)
}
