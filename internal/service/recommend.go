package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/estimator"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

const (
	FavoritesWindowDays = 30
	favoritesLimit      = 5
	frequentFoodsLimit  = 10
)

type RecommendInput struct {
	Date   string
	Meal   model.MealType
	APIKey string
}

// BuildRecommendationContext gathers today's log and the eating history of
// the last 30 days ending on date.
func BuildRecommendationContext(ctx context.Context, st *store.Store, date string, meal model.MealType) (estimator.RecommendationContext, error) {
	t, err := ParseDate(date)
	if err != nil {
		return estimator.RecommendationContext{}, err
	}
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return estimator.RecommendationContext{}, err
	}
	d, err := GetDayLog(ctx, st, date)
	if err != nil {
		return estimator.RecommendationContext{}, err
	}
	budget := dayBudget(d, float64(settings.DailyPoints))

	freq, err := FrequentFoods(ctx, st, DateKey(t.AddDate(0, 0, -FavoritesWindowDays)), date, frequentFoodsLimit)
	if err != nil {
		return estimator.RecommendationContext{}, err
	}
	frequent := make([]string, 0, len(freq))
	favorites := make([]string, 0, favoritesLimit)
	for _, f := range freq {
		frequent = append(frequent, f.Name)
		// A favorite is something eaten on more than one occasion.
		if f.Count > 1 && len(favorites) < favoritesLimit {
			favorites = append(favorites, f.Name)
		}
	}

	rc := estimator.RecommendationContext{
		MealType:        meal,
		PointsAvailable: PointsAvailable(budget),
		Favorites:       favorites,
		FrequentFoods:   frequent,
		DietaryPrefs:    settings.DietaryPrefs,
		NoGos:           settings.NoGos,
		Locale:          settings.Locale,
	}
	for _, m := range model.MealTypes {
		for _, e := range *d.Bucket(m) {
			rc.TodaysLog = append(rc.TodaysLog, estimator.MealSummary{Meal: m, Items: entryItemNames(e), Points: e.PointsTotal})
		}
	}
	return rc, nil
}

func Recommend(ctx context.Context, st *store.Store, est Estimator, in RecommendInput) (model.RecommendationResponse, error) {
	if in.Date == "" {
		in.Date = DateKey(time.Now())
	}
	if in.Meal == "" {
		in.Meal = DefaultMealType(time.Now().Hour())
	}
	if !in.Meal.Valid() {
		return model.RecommendationResponse{}, invalid("meal", "must be one of: breakfast, lunch, dinner, snack")
	}
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return model.RecommendationResponse{}, err
	}
	key := ResolveAPIKey(settings, in.APIKey)
	if key == "" {
		return model.RecommendationResponse{}, ErrMissingAPIKey
	}
	rc, err := BuildRecommendationContext(ctx, st, in.Date, in.Meal)
	if err != nil {
		return model.RecommendationResponse{}, err
	}
	return est.Recommend(ctx, key, settings.GeminiModel, rc)
}

// AcceptSuggestion logs a suggestion as an ai entry with its reason as notes.
func AcceptSuggestion(ctx context.Context, st *store.Store, date string, meal model.MealType, s model.Suggestion) (model.LogEntry, error) {
	items := make([]model.FoodItem, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, model.FoodItem{Name: it.Name, AmountText: it.AmountText, Points: math.Max(0, it.Points)})
	}
	if len(items) == 0 {
		return model.LogEntry{}, invalid("suggestion", "has no items")
	}
	entry, err := NewEntry(EntryInput{
		MealType: meal,
		RawText:  strings.TrimSpace(s.Title),
		Items:    items,
		Source:   model.SourceAI,
		Notes:    s.Why,
	})
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("accept suggestion: %w", err)
	}
	if _, err := AddEntry(ctx, st, date, entry); err != nil {
		return model.LogEntry{}, err
	}
	return entry, nil
}

// FormatSuggestion renders one suggestion as plain text for the clipboard.
func FormatSuggestion(s model.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s points)\n", s.Title, formatPoints(s.PointsTotal))
	for _, it := range s.Items {
		fmt.Fprintf(&b, "- %s %s: %s\n", it.AmountText, it.Name, formatPoints(it.Points))
	}
	if s.Why != "" {
		b.WriteString(s.Why + "\n")
	}
	return b.String()
}

func formatPoints(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}
