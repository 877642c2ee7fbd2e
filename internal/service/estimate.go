package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/estimator"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
)

// ErrMissingAPIKey is returned before any remote call when no key is set.
var ErrMissingAPIKey = errors.New("no Gemini API key configured (run `points setup` or set POINTS_GEMINI_API_KEY)")

type Estimator interface {
	Estimate(ctx context.Context, credential, modelID, foodText string, fc estimator.FoodContext) (model.FoodResponse, error)
	Recommend(ctx context.Context, credential, modelID string, rc estimator.RecommendationContext) (model.RecommendationResponse, error)
}

type ResponseCache interface {
	Get(ctx context.Context, text, locale string) (model.FoodResponse, bool)
	Put(ctx context.Context, text string, resp model.FoodResponse, locale string)
}

type EstimateInput struct {
	Text string
	Date string
	// APIKey is used when the stored settings carry no key.
	APIKey string
	// Save logs the result into Meal on Date.
	Save  bool
	Meal  model.MealType
	Notes string
}

type EstimateResult struct {
	Response  model.FoodResponse
	FromCache bool
	Entry     *model.LogEntry
}

// EstimateFood answers from the cache when possible. On a miss it sends the
// text with the day's budget context and caches the reconciled response.
func EstimateFood(ctx context.Context, st *store.Store, c ResponseCache, est Estimator, in EstimateInput) (EstimateResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return EstimateResult{}, invalid("text", "is required")
	}
	if in.Date == "" {
		in.Date = DateKey(time.Now())
	}
	settings, err := GetSettings(ctx, st)
	if err != nil {
		return EstimateResult{}, err
	}

	var out EstimateResult
	if resp, ok := c.Get(ctx, text, settings.Locale); ok {
		out = EstimateResult{Response: resp, FromCache: true}
	} else {
		key := ResolveAPIKey(settings, in.APIKey)
		if key == "" {
			return EstimateResult{}, ErrMissingAPIKey
		}
		day, err := DayStatus(ctx, st, in.Date)
		if err != nil {
			return EstimateResult{}, err
		}
		fc := estimator.FoodContext{
			DailyPoints:     day.Budget,
			UsedPoints:      day.Used,
			RemainingPoints: day.Remaining,
			DietaryPrefs:    settings.DietaryPrefs,
			NoGos:           settings.NoGos,
			Locale:          settings.Locale,
		}
		resp, err := est.Estimate(ctx, key, settings.GeminiModel, text, fc)
		if err != nil {
			return EstimateResult{}, err
		}
		c.Put(ctx, text, resp, settings.Locale)
		out = EstimateResult{Response: resp}
	}

	if !in.Save {
		return out, nil
	}
	meal := in.Meal
	if meal == "" {
		meal = DefaultMealType(time.Now().Hour())
	}
	entry, err := EntryFromFood(out.Response, meal, text, in.Notes)
	if err != nil {
		return EstimateResult{}, err
	}
	if _, err := AddEntry(ctx, st, in.Date, entry); err != nil {
		return EstimateResult{}, err
	}
	out.Entry = &entry
	return out, nil
}

// ResolveAPIKey prefers the key stored in settings over the fallback from
// config or the environment.
func ResolveAPIKey(s model.Settings, fallback string) string {
	if k := strings.TrimSpace(s.GeminiAPIKey); k != "" {
		return k
	}
	return strings.TrimSpace(fallback)
}
