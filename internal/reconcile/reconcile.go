// Package reconcile repairs parsed estimator output so that item points are
// numbers and totals agree with their items. It never fails.
package reconcile

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/saadjs/points-cli/internal/model"
)

const (
	TotalTolerance  = 0.5
	DefaultFitScore = 0.5
)

type ItemDraft struct {
	Name           string          `json:"name"`
	AmountText     string          `json:"amountText"`
	Points         json.RawMessage `json:"points"`
	AssumedPortion bool            `json:"assumedPortion"`
	ReasonShort    string          `json:"reasonShort"`
}

type FoodDraft struct {
	Locale           string
	Raw              string
	Items            []ItemDraft
	DeclaredTotal    float64
	Confidence       json.RawMessage
	FollowUpQuestion string
	Warnings         []string
}

type SuggestionDraft struct {
	Title         string          `json:"title"`
	Items         []ItemDraft     `json:"items"`
	DeclaredTotal json.RawMessage `json:"pointsTotal"`
	Why           string          `json:"why"`
	FitScore      json.RawMessage `json:"fitScore"`
}

type RecommendationDraft struct {
	MealType        model.MealType
	PointsAvailable float64
	Suggestions     []SuggestionDraft
	Notes           string
}

var leadingNumberRe = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?`)

// Points coerces a raw JSON point value. Numbers pass through, strings are
// parsed from their leading number, anything else is zero.
func Points(raw json.RawMessage) float64 {
	v, ok := number(raw)
	if !ok {
		return 0
	}
	return v
}

func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	m := leadingNumberRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func Food(d FoodDraft) model.FoodResponse {
	items := make([]model.FoodItem, 0, len(d.Items))
	sum := 0.0
	for _, it := range d.Items {
		p := Points(it.Points)
		sum += p
		items = append(items, model.FoodItem{
			Name:           strings.TrimSpace(it.Name),
			AmountText:     strings.TrimSpace(it.AmountText),
			Points:         p,
			AssumedPortion: it.AssumedPortion,
			ReasonShort:    strings.TrimSpace(it.ReasonShort),
		})
	}
	total := d.DeclaredTotal
	if math.Abs(sum-total) > TotalTolerance {
		total = sum
	}
	warnings := d.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	confidence, _ := number(d.Confidence)
	return model.FoodResponse{
		Locale:           d.Locale,
		Raw:              d.Raw,
		Items:            items,
		PointsTotal:      total,
		Confidence:       clamp01(confidence),
		FollowUpQuestion: strings.TrimSpace(d.FollowUpQuestion),
		Warnings:         warnings,
	}
}

func Recommendation(d RecommendationDraft) model.RecommendationResponse {
	out := model.RecommendationResponse{
		MealType:        d.MealType,
		PointsAvailable: d.PointsAvailable,
		Suggestions:     make([]model.Suggestion, 0, len(d.Suggestions)),
		Notes:           strings.TrimSpace(d.Notes),
	}
	for _, s := range d.Suggestions {
		items := make([]model.SuggestionItem, 0, len(s.Items))
		sum := 0.0
		for _, it := range s.Items {
			p := Points(it.Points)
			sum += p
			items = append(items, model.SuggestionItem{
				Name:       strings.TrimSpace(it.Name),
				AmountText: strings.TrimSpace(it.AmountText),
				Points:     p,
			})
		}
		fit, ok := number(s.FitScore)
		if !ok {
			fit = DefaultFitScore
		}
		out.Suggestions = append(out.Suggestions, model.Suggestion{
			Title:       strings.TrimSpace(s.Title),
			Items:       items,
			PointsTotal: sum,
			Why:         strings.TrimSpace(s.Why),
			FitScore:    clamp01(fit),
		})
	}
	return out
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
