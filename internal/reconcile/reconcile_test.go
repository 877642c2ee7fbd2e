package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestPointsCoercion(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		`3`:           3,
		`4.5`:         4.5,
		`"4"`:         4,
		`"2,5"`:       2.5,
		`"7 Punkte"`:  7,
		`"bad"`:       0,
		`null`:        0,
		`true`:        0,
		`{"v": 1}`:    0,
		``:            0,
		`"  -1 pt  "`: -1,
	}
	for in, want := range cases {
		assert.Equal(t, want, Points(raw(in)), "input %s", in)
	}
}

func TestFoodReplacesTotalBeyondTolerance(t *testing.T) {
	t.Parallel()

	got := Food(FoodDraft{
		Items: []ItemDraft{
			{Name: "Brot", Points: raw(`3`)},
			{Name: "Käse", Points: raw(`"4"`)},
			{Name: "Butter", Points: raw(`"bad"`)},
		},
		DeclaredTotal: 0,
	})

	require.Len(t, got.Items, 3)
	assert.Equal(t, 3.0, got.Items[0].Points)
	assert.Equal(t, 4.0, got.Items[1].Points)
	assert.Equal(t, 0.0, got.Items[2].Points)
	assert.Equal(t, 7.0, got.PointsTotal)
	assert.NotNil(t, got.Warnings)
}

func TestFoodKeepsTotalWithinTolerance(t *testing.T) {
	t.Parallel()

	got := Food(FoodDraft{
		Items: []ItemDraft{
			{Name: "Pizza", Points: raw(`6.3`)},
			{Name: "Cola", Points: raw(`4`)},
		},
		DeclaredTotal: 10.0,
	})
	assert.InDelta(t, 10.3, got.Items[0].Points+got.Items[1].Points, 1e-9)
	assert.Equal(t, 10.0, got.PointsTotal)
}

func TestFoodToleranceBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	got := Food(FoodDraft{Items: []ItemDraft{{Name: "x", Points: raw(`5.5`)}}, DeclaredTotal: 5})
	assert.Equal(t, 5.0, got.PointsTotal)

	got = Food(FoodDraft{Items: []ItemDraft{{Name: "x", Points: raw(`5.75`)}}, DeclaredTotal: 5})
	assert.Equal(t, 5.75, got.PointsTotal)
}

func TestFoodConfidenceIsClamped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Food(FoodDraft{Confidence: raw(`1.7`)}).Confidence)
	assert.Equal(t, 0.6, Food(FoodDraft{Confidence: raw(`"0.6"`)}).Confidence)
	assert.Equal(t, 0.0, Food(FoodDraft{}).Confidence)
}

func TestRecommendationAlwaysRecomputesTotals(t *testing.T) {
	t.Parallel()

	got := Recommendation(RecommendationDraft{
		MealType:        "dinner",
		PointsAvailable: 9,
		Suggestions: []SuggestionDraft{
			{Title: "A", Items: []ItemDraft{{Name: "Reis", Points: raw(`4`)}, {Name: "Gemüse", Points: raw(`"0.2"`)}}, DeclaredTotal: raw(`4`), FitScore: raw(`0.9`)},
			{Title: "B", Items: []ItemDraft{{Name: "Suppe", Points: raw(`3`)}}, DeclaredTotal: raw(`3`)},
			{Title: "C", Items: []ItemDraft{{Name: "Salat", Points: raw(`"x"`)}}, DeclaredTotal: raw(`"viele"`), FitScore: raw(`"hoch"`)},
		},
	})

	require.Len(t, got.Suggestions, 3)
	assert.InDelta(t, 4.2, got.Suggestions[0].PointsTotal, 1e-9)
	assert.Equal(t, 0.9, got.Suggestions[0].FitScore)
	assert.Equal(t, 3.0, got.Suggestions[1].PointsTotal)
	assert.Equal(t, DefaultFitScore, got.Suggestions[1].FitScore)
	assert.Equal(t, 0.0, got.Suggestions[2].PointsTotal)
	assert.Equal(t, DefaultFitScore, got.Suggestions[2].FitScore)
}
