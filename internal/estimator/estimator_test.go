package estimator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/saadjs/points-cli/internal/metrics"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/provider/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	text     string
	err      error
	requests []gemini.Request
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, in gemini.Request) (string, []byte, error) {
	f.requests = append(f.requests, in)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, []byte(f.text), nil
}

func defaultContext() FoodContext {
	return FoodContext{DailyPoints: 23, UsedPoints: 8, RemainingPoints: 15, Locale: "de-DE"}
}

func TestEstimateBuildsPromptAndReconciles(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: `{
  "locale": "de-DE",
  "raw": "2 Scheiben Pizza und 1 Cola 0,33",
  "items": [
    {"name": "Pizza", "amountText": "2 Scheiben", "assumedPortion": false, "points": 12, "reasonShort": "energiedicht"},
    {"name": "Cola", "amountText": "330ml", "assumedPortion": false, "points": "4", "reasonShort": "Zucker"}
  ],
  "pointsTotal": 10,
  "confidence": 0.7,
  "followUpQuestion": "",
  "warnings": []
}`}
	m := metrics.NewCollector("")
	est := New(gen, WithRecorder(m))

	got, err := est.Estimate(context.Background(), "key-1", "gemini-2.0-flash", "2 Scheiben Pizza und 1 Cola 0,33", FoodContext{
		DailyPoints: 23, UsedPoints: 8, RemainingPoints: 15,
		DietaryPrefs: []string{"vegetarisch"},
		Locale:       "de-DE",
	})
	require.NoError(t, err)
	assert.Equal(t, 16.0, got.PointsTotal)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 4.0, got.Items[1].Points)
	assert.Equal(t, 0.7, got.Confidence)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "key-1", req.APIKey)
	assert.Equal(t, "gemini-2.0-flash", req.Model)
	assert.Contains(t, req.System, `"locale": "de-DE"`)
	assert.Contains(t, req.Prompt, "Tagespunktebudget: 23")
	assert.Contains(t, req.Prompt, "Bisher heute verbraucht: 8")
	assert.Contains(t, req.Prompt, "Verbleibend: 15")
	assert.Contains(t, req.Prompt, "Diätstil/Präferenzen: vegetarisch")
	assert.Contains(t, req.Prompt, "No-Gos/Allergien: keine")
	assert.True(t, strings.HasSuffix(req.Prompt, "2 Scheiben Pizza und 1 Cola 0,33"))
	assert.Equal(t, 1, m.EstimatorCalls(OpEstimate, "ok"))
}

func TestEstimateUsesEnglishPromptsForEnglishLocale(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: `{"items": [], "pointsTotal": 0}`}
	fc := defaultContext()
	fc.Locale = "en-US"
	_, err := New(gen).Estimate(context.Background(), "k", "", "an apple", fc)
	require.NoError(t, err)
	assert.Contains(t, gen.requests[0].Prompt, "Daily points budget: 23")
	assert.Contains(t, gen.requests[0].Prompt, "Exclusions/allergies: none")
}

func TestEstimateSchemaErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        `Ich denke, das sind 5 Punkte.`,
		"total string":    `{"items": [], "pointsTotal": "5"}`,
		"total missing":   `{"items": []}`,
		"total null":      `{"items": [], "pointsTotal": null}`,
		"items object":    `{"items": {"name": "Apfel"}, "pointsTotal": 1}`,
		"items missing":   `{"pointsTotal": 1}`,
		"item wrong type": `{"items": [{"name": 5, "points": 1}], "pointsTotal": 1}`,
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m := metrics.NewCollector("")
			_, err := New(&fakeGenerator{text: payload}, WithRecorder(m)).Estimate(context.Background(), "k", "", "Apfel", defaultContext())
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, OpEstimate, schemaErr.Op)
			assert.Equal(t, 1, m.EstimatorCalls(OpEstimate, "schema_error"))
			assert.Zero(t, m.EstimatorCalls(OpEstimate, "ok"))
		})
	}
}

func TestEstimateAcceptsCodeFence(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "```json\n{\"items\": [{\"name\": \"Apfel\", \"points\": 0}], \"pointsTotal\": 0}\n```"}
	got, err := New(gen).Estimate(context.Background(), "k", "", "Apfel", defaultContext())
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, "Apfel", got.Raw)
	assert.Equal(t, "de-DE", got.Locale)
}

func TestEstimateRemoteFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: &gemini.APIError{StatusCode: 403, Message: "API key not valid"}}
	_, err := New(gen).Estimate(context.Background(), "bad", "", "Apfel", defaultContext())
	var remoteErr *RemoteCallError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 403, remoteErr.StatusCode)

	var apiErr *gemini.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestEstimateRequiresText(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	_, err := New(gen).Estimate(context.Background(), "k", "", "   ", defaultContext())
	require.Error(t, err)
	assert.Empty(t, gen.requests)
}

func recommendationPayload(n int) string {
	suggestion := `{"title": "Gemüsepfanne", "items": [{"name": "Gemüse", "amountText": "300g", "points": 2}, {"name": "Reis", "amountText": "100g", "points": "4"}], "pointsTotal": 99, "why": "leicht", "fitScore": 0.8}`
	parts := make([]string, n)
	for i := range parts {
		parts[i] = suggestion
	}
	return `{"mealType": "dinner", "pointsAvailable": 9, "suggestions": [` + strings.Join(parts, ",") + `], "notes": ""}`
}

func TestRecommendRequiresExactlyThreeSuggestions(t *testing.T) {
	t.Parallel()

	rc := RecommendationContext{MealType: model.MealDinner, PointsAvailable: 9, Locale: "de-DE"}
	for _, n := range []int{2, 4} {
		_, err := New(&fakeGenerator{text: recommendationPayload(n)}).Recommend(context.Background(), "k", "", rc)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr, "n=%d", n)
		assert.Equal(t, OpRecommend, schemaErr.Op)
	}

	got, err := New(&fakeGenerator{text: recommendationPayload(3)}).Recommend(context.Background(), "k", "", rc)
	require.NoError(t, err)
	require.Len(t, got.Suggestions, 3)
	for _, s := range got.Suggestions {
		assert.Equal(t, 6.0, s.PointsTotal)
	}
	assert.Equal(t, model.MealDinner, got.MealType)
	assert.Equal(t, 9.0, got.PointsAvailable)
}

func TestRecommendPromptIncludesContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: recommendationPayload(3)}
	_, err := New(gen).Recommend(context.Background(), "k", "", RecommendationContext{
		MealType:        model.MealDinner,
		PointsAvailable: 9.5,
		TodaysLog:       []MealSummary{{Meal: model.MealBreakfast, Items: []string{"Müsli", "Kaffee"}, Points: 6}},
		Favorites:       []string{"Lachs"},
		NoGos:           []string{"Nüsse"},
		Locale:          "de-DE",
	})
	require.NoError(t, err)
	p := gen.requests[0].Prompt
	assert.Contains(t, p, "- mealType: dinner")
	assert.Contains(t, p, "- pointsAvailable: 9.5")
	assert.Contains(t, p, "breakfast: Müsli, Kaffee (6 Punkte)")
	assert.Contains(t, p, "- favorites: Lachs")
	assert.Contains(t, p, "- frequentFoods: keine bekannt")
	assert.Contains(t, p, "- noGos: Nüsse")
}

func TestRecommendSuggestionsNotAList(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeGenerator{text: `{"suggestions": "drei"}`}).Recommend(context.Background(), "k", "", RecommendationContext{MealType: model.MealLunch})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	ok := &fakeGenerator{text: "Hallo"}
	assert.True(t, New(ok).ValidateKey(context.Background(), "k", "gemini-2.0-flash"))
	require.Len(t, ok.requests, 1)
	assert.Equal(t, 10, ok.requests[0].MaxOutputTokens)
	assert.True(t, ok.requests[0].PlainText)

	bad := &fakeGenerator{err: &gemini.APIError{StatusCode: 400}}
	assert.False(t, New(bad).ValidateKey(context.Background(), "k", "gemini-2.0-flash"))
}
