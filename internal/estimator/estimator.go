package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/provider/gemini"
	"github.com/saadjs/points-cli/internal/reconcile"
	"go.uber.org/zap"
)

const (
	OpEstimate    = "estimate"
	OpRecommend   = "recommend"
	OpValidateKey = "validate_key"

	SuggestionCount = 3
)

// RemoteCallError means the remote call failed or returned a non-success status.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: remote call failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// SchemaError means the payload was not the expected JSON shape.
type SchemaError struct {
	Op     string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid response: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Op, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

type Generator interface {
	GenerateContent(ctx context.Context, in gemini.Request) (string, []byte, error)
}

type Recorder interface {
	EstimatorCall(operation, outcome string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) EstimatorCall(string, string, time.Duration) {}

type FoodContext struct {
	DailyPoints     float64
	UsedPoints      float64
	RemainingPoints float64
	DietaryPrefs    []string
	NoGos           []string
	Locale          string
}

type MealSummary struct {
	Meal   model.MealType
	Items  []string
	Points float64
}

type RecommendationContext struct {
	MealType        model.MealType
	PointsAvailable float64
	TodaysLog       []MealSummary
	Favorites       []string
	FrequentFoods   []string
	DietaryPrefs    []string
	NoGos           []string
	Locale          string
}

type Estimator struct {
	gen      Generator
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Estimator)

func WithRecorder(r Recorder) Option {
	return func(e *Estimator) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(gen Generator, opts ...Option) *Estimator {
	e := &Estimator{gen: gen, recorder: noopRecorder{}, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type rawFoodResponse struct {
	Locale           string          `json:"locale"`
	Raw              string          `json:"raw"`
	Items            json.RawMessage `json:"items"`
	PointsTotal      json.RawMessage `json:"pointsTotal"`
	Confidence       json.RawMessage `json:"confidence"`
	FollowUpQuestion string          `json:"followUpQuestion"`
	Warnings         []string        `json:"warnings"`
}

type rawRecommendationResponse struct {
	MealType        model.MealType  `json:"mealType"`
	PointsAvailable json.RawMessage `json:"pointsAvailable"`
	Suggestions     json.RawMessage `json:"suggestions"`
	Notes           string          `json:"notes"`
}

func (e *Estimator) Estimate(ctx context.Context, credential, modelID, foodText string, fc FoodContext) (model.FoodResponse, error) {
	if strings.TrimSpace(foodText) == "" {
		return model.FoodResponse{}, fmt.Errorf("food text is required")
	}
	if fc.Locale == "" {
		fc.Locale = "de-DE"
	}
	res, err := e.call(ctx, OpEstimate, gemini.Request{
		APIKey: credential,
		Model:  modelID,
		System: foodSystemPrompt(fc.Locale),
		Prompt: foodUserPrompt(foodText, fc),
	})
	if err != nil {
		return model.FoodResponse{}, err
	}

	var raw rawFoodResponse
	if err := json.Unmarshal([]byte(stripCodeFence(res.text)), &raw); err != nil {
		return model.FoodResponse{}, e.schemaFailure(res, "payload is not a JSON object", err)
	}
	total, ok := jsonNumber(raw.PointsTotal)
	if !ok {
		return model.FoodResponse{}, e.schemaFailure(res, "pointsTotal is not a number", nil)
	}
	var items []reconcile.ItemDraft
	if !isJSONArray(raw.Items) {
		return model.FoodResponse{}, e.schemaFailure(res, "items is not a list", nil)
	}
	if err := json.Unmarshal(raw.Items, &items); err != nil {
		return model.FoodResponse{}, e.schemaFailure(res, "items have the wrong shape", err)
	}

	locale := raw.Locale
	if locale == "" {
		locale = fc.Locale
	}
	rawText := raw.Raw
	if rawText == "" {
		rawText = foodText
	}
	e.succeeded(res)
	return reconcile.Food(reconcile.FoodDraft{
		Locale:           locale,
		Raw:              rawText,
		Items:            items,
		DeclaredTotal:    total,
		Confidence:       raw.Confidence,
		FollowUpQuestion: raw.FollowUpQuestion,
		Warnings:         raw.Warnings,
	}), nil
}

func (e *Estimator) Recommend(ctx context.Context, credential, modelID string, rc RecommendationContext) (model.RecommendationResponse, error) {
	if rc.Locale == "" {
		rc.Locale = "de-DE"
	}
	res, err := e.call(ctx, OpRecommend, gemini.Request{
		APIKey: credential,
		Model:  modelID,
		System: recommendationSystemPrompt(rc.Locale),
		Prompt: recommendationUserPrompt(rc),
	})
	if err != nil {
		return model.RecommendationResponse{}, err
	}

	var raw rawRecommendationResponse
	if err := json.Unmarshal([]byte(stripCodeFence(res.text)), &raw); err != nil {
		return model.RecommendationResponse{}, e.schemaFailure(res, "payload is not a JSON object", err)
	}
	if !isJSONArray(raw.Suggestions) {
		return model.RecommendationResponse{}, e.schemaFailure(res, "suggestions is not a list", nil)
	}
	var suggestions []reconcile.SuggestionDraft
	if err := json.Unmarshal(raw.Suggestions, &suggestions); err != nil {
		return model.RecommendationResponse{}, e.schemaFailure(res, "suggestions have the wrong shape", err)
	}
	if len(suggestions) != SuggestionCount {
		return model.RecommendationResponse{}, e.schemaFailure(res, fmt.Sprintf("expected %d suggestions, got %d", SuggestionCount, len(suggestions)), nil)
	}

	mealType := raw.MealType
	if !mealType.Valid() {
		mealType = rc.MealType
	}
	available, ok := jsonNumber(raw.PointsAvailable)
	if !ok {
		available = rc.PointsAvailable
	}
	e.succeeded(res)
	return reconcile.Recommendation(reconcile.RecommendationDraft{
		MealType:        mealType,
		PointsAvailable: available,
		Suggestions:     suggestions,
		Notes:           raw.Notes,
	}), nil
}

// ValidateKey sends a tiny prompt and reports whether the key is accepted.
func (e *Estimator) ValidateKey(ctx context.Context, credential, modelID string) bool {
	res, err := e.call(ctx, OpValidateKey, gemini.Request{
		APIKey:          credential,
		Model:           modelID,
		Prompt:          "Hi",
		MaxOutputTokens: 10,
		PlainText:       true,
	})
	if err != nil {
		return false
	}
	e.succeeded(res)
	return true
}

type callResult struct {
	op      string
	text    string
	elapsed time.Duration
}

func (e *Estimator) call(ctx context.Context, op string, req gemini.Request) (callResult, error) {
	start := e.now()
	text, _, err := e.gen.GenerateContent(ctx, req)
	res := callResult{op: op, text: text, elapsed: e.now().Sub(start)}
	if err != nil {
		e.recorder.EstimatorCall(op, "remote_error", res.elapsed)
		e.logger.Debug("estimator call failed", zap.String("op", op), zap.String("model", req.Model), zap.Duration("elapsed", res.elapsed), zap.Error(err))
		rerr := &RemoteCallError{Op: op, Err: err}
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			rerr.StatusCode = apiErr.StatusCode
		}
		return res, rerr
	}
	e.logger.Debug("estimator call", zap.String("op", op), zap.String("model", req.Model), zap.Duration("elapsed", res.elapsed))
	return res, nil
}

func (e *Estimator) succeeded(res callResult) {
	e.recorder.EstimatorCall(res.op, "ok", res.elapsed)
}

func (e *Estimator) schemaFailure(res callResult, reason string, err error) error {
	e.recorder.EstimatorCall(res.op, "schema_error", res.elapsed)
	e.logger.Debug("estimator response rejected", zap.String("op", res.op), zap.String("reason", reason), zap.Error(err))
	return &SchemaError{Op: res.op, Reason: reason, Err: err}
}

func jsonNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// stripCodeFence removes a ```json fence some models add despite the mime type.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
