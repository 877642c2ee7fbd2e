package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestGenerateContentSendsGeminiRequest(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "candidates": [
    {"content": {"role": "model", "parts": [{"text": "{\"pointsTotal\": 3, \"items\": []}"}]}, "finishReason": "STOP"}
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	text, _, err := c.GenerateContent(context.Background(), Request{
		APIKey: "demo-key",
		Model:  "gemini-1.5-flash",
		System: "system text",
		Prompt: "Apfel",
	})
	if err != nil {
		t.Fatalf("generate content: %v", err)
	}
	if text != `{"pointsTotal": 3, "items": []}` {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "demo-key" {
		t.Fatalf("expected api key in query, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" || gotBody.Contents[0].Parts[0].Text != "Apfel" {
		t.Fatalf("unexpected contents: %+v", gotBody.Contents)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "system text" {
		t.Fatalf("expected system instruction, got %+v", gotBody.SystemInstruction)
	}
	cfg := gotBody.GenerationConfig
	if cfg.ResponseMimeType != "application/json" || cfg.Temperature != DefaultTemperature || cfg.MaxOutputTokens != DefaultMaxOutputTokens {
		t.Fatalf("unexpected generation config: %+v", cfg)
	}
}

func TestGenerateContentSendsZeroTemperature(t *testing.T) {
	t.Parallel()

	var gotBody generateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "{}"}]}}]}`))
	}))
	defer ts.Close()

	zero := 0.0
	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, _, err := c.GenerateContent(context.Background(), Request{APIKey: "k", Model: "m", Prompt: "Apfel", Temperature: &zero}); err != nil {
		t.Fatalf("generate content: %v", err)
	}
	if gotBody.GenerationConfig.Temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", gotBody.GenerationConfig.Temperature)
	}
}

func TestGenerateContentNonSuccessStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "bad", BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, body, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if len(body) == 0 {
		t.Fatalf("expected raw body to be returned")
	}
}

func TestGenerateContentErrorObjectInSuccessBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded"}}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "quota exceeded" {
		t.Fatalf("expected quota APIError, got %v", err)
	}
}

func TestGenerateContentNoCandidates(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateContentRequiresAPIKey(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if _, _, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestGenerateContentHonorsCancellation(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := &Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.GenerateContent(ctx, Request{Prompt: "Hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := &Client{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client(), Breaker: NewBreaker(time.Minute)}
	for i := 0; i < 3; i++ {
		if _, _, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"}); err == nil {
			t.Fatalf("call %d: expected failure", i+1)
		}
	}
	_, _, err := c.GenerateContent(context.Background(), Request{Prompt: "Hi"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 upstream calls, got %d", calls.Load())
	}
}
