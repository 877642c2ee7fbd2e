package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL         = "https://generativelanguage.googleapis.com"
	DefaultModel           = "gemini-2.0-flash"
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2048
)

var SupportedModels = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}

var ErrEmptyResponse = errors.New("gemini returned no candidate text")

// APIError is a non-2xx response or an error object in the response body.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini request failed with status %d: %s", e.StatusCode, e.Message)
}

type Request struct {
	APIKey          string
	Model           string
	System          string
	Prompt          string
	MaxOutputTokens int
	// Temperature nil uses DefaultTemperature. Zero is sent as is.
	Temperature *float64
	// PlainText disables the JSON response mime type.
	PlainText bool
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
}

// NewBreaker opens after three consecutive failures and probes again after
// the cooldown.
func NewBreaker(cooldown time.Duration) *gobreaker.CircuitBreaker {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

type result struct {
	text string
	body []byte
}

// GenerateContent returns the first candidate's text and the raw body.
func (c *Client) GenerateContent(ctx context.Context, in Request) (string, []byte, error) {
	if c.Breaker == nil {
		return c.generate(ctx, in)
	}
	out, err := c.Breaker.Execute(func() (any, error) {
		text, body, err := c.generate(ctx, in)
		return result{text: text, body: body}, err
	})
	if err != nil {
		if r, ok := out.(result); ok {
			return "", r.body, err
		}
		return "", nil, err
	}
	r := out.(result)
	return r.text, r.body, nil
}

func (c *Client) generate(ctx context.Context, in Request) (string, []byte, error) {
	apiKey := strings.TrimSpace(in.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(c.APIKey)
	}
	if apiKey == "" {
		return "", nil, fmt.Errorf("missing Gemini API key")
	}
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	payload, err := json.Marshal(buildRequestBody(in))
	if err != nil {
		return "", nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, url.PathEscape(model), url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("execute gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read gemini response: %w", err)
	}

	var parsed generateResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		if decodeErr == nil && parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
		}
		return "", body, apiErr
	}
	if decodeErr != nil {
		return "", body, fmt.Errorf("decode gemini response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return "", body, &APIError{StatusCode: parsed.Error.Code, Status: parsed.Error.Status, Message: parsed.Error.Message}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", body, ErrEmptyResponse
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", body, ErrEmptyResponse
	}
	return text, body, nil
}

func buildRequestBody(in Request) generateRequest {
	temperature := DefaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	maxTokens := in.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: in.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if !in.PlainText {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	if strings.TrimSpace(in.System) != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: in.System}}}
	}
	return body
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
