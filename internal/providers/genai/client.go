package genai

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

	"github.com/rs/zerolog"

	"socialgood/internal/infra"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// ErrEmptyResponse is returned when Gemini answers without any text part.
var ErrEmptyResponse = errors.New("genai: empty response")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client calls the Gemini generateContent endpoint for plain text output.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      zerolog.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature    float64 `json:"temperature,omitempty"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type generateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. A missing API key is an error; callers
// that treat Gemini as optional should skip construction instead.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("genai: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		httpClient:  client,
		logger:      infra.OrDiscard(opts.Logger),
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateText sends a single user prompt and returns the first non-empty text part.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload := generateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:    c.temperature,
			CandidateCount: 1,
		},
	}

	var out generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, path, payload, &out); err != nil {
		return "", err
	}

	for _, candidate := range out.Candidates {
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			c.logger.Debug().
				Str("model", c.model).
				Str("finish_reason", candidate.FinishReason).
				Int("chars", len(text)).
				Msg("genai: generated text")
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke gemini: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("genai: gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if msg := strings.TrimSpace(string(data)); msg != "" {
			return fmt.Errorf("genai: gemini status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("genai: gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode gemini response: %w", err)
	}
	return nil
}
