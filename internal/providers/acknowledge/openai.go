package acknowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	OnWarning    func(reason, detail string)
}

// OpenAIProvider composes acknowledgements through the chat completions API.
type OpenAIProvider struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
}

const openAIDefaultTimeout = 15 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-3.5-turbo": "gpt-3.5-turbo",
	"gpt-4o-mini":   "gpt-4o-mini",
	"gpt-4o":        "gpt-4o",
}

var openAIModelAliases = map[string]string{
	"gpt-3.5":                "gpt-3.5-turbo",
	"gpt3.5":                 "gpt-3.5-turbo",
	"gpt-35-turbo":           "gpt-3.5-turbo",
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIProvider returns a provider; a blank key yields one that reports ErrNotConfigured.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	model, reason := normalizeOpenAIModel(modelInput)
	if reason != "" && opts.OnWarning != nil {
		requested := modelInput
		if requested == "" {
			requested = defaultOpenAIModel
		}
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", requested, model))
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIProvider{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
	}
}

func (o *OpenAIProvider) Name() string { return openAIProviderName }

// Model returns the resolved model identifier.
func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) Compose(ctx context.Context, in Thanks) (string, error) {
	if o == nil || o.apiKey == "" {
		return "", ErrNotConfigured
	}
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.7,
		MaxTokens:   400,
		Messages: []openAIMessage{
			{Role: "system", Content: "You write short, sincere thank-you emails for a charity. Reply with the email body only."},
			{Role: "user", Content: BuildPrompt(in)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var _ Provider = (*OpenAIProvider)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
