package acknowledge

import (
	"context"
)

// TextGenerator is satisfied by genai.Client.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiProvider composes acknowledgements through Gemini.
type GeminiProvider struct {
	client TextGenerator
}

// NewGeminiProvider wraps client; a nil client yields a provider that reports ErrNotConfigured.
func NewGeminiProvider(client TextGenerator) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (g *GeminiProvider) Name() string { return geminiProviderName }

func (g *GeminiProvider) Compose(ctx context.Context, in Thanks) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}
	return g.client.GenerateText(ctx, BuildPrompt(in))
}

var _ Provider = (*GeminiProvider)(nil)
