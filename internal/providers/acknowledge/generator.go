package acknowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialgood/internal/domain"
	"socialgood/internal/infra"
)

const (
	staticProviderName = "static"
	geminiProviderName = "gemini"
	openAIProviderName = "openai"

	defaultTimeout = 15 * time.Second
)

// ErrNotConfigured marks a provider that has no credentials and should be skipped.
var ErrNotConfigured = errors.New("acknowledge: provider not configured")

// Thanks carries the donor facts a provider needs to write a message.
type Thanks struct {
	DonorName string
	Amount    float64
	Currency  string
}

// Provider composes an acknowledgement body.
type Provider interface {
	Name() string
	Compose(ctx context.Context, in Thanks) (string, error)
}

// Acknowledgement is the generated message plus where it came from.
type Acknowledgement struct {
	Body           string
	Provider       string
	FallbackReason string
}

// Options configures a Generator.
type Options struct {
	Providers  []Provider
	Timeout    time.Duration
	Logger     *infra.Logger
	OnFallback func(provider, reason string, err error)
}

// Generator tries each provider in order and degrades to the static template.
type Generator struct {
	providers  []Provider
	static     StaticProvider
	timeout    time.Duration
	logger     zerolog.Logger
	onFallback func(provider, reason string, err error)
}

// NewGenerator builds a generator. Nil providers are dropped.
func NewGenerator(opts Options) *Generator {
	providers := make([]Provider, 0, len(opts.Providers))
	for _, p := range opts.Providers {
		if p != nil {
			providers = append(providers, p)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		providers:  providers,
		timeout:    timeout,
		logger:     infra.OrDiscard(opts.Logger),
		onFallback: opts.OnFallback,
	}
}

// Generate never fails: the static template is the last resort.
func (g *Generator) Generate(ctx context.Context, name string, amount float64, currency string) Acknowledgement {
	in := Thanks{DonorName: name, Amount: amount, Currency: currency}
	reason := ""
	for _, p := range g.providers {
		body, err := g.compose(ctx, p, in)
		if err == nil {
			return Acknowledgement{Body: body, Provider: p.Name(), FallbackReason: reason}
		}
		err = fmt.Errorf("%w: %s: %w", domain.ErrGeneration, p.Name(), err)
		reason = fallbackReason(err)
		if !errors.Is(err, ErrNotConfigured) {
			g.logger.Warn().
				Err(err).
				Str("provider", p.Name()).
				Str("reason", reason).
				Msg("acknowledge: provider failed; trying next")
		}
		if g.onFallback != nil {
			g.onFallback(p.Name(), reason, err)
		}
	}
	if reason == "" {
		reason = "no_providers"
	}
	body, _ := g.static.Compose(ctx, in)
	return Acknowledgement{Body: body, Provider: staticProviderName, FallbackReason: reason}
}

func (g *Generator) compose(ctx context.Context, p Provider, in Thanks) (body string, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("acknowledge: %s panicked: %v", p.Name(), r)
		}
	}()
	body, err = p.Compose(ctx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", errEmptyBody
	}
	return body, nil
}

var errEmptyBody = errors.New("acknowledge: empty body")

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "missing_api_key"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errEmptyBody):
		return "empty_response"
	default:
		return "provider_error"
	}
}
