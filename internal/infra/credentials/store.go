package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialgood/internal/infra"
	"socialgood/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Store keeps generative-text provider keys in Postgres so operators can
// rotate them without redeploying the API.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// EnsureSchema creates the integration_tokens table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateIntegrationTokens); err != nil {
		return fmt.Errorf("credentials: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderGemini, key)
}

func (s *Store) SetOpenAIAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderOpenAI, key)
}

// SetToken upserts the key for provider.
func (s *Store) SetToken(ctx context.Context, provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New(provider + " api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key)
	return err
}
