package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"socialgood/internal/infra"
	"socialgood/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
		showFlag     bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key to store (defaults to the provider's environment variable)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "acknowledgement provider: gemini or openai")
	flag.BoolVar(&showFlag, "show", false, "print the stored key masked instead of writing one")
	flag.Parse()

	provider, err := resolveProvider(providerFlag)
	if err != nil {
		exitWithError(err)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if cfg.DatabaseURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "geminikey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
	if err := store.EnsureSchema(ctx); err != nil {
		exitWithError(err)
	}

	if showFlag {
		stored, err := store.Token(ctx, provider)
		if err != nil {
			exitWithError(fmt.Errorf("read %s key: %w", provider, err))
		}
		if stored == "" {
			exitWithError(fmt.Errorf("no %s key stored", provider))
		}
		fmt.Printf("%s: %s\n", provider, maskKey(stored))
		return
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envVar(provider)))
	}
	if key == "" {
		exitWithError(fmt.Errorf("%s key is required via -key or %s", provider, envVar(provider)))
	}
	if err := store.SetToken(ctx, provider, key); err != nil {
		exitWithError(fmt.Errorf("store %s key: %w", provider, err))
	}
	logger.Info().Str("key", maskKey(key)).Msg("provider key stored")
}

func resolveProvider(raw string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case "":
		return credentials.ProviderGemini, nil
	case credentials.ProviderGemini, credentials.ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported provider %q", raw)
	}
}

func envVar(provider string) string {
	if provider == credentials.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// maskKey keeps the last four characters.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
