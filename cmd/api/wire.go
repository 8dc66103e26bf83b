package main

import (
	"context"
	"time"

	"socialgood/internal/adapter/repo"
	"socialgood/internal/content"
	"socialgood/internal/donation"
	"socialgood/internal/http/handlers"
	"socialgood/internal/infra"
	"socialgood/internal/infra/credentials"
	"socialgood/internal/infra/geoip"
	"socialgood/internal/mailer"
	"socialgood/internal/metrics"
	"socialgood/internal/middleware"
	"socialgood/internal/providers/acknowledge"
	"socialgood/internal/providers/genai"
	"socialgood/internal/providers/paypal"
	"socialgood/internal/storage"
)

// buildService wires the orchestrator. The returned resolver is nil when no
// GeoIP database is configured.
func buildService(ctx context.Context, cfg *infra.Config, backend *repo.Backend, pipeline *metrics.Pipeline, logger *infra.Logger) (*donation.Service, *geoip.Resolver, error) {
	loadStoredKeys(ctx, cfg, backend, logger)

	opts := donation.Options{
		Store:         backend.Store,
		Acknowledger:  buildGenerator(cfg, logger),
		Metrics:       pipeline,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	}

	deliverer, err := buildDispatcher(cfg, pipeline, logger)
	if err != nil {
		return nil, nil, err
	}
	opts.Deliverer = deliverer

	if cfg.PayPalClientID != "" && cfg.PayPalClientSecret != "" {
		client, err := paypal.NewClient(paypal.Options{
			ClientID:     cfg.PayPalClientID,
			ClientSecret: cfg.PayPalClientSecret,
			Mode:         cfg.PayPalMode,
			BaseURL:      cfg.PayPalBaseURL,
			Logger:       logger,
		})
		if err != nil {
			return nil, nil, err
		}
		opts.Payments = client
		logger.Info().Str("mode", cfg.PayPalMode).Str("base_url", client.BaseURL()).Msg("paypal payments enabled")
	} else {
		logger.Warn().Bool("credentials", false).Msg("paypal not configured; payment routes disabled")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		resolver = nil
	}
	if resolver != nil {
		opts.Countries = resolver
	}

	svc, err := donation.NewService(opts)
	if err != nil {
		if resolver != nil {
			_ = resolver.Close()
		}
		return nil, nil, err
	}
	return svc, resolver, nil
}

// loadStoredKeys fills provider keys missing from the environment with the
// ones kept in Postgres by cmd/geminikey.
func loadStoredKeys(ctx context.Context, cfg *infra.Config, backend *repo.Backend, logger *infra.Logger) {
	if backend.Pool == nil || (cfg.GeminiAPIKey != "" && cfg.OpenAIAPIKey != "") {
		return
	}
	store := credentials.NewStore(infra.NewSQLRunner(backend.Pool, *logger))
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("credentials: ensure schema failed")
		return
	}
	if cfg.GeminiAPIKey == "" {
		if key, err := store.GeminiAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("credentials: load gemini key failed")
		} else {
			cfg.GeminiAPIKey = key
		}
	}
	if cfg.OpenAIAPIKey == "" {
		if key, err := store.OpenAIAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("credentials: load openai key failed")
		} else {
			cfg.OpenAIAPIKey = key
		}
	}
}

func buildGenerator(cfg *infra.Config, logger *infra.Logger) *acknowledge.Generator {
	var providers []acknowledge.Provider

	gemini := acknowledge.NewGeminiProvider(nil)
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(genai.Options{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("genai: client disabled")
		} else {
			gemini = acknowledge.NewGeminiProvider(client)
		}
	}
	providers = append(providers, gemini)

	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, acknowledge.NewOpenAIProvider(acknowledge.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("acknowledge: openai model adjusted")
			},
		}))
	}

	logger.Info().
		Bool("gemini", cfg.GeminiAPIKey != "").
		Bool("openai", cfg.OpenAIAPIKey != "").
		Msg("acknowledgement providers configured")

	return acknowledge.NewGenerator(acknowledge.Options{
		Providers: providers,
		Timeout:   cfg.ExternalCallTimeout,
		Logger:    logger,
	})
}

func buildDispatcher(cfg *infra.Config, pipeline *metrics.Pipeline, logger *infra.Logger) (*mailer.Dispatcher, error) {
	outbox, err := storage.NewFileStore(cfg.OutboxDir)
	if err != nil {
		return nil, err
	}
	opts := mailer.DispatcherOptions{
		Fallback: mailer.NewOutboxSender(outbox, logger),
		Logger:   logger,
		OnResult: pipeline.Delivered,
	}

	creds := mailer.Credentials{User: cfg.MailUser, Password: cfg.MailPassword}
	if creds.Configured() {
		smtp, err := mailer.NewSMTPSender(mailer.SMTPOptions{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			FromName:    cfg.MailFromName,
			Credentials: creds,
			Timeout:     cfg.ExternalCallTimeout,
		})
		if err != nil {
			return nil, err
		}
		opts.Primary = smtp
	}
	logger.Info().
		Bool("credentials", creds.Configured()).
		Str("outbox", outbox.BasePath()).
		Msg("mail delivery configured")

	return mailer.NewDispatcher(opts), nil
}

func buildApp(cfg *infra.Config, svc *donation.Service, pipeline *metrics.Pipeline, logger infra.Logger) (*handlers.App, error) {
	sessions, err := middleware.NewSessions(cfg.SessionSecret, cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		logger.Warn().Msg("SESSION_SECRET not set; admin sessions reset on restart")
	}

	pages, err := content.NewStore(cfg.ContentDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.ContentDir).Msg("content store disabled")
		pages = nil
	}

	return &handlers.App{
		Donations: svc,
		Content:   pages,
		Sessions:  sessions,
		Passwords: middleware.PasswordChecker{Plain: cfg.AdminPassword, Hash: cfg.AdminPasswordHash},
		Metrics:   pipeline.Handler(),
		AppEnv:    cfg.AppEnv,
		Logger:    logger,
	}, nil
}
