package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"socialgood/internal/adapter/repo"
	"socialgood/internal/http/httpapi"
	"socialgood/internal/infra"
	"socialgood/internal/metrics"
	"socialgood/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	backend, err := repo.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.RecordStore).Msg("failed to open record store")
	}
	defer backend.Close()
	logger.Info().Str("store", cfg.RecordStore).Msg("record store ready")

	pipeline := metrics.NewPipeline()

	svc, countries, err := buildService(ctx, cfg, backend, pipeline, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build donation service")
	}
	if countries != nil {
		defer countries.Close()
	}

	app, err := buildApp(cfg, svc, pipeline, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build handlers")
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Observer:        pipeline,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustedProxies:  proxies,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
