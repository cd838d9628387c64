package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neexbeast/weather-cache/internal/api"
	"github.com/neexbeast/weather-cache/internal/config"
	"github.com/neexbeast/weather-cache/internal/openweather"
	"github.com/neexbeast/weather-cache/internal/storage"
	"github.com/neexbeast/weather-cache/internal/telemetry"
	"github.com/neexbeast/weather-cache/internal/weather"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg, log := a.cfg, a.log

	if cfg.OpenWeather.APIKey == "" {
		log.Warn("no OpenWeatherMap API key configured; provider calls will be rejected",
			zap.String("env", config.APIKeyEnv))
	}

	tz, err := cfg.Location()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("telemetry disabled", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Connect to the cache datastore.
	autoProvision := cfg.Cache.Backend == config.BackendPostgres ||
		(cfg.Cache.Backend == config.BackendMongo && cfg.Mongo.EnsureIndexes)
	be, err := openBackend(ctx, cfg, log, autoProvision)
	if err != nil {
		return fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
	}
	defer be.close()

	if repo, ok := be.store.(*storage.Repository); ok {
		sweeper := storage.NewSweeper(repo, cfg.Cache.TTL, cfg.Postgres.SweepInterval, log)
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("starting expiry sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	// Wire dependencies.
	provider := openweather.NewClient(openweather.Config{
		BaseURL:      cfg.OpenWeather.BaseURL,
		APIKey:       cfg.OpenWeather.APIKey,
		Units:        cfg.OpenWeather.Units,
		ForecastDays: cfg.OpenWeather.ForecastDays,
		Timeout:      cfg.OpenWeather.Timeout,
		Retry: openweather.RetryPolicy{
			MaxRetries:      cfg.OpenWeather.MaxRetries,
			InitialInterval: cfg.OpenWeather.RetryInitial,
			MaxInterval:     cfg.OpenWeather.RetryMax,
		},
		BreakerFailures: cfg.OpenWeather.BreakerFailures,
		BreakerTimeout:  cfg.OpenWeather.BreakerTimeout,
		RatePerSecond:   cfg.OpenWeather.RatePerSecond,
		Burst:           cfg.OpenWeather.Burst,
	})

	svc := weather.NewService(be.store, provider, log,
		weather.WithTracer(tel.Tracer()),
		weather.WithLocation(tz),
	)

	handlers := api.NewHandlers(svc, log)
	router := api.NewRouter(handlers, api.RouterConfig{
		BearerToken:     cfg.Server.BearerToken,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, be.store, log)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", zap.Any("recover", r))
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.Duration("cache_ttl", cfg.Cache.TTL),
			zap.Bool("telemetry", tel.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	// Graceful shutdown on SIGINT / SIGTERM.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}
