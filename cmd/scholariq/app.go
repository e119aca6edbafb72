package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/keshavgujrathi/scholariq/internal/analysis"
	"github.com/keshavgujrathi/scholariq/internal/api"
	"github.com/keshavgujrathi/scholariq/internal/cache"
	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/health"
	"github.com/keshavgujrathi/scholariq/internal/store"
	"github.com/keshavgujrathi/scholariq/internal/telemetry"
)

// AppContext holds the wired dependencies for the serve command.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	store        *store.Store
	cache        *cache.RedisCache
	service      *analysis.Service
	router       *api.Router
}

// buildAppContext constructs the full backend from cfg:
//  1. OTEL provider (best-effort; disabled when no endpoint is configured)
//  2. Store with its circuit-breaker probe
//  3. Optional Redis result cache
//  4. Analysis service with the configured worker count
//  5. HTTP router
func buildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// A missing collector must never block startup. When no endpoint is
	// configured, telemetry is disabled entirely to avoid the SDK's
	// periodic-reader noise during local development.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPInsecure)
		if err != nil {
			slog.Warn("OTEL provider init failed, telemetry disabled", "error", err)
		} else {
			app.otelProvider = tp
		}
	}

	st, err := store.Open(ctx, cfg.Database, cfg.App.Env)
	if err != nil {
		return nil, err
	}
	app.store = st

	app.cache = cache.New(cfg.Redis, store.NewBreaker("redis"))
	app.service = analysis.NewService(st, app.cache, cfg.Server.Workers)

	probers := map[string]health.Prober{
		"database": store.NewProber(st, store.NewBreaker("database")),
	}
	if app.cache != nil {
		probers["redis"] = app.cache
	}

	handler := api.NewHandler(app.service, probers, cfg)
	app.router = api.NewRouter(handler, slog.Default(), cfg.Telemetry.ServiceName)

	return app, nil
}

// Close shuts down everything buildAppContext started.
func (a *AppContext) Close() {
	if a.service != nil {
		a.service.Stop()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.otelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			slog.Warn("OTEL shutdown error", "error", err)
		}
	}
}
