// Package main is the entrypoint for the VideoPilot API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studioops/videopilot/internal/ai"
	"github.com/studioops/videopilot/internal/api"
	"github.com/studioops/videopilot/internal/api/handler"
	mw "github.com/studioops/videopilot/internal/api/middleware"
	"github.com/studioops/videopilot/internal/assets"
	"github.com/studioops/videopilot/internal/cache"
	"github.com/studioops/videopilot/internal/config"
	"github.com/studioops/videopilot/internal/pipeline"
	"github.com/studioops/videopilot/internal/publish"
	"github.com/studioops/videopilot/internal/renderer"
	"github.com/studioops/videopilot/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	publishInterval = time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on anything invalid
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache (shared operation store)
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create asset store
	assetStore, err := assets.NewMinioStore(ctx, cfg.Assets)
	if err != nil {
		return fmt.Errorf("create asset store: %w", err)
	}
	slog.Info("asset store ready", "bucket", cfg.Assets.Bucket)

	// 6. Create AI provider and render client
	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	renderClient := renderer.NewHTTPClient(cfg.Renderer.BaseURL, cfg.Renderer.APIKey, cfg.Renderer.Timeout)

	// 7. Create store and pipeline services
	pgStore := store.NewPostgresStore(pool)

	submitter := pipeline.NewSubmitter(pgStore, redisCache, aiProvider, renderClient, cfg.Pipeline.OperationTTL)
	reconciler := pipeline.NewReconciler(pgStore, redisCache, aiProvider, renderClient, assetStore, cfg.Pipeline.OperationTTL)
	autoPilot := pipeline.NewAutoPilot(pgStore, submitter, aiProvider,
		cfg.Pipeline.DailyShortGoal, cfg.Pipeline.WeeklyLongGoal)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": pgStore.Ping,
			"cache":    redisCache.Ping,
			"assets":   assetStore.Ping,
			"renderer": renderClient.Ready,
		}),

		CreateVideoHandler: handler.NewCreateVideoHandler(submitter),
		ListVideosHandler:  handler.NewListVideosHandler(pgStore),
		GetVideoHandler:    handler.NewGetVideoHandler(pgStore),
		VideoStatusHandler: handler.NewVideoStatusHandler(pgStore, reconciler),
		RetryVideoHandler:  handler.NewRetryVideoHandler(submitter),

		AutoPilotHandler: handler.NewAutoPilotHandler(autoPilot),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start background workers
	poller := pipeline.NewPoller(pgStore, reconciler, cfg.Pipeline.PollInterval)
	go poller.Run(ctx)

	taskWorker := pipeline.NewTaskWorker(pgStore, aiProvider, assetStore,
		cfg.Pipeline.PollInterval, cfg.Pipeline.TaskMaxAttempts)
	go taskWorker.Run(ctx)

	if cfg.YouTube.ClientID != "" {
		uploader, err := publish.NewYouTubeUploader(ctx, cfg.YouTube)
		if err != nil {
			return fmt.Errorf("create youtube uploader: %w", err)
		}
		publisher := publish.NewPublisher(pgStore, assetStore, uploader, publishInterval)
		go publisher.Run(ctx)
	} else {
		slog.Info("publishing disabled: no youtube credentials")
	}

	// 10. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
