// Command server runs the gridsync HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"gridsync/internal/api"
	"gridsync/internal/config"
	internaldb "gridsync/internal/db"
	"gridsync/internal/engine"
	"gridsync/internal/grid"
	"gridsync/internal/middleware"
	"gridsync/internal/pool"
	"gridsync/internal/repository"
	"gridsync/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "err", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Target database.
	provider, err := pool.OpenPostgres(cfg.DatabaseURL, cfg.MaxConns)
	if err != nil {
		return err
	}
	defer provider.Close() //nolint:errcheck

	// History store: single-connection write pool, wider read pool.
	writeDB, err := internaldb.OpenSQLite(cfg.HistoryDBPath, "write", 0)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	readDB, err := internaldb.OpenSQLite(cfg.HistoryDBPath, "read", 4)
	if err != nil {
		return err
	}
	defer readDB.Close() //nolint:errcheck

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	historyRepo := repository.NewHistoryRepo(writeDB, readDB)
	executor := engine.NewExecutor(provider, cfg.RowLimit, logger)
	loader := grid.NewLoader(provider, logger)
	runner := grid.NewRunner(provider, logger)
	registry := grid.NewRegistry(loader, runner, logger)
	querySvc := service.NewQueryService(executor, historyRepo, logger)

	handler := api.NewHandler(querySvc, registry, cfg.PageSize, logger)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	r.Route("/v1", handler.Routes)

	// Idle edit sessions are disposed on a schedule.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 1m", func() {
		registry.SweepIdle(cfg.SessionTTL)
	}); err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gridsync listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
