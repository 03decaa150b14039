package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/api"
	"github.com/p-n-ai/pai-quiz/internal/curriculum"
	"github.com/p-n-ai/pai-quiz/internal/grading"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      app.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "session_store", cfg.Session.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app holds the wired HTTP handler and the connections it owns.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp loads content and connects the configured backends.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	grader := grading.NewGrader(grading.WithLocale(cfg.GradingLocale()))
	repo, err := curriculum.LoadRepository(cfg.Content.Path, grader.Check)
	if err != nil {
		return fail(err)
	}

	checks := map[string]func(context.Context) error{}
	svcCfg := session.ServiceConfig{
		Repository:  repo,
		Grader:      grader,
		MaxAttempts: cfg.Session.MaxAttempts,
	}

	if cfg.Session.Store == config.StoreRedis {
		c, err := cache.New(ctx, cfg.Cache.URL, cfg.Cache.Prefix)
		if err != nil {
			return fail(fmt.Errorf("connecting to cache: %w", err))
		}
		a.closers = append(a.closers, func() { c.Close() })
		checks["cache"] = c.HealthCheck

		store, err := session.NewRedisStore(c, cfg.SessionTTL())
		if err != nil {
			return fail(err)
		}
		svcCfg.Store = store
	}

	if cfg.Events.Enabled {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fail(fmt.Errorf("connecting to database: %w", err))
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db.HealthCheck

		if err := db.EnsureSchema(ctx, session.EventsSchema, session.EventsIndex); err != nil {
			return fail(err)
		}
		svcCfg.Events = session.NewPostgresEventLogger(db.Pool)
	}

	svc, err := session.NewService(svcCfg)
	if err != nil {
		return fail(err)
	}

	a.handler = api.NewHandler(api.Config{
		Repository: repo,
		Sessions:   svc,
		Checks:     checks,
	})
	return a, nil
}
