// Package internal provides the main application initialization and
// runtime logic: the embedded backend HTTP server plus the workspace
// core that consumes it over the loopback client.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/aldric/tavle/internal/api"
	"github.com/aldric/tavle/internal/backend"
	"github.com/aldric/tavle/internal/hooks"
	"github.com/aldric/tavle/internal/index"
	"github.com/aldric/tavle/internal/kanban"
	"github.com/aldric/tavle/internal/sse"
	"github.com/aldric/tavle/internal/state"
	"github.com/aldric/tavle/internal/storage"
	"github.com/aldric/tavle/internal/workspace"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("state_path", cfg.State.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	stateStore, err := state.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}
	defer stateStore.Close()

	broker := sse.NewBroker()
	defer broker.Close()

	svc := api.NewService(store, db, broker)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	// Workspace core, wired to the backend through the same narrow
	// client a detached front end would use.
	emitter := hooks.NewEmitter(logger)
	for _, l := range app.listeners {
		emitter.Register(l)
	}
	client := backend.NewClient(cfg.App.HTTP.BaseURL(), cfg.Auth.Token)
	manager := workspace.NewManager(client, stateStore, nil, emitter, logger)
	boards := kanban.NewStore(client)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Vault watcher feeds the SSE broker.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishNote(kind, path)
		}); err != nil {
			logger.Warn("vault watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Restore the workspace once the backend answers, then pump change
	// events into it.
	g.Go(func() error {
		if err := waitReady(gCtx, cfg.App.HTTP.BaseURL()); err != nil {
			return nil
		}
		manager.Restore(gCtx)
		if err := boards.Refresh(gCtx); err != nil {
			logger.Warn("initial board refresh failed", slog.String("error", err.Error()))
		}

		for ev := range client.Subscribe(gCtx) {
			switch {
			case strings.HasPrefix(ev.Type, "note."):
				manager.HandleNoteEvent(gCtx, strings.TrimPrefix(ev.Type, "note."), ev.NotePath())
			case ev.Type == sse.EventKanbanUpdated:
				if err := boards.Refresh(gCtx); err != nil {
					logger.Warn("board refresh failed", slog.String("error", err.Error()))
				}
			}
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// waitReady polls the liveness endpoint until the embedded server
// accepts connections or ctx is cancelled.
func waitReady(ctx context.Context, baseURL string) error {
	httpClient := &http.Client{Timeout: time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/live", nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
