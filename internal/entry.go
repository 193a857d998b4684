// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/memoirs/internal/api"
	"github.com/starford/memoirs/internal/cache"
	"github.com/starford/memoirs/internal/mcpserver"
	"github.com/starford/memoirs/internal/memos"
	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newResolver wires the cache, the Memos client and the resolver.
func (a *application) newResolver(logger *slog.Logger) *resolver.Resolver {
	cfg := a.config
	f := a.fetcher
	if f == nil {
		f = memos.NewClient(cfg.Remote.Timeout, logger)
	}
	return resolver.New(cache.New(), f,
		resolver.WithLogger(logger),
		resolver.WithTTL(cfg.Cache.NoteTTL, cfg.Cache.ListTTL),
		resolver.WithMaxDepth(cfg.Resolver.MaxDepth),
		resolver.WithConcurrency(cfg.Resolver.Concurrency),
		resolver.WithQueryLimit(cfg.Remote.QueryLimit),
	)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// newHTTPHandler builds the root router with health checks and the API
// mounted under /api.
func newHTTPHandler(res *resolver.Resolver, defaults models.Partition) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", api.NewRouter(res, defaults))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("default_host", cfg.Remote.DefaultHost),
		slog.String("default_user", cfg.Remote.DefaultUser),
		slog.Duration("note_ttl", cfg.Cache.NoteTTL),
		slog.Duration("list_ttl", cfg.Cache.ListTTL),
		slog.Int("max_depth", cfg.Resolver.MaxDepth),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if !cfg.Remote.Partition().Valid() {
		logger.Warn("No default Memos server configured; sessions must select one via POST /api/server")
	}

	res := app.newResolver(logger)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(res, cfg.Remote.Partition()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic cache statistics.
	if cfg.App.StatsInterval > 0 {
		g.Go(func() error {
			logStats(gCtx, res, cfg.App.StatsInterval, logger)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

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

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	logger.Info("Starting MCP server",
		slog.String("default_host", cfg.Remote.DefaultHost),
		slog.String("default_user", cfg.Remote.DefaultUser))

	srv := mcpserver.New(app.newResolver(logger), cfg.Remote.Partition())
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// logStats logs cache statistics every interval until ctx is done.
func logStats(ctx context.Context, res *resolver.Resolver, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := res.Stats()
			logger.Info("cache stats",
				slog.Int("entries", st.EntryCount),
				slog.Int("partitions", st.PartitionCount))
		}
	}
}
