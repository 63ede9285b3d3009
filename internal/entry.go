// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/tessera/internal/aisearch"
	"github.com/starford/tessera/internal/api"
	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/importfilter"
	"github.com/starford/tessera/internal/kvstore"
	"github.com/starford/tessera/internal/mcpserver"
	"github.com/starford/tessera/internal/page"
	"github.com/starford/tessera/internal/reconcile"
	"github.com/starford/tessera/internal/sse"
	"github.com/starford/tessera/internal/status"
	"github.com/starford/tessera/internal/template"
)

func (a *application) pageAdapter(cfg *Config) page.Adapter {
	if a.adapter != nil {
		return a.adapter
	}
	return page.NewRod(page.Config{
		DebuggerURL: cfg.Browser.DebuggerURL,
		LaunchBin:   cfg.Browser.LaunchBin,
		Headless:    cfg.Browser.Headless,
		FormPrefix:  cfg.Browser.FormPrefix,
		AddRowLabel: cfg.Browser.AddRowLabel,
		RowDelay:    time.Duration(cfg.Browser.RowDelayMs) * time.Millisecond,
		StepDelay:   time.Duration(cfg.Browser.StepDelayMs) * time.Millisecond,
	})
}

// Run starts the HTTP service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("form_prefix", cfg.Browser.FormPrefix),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Property catalog is embedded and immutable.
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Persistent key-value store.
	kv, err := kvstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer kv.Close()

	// SSE broker carrying the status channel.
	broker := sse.NewBroker()
	defer broker.Close()
	notify := sse.NewNotifier(broker)

	templates, err := template.NewStore(kv, cat, notify)
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}
	filter, err := importfilter.New(kv, logger)
	if err != nil {
		return fmt.Errorf("init import filter: %w", err)
	}

	adapter := app.pageAdapter(cfg)
	engine := reconcile.NewEngine(adapter, notify)
	ai := aisearch.NewClient(kv)

	// Build API handler and router.
	h := api.NewHandler(cat, templates, filter, engine, ai)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

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

		if closer, ok := adapter.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("browser close error", slog.String("error", err.Error()))
			}
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

// RunMCP starts the MCP stdio server with the given options. Logs go to
// stderr because stdout carries the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	kv, err := kvstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer kv.Close()

	templates, err := template.NewStore(kv, cat, status.Nop{})
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	adapter := app.pageAdapter(cfg)
	engine := reconcile.NewEngine(adapter, status.Nop{})

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(cat, templates, engine).ServeStdio()
}
