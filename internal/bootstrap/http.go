package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ScoeScoe/POSTANOS/config"
	httpx "github.com/ScoeScoe/POSTANOS/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Runner:       cfg.Services.Scheduler,
		TriggerToken: appCfg.HTTP.TriggerToken,
		Logger:       logger,
		Metrics:      metricsSinkOrNil(cfg.Services.Observability),
	})

	return startServer(serverParams{
		Logger:  logger,
		Handler: handler,
		HTTP:    appCfg.HTTP,
	})
}

type serverParams struct {
	Logger  *slog.Logger
	Handler http.Handler
	HTTP    config.HTTPConfig
}

func startServer(params serverParams) *http.Server {
	addr := params.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	// WriteTimeout is generous because the manual trigger blocks until a full
	// fulfillment pass completes.
	server := &http.Server{
		Addr:         addr,
		Handler:      params.Handler,
		ReadTimeout:  params.HTTP.ReadTimeout,
		WriteTimeout: params.HTTP.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		params.Logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			params.Logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
