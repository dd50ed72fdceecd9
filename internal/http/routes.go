// Package httpx provides the HTTP surface of the fulfillment service: health
// probes and the authenticated manual run trigger.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Runner core.FulfillmentRunner // Required for the manual trigger route
	// TriggerToken authenticates POST /run. An empty token disables the route.
	TriggerToken string
	TimeProvider data.TimeProvider
	Logger       *slog.Logger // Logger for HTTP errors (optional)
	Metrics      statsd.Sink
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	if services.TimeProvider == nil {
		services.TimeProvider = &data.RealTimeProvider{}
	}
	if services.Logger == nil {
		services.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	runHandlers := &RunHandlers{
		Runner:       services.Runner,
		TriggerToken: services.TriggerToken,
		TimeProvider: services.TimeProvider,
		Logger:       services.Logger,
		Metrics:      services.Metrics,
	}
	mux.Handle("POST /run", http.HandlerFunc(runHandlers.TriggerRun))

	return mux
}
