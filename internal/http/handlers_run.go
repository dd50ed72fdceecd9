package httpx

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/observability/metrics"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

// TriggerManual tags runs started through this handler.
const TriggerManual = "manual"

// RunHandlers serves the manual fulfillment trigger. The request blocks until
// the pass completes and returns the run summary, so operators see the
// outcome of their trigger directly.
type RunHandlers struct {
	Runner       core.FulfillmentRunner
	TriggerToken string
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

type errorResponse struct {
	Error string `json:"error"`
}

// TriggerRun handles POST /run. Requires a bearer token matching the
// configured trigger token; the route is disabled when no token is set.
func (h *RunHandlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	if h.Runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "fulfillment runner not configured"})
		return
	}

	ctx := r.Context()
	start := time.Now()
	summary, err := h.Runner.Run(ctx, h.TimeProvider.Now())
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case apperrors.IsConflict(err):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "a fulfillment run is already in progress"})
		case errors.Is(err, context.Canceled):
			// Client went away mid-pass; nothing useful to write.
			h.Logger.DebugContext(ctx, "manual run cancelled", "error", err)
		default:
			h.Logger.ErrorContext(ctx, "manual fulfillment run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "fulfillment run failed"})
		}
		return
	}

	h.emitRunMetrics(summary, elapsed)
	h.Logger.InfoContext(ctx, "manual fulfillment run finished",
		"fetched", summary.Fetched,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", elapsed,
	)

	writeJSON(w, http.StatusOK, summary)
}

// authorize checks the bearer token in constant time. An unset trigger token
// disables the route entirely rather than allowing unauthenticated runs.
func (h *RunHandlers) authorize(r *http.Request) bool {
	if h.TriggerToken == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(h.TriggerToken)) == 1
}

func (h *RunHandlers) emitRunMetrics(summary *core.RunSummary, elapsed time.Duration) {
	if h.Metrics == nil || summary == nil {
		return
	}
	metrics.EmitRunSummary(h.Metrics, metrics.RunMetric{
		Fetched:   summary.Fetched,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Duration:  elapsed,
		Trigger:   TriggerManual,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
