// Package metrics emits standardised pipeline metrics through a StatsD sink.
package metrics

import (
	"time"

	obserrors "github.com/ScoeScoe/POSTANOS/internal/observability/errors"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// JobMetric captures details about a postcard job lifecycle event.
type JobMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits standardised postcard lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("postcard.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("postcard.duration", in.Duration, CloneTags(tags))
	}
}

// RunMetric captures the outcome of a full fulfillment pass.
type RunMetric struct {
	Fetched   int
	Succeeded int
	Failed    int
	Duration  time.Duration
	Trigger   string
}

// EmitRunSummary emits metrics for a completed fulfillment run.
func EmitRunSummary(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"trigger": in.Trigger}

	sink.Gauge("run.fetched", float64(in.Fetched), tags)
	sink.Count("run.succeeded", int64(in.Succeeded), tags)
	sink.Count("run.failed", int64(in.Failed), tags)

	if in.Duration > 0 {
		sink.Timing("run.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
