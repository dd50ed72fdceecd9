package metrics

import (
	"testing"
	"time"

	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
)

type recordedMetric struct {
	kind  string
	name  string
	count int64
	tags  map[string]string
}

type fakeSink struct {
	metrics []recordedMetric
}

func (f *fakeSink) Count(name string, value int64, tags map[string]string) {
	f.metrics = append(f.metrics, recordedMetric{kind: "count", name: name, count: value, tags: tags})
}

func (f *fakeSink) Gauge(name string, _ float64, tags map[string]string) {
	f.metrics = append(f.metrics, recordedMetric{kind: "gauge", name: name, tags: tags})
}

func (f *fakeSink) Timing(name string, _ time.Duration, tags map[string]string) {
	f.metrics = append(f.metrics, recordedMetric{kind: "timing", name: name, tags: tags})
}

func TestEmitJobLifecycle(t *testing.T) {
	sink := &fakeSink{}

	EmitJobLifecycle(sink, JobMetric{
		Transition: "sent",
		Result:     ResultSuccess,
		Duration:   time.Second,
	})

	if len(sink.metrics) != 2 {
		t.Fatalf("expected count + timing, got %d metrics", len(sink.metrics))
	}
	if sink.metrics[0].name != "postcard.transition" || sink.metrics[0].kind != "count" {
		t.Fatalf("unexpected first metric: %+v", sink.metrics[0])
	}
	if sink.metrics[0].tags["transition"] != "sent" {
		t.Fatalf("expected transition tag, got %v", sink.metrics[0].tags)
	}
	if sink.metrics[1].name != "postcard.duration" || sink.metrics[1].kind != "timing" {
		t.Fatalf("unexpected second metric: %+v", sink.metrics[1])
	}
}

func TestEmitJobLifecycleTagsErrorClass(t *testing.T) {
	sink := &fakeSink{}

	EmitJobLifecycle(sink, JobMetric{
		Transition: "failed",
		Result:     ResultError,
		Err:        apperrors.Undeliverablef("address rejected"),
	})

	if len(sink.metrics) != 1 {
		t.Fatalf("expected a single count metric, got %d", len(sink.metrics))
	}
	if sink.metrics[0].tags["error_class"] != "undeliverable_address" {
		t.Fatalf("expected error class tag, got %v", sink.metrics[0].tags)
	}
}

func TestEmitRunSummary(t *testing.T) {
	sink := &fakeSink{}

	EmitRunSummary(sink, RunMetric{
		Fetched:   10,
		Succeeded: 8,
		Failed:    2,
		Duration:  time.Minute,
		Trigger:   "scheduled",
	})

	if len(sink.metrics) != 4 {
		t.Fatalf("expected 4 metrics, got %d", len(sink.metrics))
	}
	for _, m := range sink.metrics {
		if m.tags["trigger"] != "scheduled" {
			t.Fatalf("expected trigger tag on %s, got %v", m.name, m.tags)
		}
	}
}

func TestEmitIsNilSafe(t *testing.T) {
	EmitJobLifecycle(nil, JobMetric{Transition: "sent", Result: ResultSuccess})
	EmitRunSummary(nil, RunMetric{})
}
