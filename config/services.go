package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScheduler runs the fulfillment scheduler.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeReaper runs the stale-job reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeScheduler,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeScheduler, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, scheduler, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SchedulerConfig contains fulfillment scheduler configuration.
type SchedulerConfig struct {
	// BatchSize is the number of jobs processed concurrently per batch.
	BatchSize int `env:"SCHEDULER_BATCH_SIZE" envDefault:"10"`

	// DailyCap is the maximum number of due jobs claimed per run.
	DailyCap int `env:"SCHEDULER_DAILY_CAP" envDefault:"100"`

	// Interval is the scheduler tick interval.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"24h"`

	// CallTimeout is the per-call deadline for provider and store operations
	// made while processing a single job.
	CallTimeout time.Duration `env:"SCHEDULER_CALL_TIMEOUT" envDefault:"10s"`

	// RunLockTTL is how long the distributed run lock is held before expiring.
	// It guards against overlapping runs from concurrent replicas.
	RunLockTTL time.Duration `env:"SCHEDULER_RUN_LOCK_TTL" envDefault:"30m"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.DailyCap < 1 {
		s.DailyCap = 1
	}
	if s.Interval < 1*time.Minute {
		s.Interval = 1 * time.Minute
	}
	if s.CallTimeout < 1*time.Second {
		s.CallTimeout = 1 * time.Second
	}
	if s.RunLockTTL < 1*time.Minute {
		s.RunLockTTL = 1 * time.Minute
	}
}

// ReaperConfig contains stale-job reaper configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1h"`

	// ProcessingMaxAge is the maximum age for processing jobs before they are
	// marked as failed. A job stuck in processing longer than this lost its
	// worker mid-flight and will never transition on its own.
	ProcessingMaxAge time.Duration `env:"REAPER_PROCESSING_MAX_AGE" envDefault:"2h"`

	// BatchSize is the maximum number of rows to sweep per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.ProcessingMaxAge < 10*time.Minute {
		r.ProcessingMaxAge = 10 * time.Minute
	}

	// Enforce batch size bounds to prevent excessive locks or inefficiency
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
