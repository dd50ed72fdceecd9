package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// TriggerToken authorizes manual fulfillment runs via POST /run.
	// An empty token disables the manual trigger endpoint.
	TriggerToken string `env:"TRIGGER_TOKEN" envDefault:""`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Manual runs block until the full fulfillment pass completes, so this
	// must cover the longest expected run.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ReadTimeout < 1*time.Second {
		h.ReadTimeout = 1 * time.Second
	}
	if h.WriteTimeout < 30*time.Second {
		h.WriteTimeout = 30 * time.Second
	}
}
