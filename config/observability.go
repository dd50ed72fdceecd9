package config

import (
	"strings"
	"time"
)

// ObservabilityConfig groups configuration that controls metrics and owner notification fan-out.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications NotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// NotificationsConfig controls push notifications sent to card owners after
// a manual-review postcard is submitted on their behalf.
type NotificationsConfig struct {
	Enabled    bool                    `env:"NOTIFY_ENABLED"     envDefault:"false"`
	Timeout    time.Duration           `env:"NOTIFY_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                     `env:"NOTIFY_RETRY_LIMIT" envDefault:"3"`
	DedupeTTL  time.Duration           `env:"NOTIFY_DEDUPE_TTL"  envDefault:"24h"`
	OneSignal  OneSignalNotifierConfig `envPrefix:"NOTIFY_ONESIGNAL_"`
}

// Sanitize normalises notification configuration values.
func (c *NotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.DedupeTTL < 1*time.Minute {
		c.DedupeTTL = 1 * time.Minute
	}

	c.OneSignal.sanitize()

	if !c.Enabled {
		c.OneSignal.Enabled = false
		return
	}

	if c.OneSignal.Enabled && (c.OneSignal.AppID == "" || c.OneSignal.APIKey == "") {
		c.OneSignal.Enabled = false
	}
}

// OneSignalNotifierConfig controls OneSignal push fan-out.
type OneSignalNotifierConfig struct {
	Enabled bool   `env:"ENABLED"  envDefault:"false"`
	AppID   string `env:"APP_ID"`
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL" envDefault:"https://onesignal.com/api/v1"`
}

func (c *OneSignalNotifierConfig) sanitize() {
	c.AppID = strings.TrimSpace(c.AppID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSpace(strings.TrimSuffix(c.BaseURL, "/"))
	if c.BaseURL == "" {
		c.BaseURL = "https://onesignal.com/api/v1"
	}
}
