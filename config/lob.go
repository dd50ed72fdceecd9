package config

import (
	"strings"
	"time"
)

// LobConfig contains Lob print-and-mail API configuration.
type LobConfig struct {
	// APIKey is the Lob secret API key. Test keys (test_...) only create
	// sandbox resources; SandboxMode should match the key environment.
	APIKey string `env:"LOB_API_KEY"`

	// BaseURL is the Lob API base URL.
	BaseURL string `env:"LOB_BASE_URL" envDefault:"https://api.lob.com/v1"`

	// Version pins the Lob API version via the Lob-Version header.
	Version string `env:"LOB_API_VERSION" envDefault:"2024-01-01"`

	// SandboxMode marks created postcards as test resources so no
	// physical mail is produced.
	SandboxMode bool `env:"LOB_SANDBOX_MODE" envDefault:"true"`

	// Timeout is the per-request deadline for Lob API calls.
	Timeout time.Duration `env:"LOB_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to Lob configuration values.
func (l *LobConfig) Sanitize() {
	l.APIKey = strings.TrimSpace(l.APIKey)
	l.BaseURL = strings.TrimSpace(strings.TrimSuffix(l.BaseURL, "/"))
	if l.BaseURL == "" {
		l.BaseURL = "https://api.lob.com/v1"
	}
	if l.Version = strings.TrimSpace(l.Version); l.Version == "" {
		l.Version = "2024-01-01"
	}
	if l.Timeout < 1*time.Second {
		l.Timeout = 1 * time.Second
	}
}

// SenderConfig is the return address printed on every postcard.
type SenderConfig struct {
	Name       string `env:"NAME"        envDefault:"Postanos"`
	Line1      string `env:"LINE1"`
	Line2      string `env:"LINE2"`
	City       string `env:"CITY"`
	State      string `env:"STATE"`
	PostalCode string `env:"POSTAL_CODE"`
	Country    string `env:"COUNTRY"     envDefault:"US"`
}

// Sanitize applies guardrails to sender configuration values.
func (s *SenderConfig) Sanitize() {
	if s.Name = strings.TrimSpace(s.Name); s.Name == "" {
		s.Name = "Postanos"
	}
	if s.Country = strings.TrimSpace(strings.ToUpper(s.Country)); s.Country == "" {
		s.Country = "US"
	}
}
