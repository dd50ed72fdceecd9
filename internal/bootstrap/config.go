// Package bootstrap wires configuration, connections, and services together
// for the fulfillment binary.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ScoeScoe/POSTANOS/config"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// InitLogger installs a JSON logger on stdout as the process default.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig reads environment variables into AppConfig and applies the
// Sanitize guardrails. A .env file is loaded first when present so local
// runs do not need exported variables; a missing file is not an error.
func LoadConfig() (config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig rejects a SERVICES list that enables nothing.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	modes, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	if len(modes) == 0 {
		return errors.New("no services enabled")
	}
	return nil
}

// GetEnabledServices returns the enabled service names for startup logging.
// Parse errors yield an empty list here; ValidateServiceConfig reports them.
func GetEnabledServices(cfg *config.AppConfig) []string {
	names := []string{}
	if cfg == nil {
		return names
	}
	modes, err := cfg.GetEnabledServices()
	if err != nil {
		return names
	}
	for _, mode := range config.ValidServiceModes() {
		if modes[mode] {
			names = append(names, string(mode))
		}
	}
	return names
}
