package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/vk/framewire/internal/options"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath  string `env:"FW_MODULES_PATH"`
	OptionsPath  string `env:"FW_OPTIONS_PATH"`
	DiskDisabled bool   `env:"FW_NO_DISK"`
	FPS          int    `env:"FW_FPS"`
	JournalPath  string `env:"FW_JOURNAL_PATH"`
	ConsoleURL   string `env:"FW_CONSOLE_URL"`

	LogFormat       string `env:"FW_LOG_FORMAT"`
	LogLevel        string `env:"FW_LOG_LEVEL"`
	HealthcheckPort int    `env:"FW_HEALTHCHECK_PORT"`
}

// FromEnv returns the stock configuration with FW_* environment overrides
// applied. The CLI uses the result as its flag defaults, so an explicit
// flag always wins over the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		ModulesPath: "modules",
		OptionsPath: options.DefaultPath,
		FPS:         60,
		LogFormat:   "json",
		LogLevel:    "info",
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FPS < 1 {
		return nil, errors.New("fps must be at least 1")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck-port %d is out of range", cfg.HealthcheckPort)
	}

	return &cfg, nil
}
