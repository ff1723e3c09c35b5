// Package config loads all runtime settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config contains all runtime settings for the journaling service.
type Config struct {
	BindAddr         string        `env:"APP_BIND_ADDR" envDefault:":8000"`
	DataRoot         string        `env:"APP_DATA_ROOT" envDefault:"."`
	MetricsNamespace string        `env:"APP_METRICS_NAMESPACE" envDefault:"daybook"`
	ShutdownTimeout  time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// The bundled web UI is served from the same origin; allow-any stays on
	// by default for local development against a separately served frontend.
	AllowAnyOrigin bool `env:"APP_ALLOW_ANY_ORIGIN" envDefault:"true"`

	// LLM settings. Mode auto picks openai when an API key is present and
	// falls back to the scripted mock otherwise.
	LLMMode         string        `env:"LLM_MODE" envDefault:"auto"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	OpenAIModel     string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GenerateTimeout time.Duration `env:"LLM_GENERATE_TIMEOUT" envDefault:"60s"`

	// Daily profile rebuild schedule; the persisted date marker keeps the
	// rebuild at most once per calendar day regardless of trigger count.
	ProfileRebuildCron string `env:"APP_PROFILE_REBUILD_CRON" envDefault:"0 4 * * *"`

	// Optional directory with prompt template overrides.
	PromptDir string `env:"APP_PROMPT_DIR"`
}

// Load reads environment variables and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.LLMMode = strings.ToLower(strings.TrimSpace(cfg.LLMMode))
	switch cfg.LLMMode {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid LLM_MODE: %q (expected auto|openai|mock)", cfg.LLMMode)
	}
	if cfg.LLMMode == "openai" && strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return Config{}, fmt.Errorf("LLM_MODE=openai but OPENAI_API_KEY is not set")
	}
	if strings.TrimSpace(cfg.DataRoot) == "" {
		return Config{}, fmt.Errorf("APP_DATA_ROOT must not be empty")
	}
	if cfg.GenerateTimeout < time.Second {
		return Config{}, fmt.Errorf("LLM_GENERATE_TIMEOUT must be at least 1s")
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if strings.TrimSpace(cfg.ProfileRebuildCron) == "" {
		return Config{}, fmt.Errorf("APP_PROFILE_REBUILD_CRON must not be empty")
	}

	return cfg, nil
}
