// Package config provides process-level defaults from environment variables.
package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config holds the tunable defaults the CLI feeds into the pipeline.
// Command-line flags override these per invocation.
type Config struct {
	SampleRate      int     `env:"JAMCUT_SAMPLE_RATE, default=11025" validate:"gt=0"`
	TempDir         string  `env:"JAMCUT_TEMP_DIR, default=/tmp" validate:"required"`
	FrameMs         int     `env:"JAMCUT_FRAME_MS, default=20" validate:"gt=0,lte=1000"`
	MinSilenceLenMs int     `env:"JAMCUT_MIN_SILENCE_MS, default=1000" validate:"gt=0"`
	KeepSilenceMs   int     `env:"JAMCUT_KEEP_SILENCE_MS, default=200" validate:"gte=0"`
	MinConfidence   float64 `env:"JAMCUT_MIN_CONFIDENCE, default=0.6" validate:"gte=0,lte=1"`
	BatchWorkers    int     `env:"JAMCUT_BATCH_WORKERS, default=2" validate:"gt=0,lte=64"`
	LogLevel        string  `env:"LOG_LEVEL, default=INFO"`
}

// Load reads configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values against their constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
