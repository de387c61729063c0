package config

import (
	"context"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SampleRate != 11025 {
		t.Errorf("SampleRate = %d, want 11025", cfg.SampleRate)
	}
	if cfg.FrameMs != 20 {
		t.Errorf("FrameMs = %d, want 20", cfg.FrameMs)
	}
	if cfg.MinSilenceLenMs != 1000 {
		t.Errorf("MinSilenceLenMs = %d, want 1000", cfg.MinSilenceLenMs)
	}
	if cfg.KeepSilenceMs != 200 {
		t.Errorf("KeepSilenceMs = %d, want 200", cfg.KeepSilenceMs)
	}
	if cfg.MinConfidence != 0.6 {
		t.Errorf("MinConfidence = %v, want 0.6", cfg.MinConfidence)
	}
	if cfg.BatchWorkers != 2 {
		t.Errorf("BatchWorkers = %d, want 2", cfg.BatchWorkers)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("LogLevel = %q, want INFO", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JAMCUT_SAMPLE_RATE", "22050")
	t.Setenv("JAMCUT_MIN_SILENCE_MS", "500")
	t.Setenv("JAMCUT_MIN_CONFIDENCE", "0.8")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", cfg.SampleRate)
	}
	if cfg.MinSilenceLenMs != 500 {
		t.Errorf("MinSilenceLenMs = %d, want 500", cfg.MinSilenceLenMs)
	}
	if cfg.MinConfidence != 0.8 {
		t.Errorf("MinConfidence = %v, want 0.8", cfg.MinConfidence)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero sample rate", "JAMCUT_SAMPLE_RATE", "0"},
		{"negative keep silence", "JAMCUT_KEEP_SILENCE_MS", "-10"},
		{"confidence above one", "JAMCUT_MIN_CONFIDENCE", "1.5"},
		{"zero workers", "JAMCUT_BATCH_WORKERS", "0"},
		{"oversized frame", "JAMCUT_FRAME_MS", "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(context.Background()); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}
