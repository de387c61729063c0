package jamcut

import (
	"github.com/jamcut/jamcut/pkg/jamcut/loudness"
	"github.com/jamcut/jamcut/pkg/jamcut/match"
)

type Config struct {
	SampleRate      int
	TempDir         string
	FrameMs         int
	MinSilenceLenMs int
	KeepSilenceMs   int
	ModeOffsetDB    float64
	Match           match.Config
	Logger          Logger
	Resolver        MetadataResolver
}

type Option func(*Config)

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithFrameMs(ms int) Option {
	return func(c *Config) {
		c.FrameMs = ms
	}
}

func WithSilenceParams(minSilenceLenMs, keepSilenceMs int) Option {
	return func(c *Config) {
		c.MinSilenceLenMs = minSilenceLenMs
		c.KeepSilenceMs = keepSilenceMs
	}
}

func WithModeOffsetDB(offset float64) Option {
	return func(c *Config) {
		c.ModeOffsetDB = offset
	}
}

func WithMatchConfig(mc match.Config) Option {
	return func(c *Config) {
		c.Match = mc
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithMetadataResolver(r MetadataResolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

func defaultConfig() *Config {
	return &Config{
		SampleRate:      11025,
		TempDir:         "/tmp",
		FrameMs:         loudness.DefaultFrameMs,
		MinSilenceLenMs: 1000,
		KeepSilenceMs:   200,
		ModeOffsetDB:    loudness.DefaultModeOffsetDB,
	}
}
