// Package jamcut ties the segmentation engine and the song matcher into one
// service with a functional-options configuration surface.
package jamcut

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/fingerprint"
	"github.com/jamcut/jamcut/pkg/jamcut/library"
	"github.com/jamcut/jamcut/pkg/jamcut/loudness"
	"github.com/jamcut/jamcut/pkg/jamcut/match"
	"github.com/jamcut/jamcut/pkg/jamcut/segment"
	"github.com/jamcut/jamcut/pkg/logger"
)

// Service runs segmentation and song identification over decoded recordings.
// One Service may process many recordings; each call owns its buffer and
// derived structures exclusively for the duration of the call.
type Service struct {
	cfg *Config
	log Logger
	lib *library.Library
}

func NewService(opts ...Option) *Service {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	return &Service{
		cfg: cfg,
		log: cfg.Logger,
		lib: library.New(),
	}
}

// Library exposes the run-scoped reference set.
func (s *Service) Library() *library.Library {
	return s.lib
}

// Decode loads a recording into a buffer. WAV files are read directly;
// anything else is transcoded to PCM WAV via ffmpeg first.
func (s *Service) Decode(ctx context.Context, path string) (*audio.Buffer, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return audio.ReadWAV(path)
	}

	s.log.Debugf("Converting %s to PCM WAV", path)
	wavPath, err := audio.ConvertToPCMWAV(ctx, path, s.cfg.TempDir, audio.ConvertConfig{
		SampleRate: s.cfg.SampleRate,
		Channels:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	return audio.ReadWAV(wavPath)
}

// RecommendThreshold profiles the buffer and recommends a silence threshold.
func (s *Service) RecommendThreshold(buf *audio.Buffer) (loudness.Estimate, error) {
	profile, err := loudness.Compute(buf, s.cfg.FrameMs)
	if err != nil {
		return loudness.Estimate{}, err
	}
	return loudness.RecommendThreshold(profile, &loudness.EstimateOpts{OffsetDB: s.cfg.ModeOffsetDB})
}

// ResolveThreshold picks the effective threshold: the override when the
// caller supplies one, the recommendation otherwise. Pure; any interactive
// accept/override flow belongs to the caller.
func ResolveThreshold(est loudness.Estimate, override *float64) float64 {
	if override != nil {
		return *override
	}
	return est.Threshold
}

// Process segments one buffer and reconstructs the output audio in the
// requested mode. A nil threshold requests automatic estimation. A recording
// with no non-silent segments yields a result with empty Segments and
// Outputs and no error; callers report it, they don't fail on it.
func (s *Service) Process(ctx context.Context, buf *audio.Buffer, mode Mode, threshold *float64) (*ProcessResult, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := loudness.Compute(buf, s.cfg.FrameMs)
	if err != nil {
		return nil, fmt.Errorf("profiling: %w", err)
	}

	res := &ProcessResult{Mode: mode}
	if threshold != nil {
		res.Threshold = *threshold
	} else {
		est, err := loudness.RecommendThreshold(profile, &loudness.EstimateOpts{OffsetDB: s.cfg.ModeOffsetDB})
		if err != nil {
			return nil, fmt.Errorf("estimating threshold: %w", err)
		}
		res.Threshold = est.Threshold
		res.Estimated = true
		res.Estimate = &est
		s.log.Infof("Recommended silence threshold: %.1f dBFS", est.Threshold)
	}

	segs, err := segment.DetectNonSilent(profile, segment.Params{
		ThresholdDBFS:   res.Threshold,
		MinSilenceLenMs: s.cfg.MinSilenceLenMs,
		KeepSilenceMs:   s.cfg.KeepSilenceMs,
	})
	if err != nil {
		return nil, fmt.Errorf("segmenting: %w", err)
	}
	res.Segments = segs
	s.log.Infof("Detected %d segments", len(segs))

	if len(segs) == 0 {
		return res, nil
	}

	switch mode {
	case ModeSplit:
		res.Outputs, err = segment.Split(buf, segs)
	case ModeTrim:
		var trimmed *audio.Buffer
		trimmed, err = segment.Trim(buf, segs)
		if trimmed != nil {
			res.Outputs = []*audio.Buffer{trimmed}
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", audio.ErrInvalidInput, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("reconstructing: %w", err)
	}
	return res, nil
}

// AddReference decodes a reference song, extracts its token sequence and
// registers it in the run's library. When title is empty and a metadata
// resolver is configured, the resolver fills in title/artist; resolver
// failures degrade to "unknown" rather than failing the registration.
func (s *Service) AddReference(ctx context.Context, path, title, artist string) (string, error) {
	buf, err := s.Decode(ctx, path)
	if err != nil {
		return "", err
	}

	stream, err := fingerprint.ExtractTokens(buf)
	if err != nil {
		return "", fmt.Errorf("fingerprinting %s: %w", path, err)
	}

	if title == "" {
		title, artist = s.resolveMetadata(ctx, stream.Tokens, path)
	}

	id, err := s.lib.Register(title, artist, stream.Tokens, buf.DurationMs())
	if err != nil {
		return "", err
	}
	s.log.Infof("Registered reference %q by %q (%d tokens)", title, artist, len(stream.Tokens))
	return id, nil
}

// FindSongs fingerprints the recording and reports where each registered
// reference song best aligns, best single occurrence per reference unless
// the match config says otherwise. References below the confidence floor
// yield no candidate.
func (s *Service) FindSongs(ctx context.Context, buf *audio.Buffer) ([]match.Candidate, error) {
	if s.lib.Len() == 0 {
		return nil, nil
	}

	stream, err := fingerprint.ExtractTokens(buf)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting recording: %w", err)
	}
	s.log.Debugf("Recording token stream: %d tokens (%.1fms period)", len(stream.Tokens), stream.PeriodMs)

	candidates, err := match.Match(ctx, stream, s.lib.References(), s.cfg.Match)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Found %d candidate matches across %d references", len(candidates), s.lib.Len())
	return candidates, nil
}

// resolveMetadata asks the optional resolver for title/artist, degrading to
// "unknown" on any failure.
func (s *Service) resolveMetadata(ctx context.Context, tokens []fingerprint.Token, path string) (string, string) {
	if s.cfg.Resolver == nil {
		return "unknown", ""
	}
	title, artist, err := s.cfg.Resolver.Resolve(ctx, tokens)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warnf("Metadata resolution failed for %s: %v", path, err)
		}
		return "unknown", ""
	}
	return title, artist
}
