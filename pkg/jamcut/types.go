package jamcut

import (
	"fmt"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/loudness"
	"github.com/jamcut/jamcut/pkg/jamcut/segment"
)

// Mode selects how segments are reconstructed into output audio.
type Mode string

const (
	// ModeSplit produces one independent buffer per segment.
	ModeSplit Mode = "split"
	// ModeTrim produces a single buffer with the silences removed.
	ModeTrim Mode = "trim"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSplit, ModeTrim:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", audio.ErrInvalidInput, s)
	}
}

// ProcessResult is the outcome of one segmentation run over one buffer.
type ProcessResult struct {
	Mode      Mode
	Threshold float64
	// Estimated reports whether the threshold was derived by the estimator
	// rather than supplied by the caller.
	Estimated bool
	// Estimate carries the estimator's recommendation and histogram when
	// Estimated is true, for optional caller-side visualization.
	Estimate *loudness.Estimate
	Segments []segment.Segment
	// Outputs holds one buffer per segment in split mode, or exactly one
	// concatenated buffer in trim mode. Empty when no segments were found.
	Outputs []*audio.Buffer
}
