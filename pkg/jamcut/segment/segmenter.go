// Package segment turns a loudness profile into non-silent segment bounds
// and reconstructs output audio from them.
package segment

import (
	"fmt"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/loudness"
)

// Segment is a non-silent span of the recording in milliseconds.
// EndMs is exclusive and always greater than StartMs.
type Segment struct {
	StartMs int
	EndMs   int
}

// DurationMs returns the segment length.
func (s Segment) DurationMs() int { return s.EndMs - s.StartMs }

// Params controls silence detection.
type Params struct {
	// ThresholdDBFS classifies a frame as silent when its level is strictly
	// below this value.
	ThresholdDBFS float64
	// MinSilenceLenMs is the minimum contiguous silent run that counts as a
	// gap between segments. A run exactly this long qualifies.
	MinSilenceLenMs int
	// KeepSilenceMs pads each segment boundary symmetrically, clamped to the
	// recording bounds and to half of each interior gap so segments never
	// overlap.
	KeepSilenceMs int
}

// frameRun is a maximal run of silent frames, [start, end) in frame indices.
type frameRun struct {
	start int
	end   int
}

// DetectNonSilent scans the profile left to right, collapses silent frames
// into runs, and partitions the recording into the segments that lie between
// qualifying gaps. An entirely silent profile yields an empty sequence (a
// valid result, not an error); a profile with no qualifying gap yields one
// segment spanning the whole recording.
func DetectNonSilent(p *loudness.Profile, params Params) ([]Segment, error) {
	if p == nil || len(p.Levels) == 0 {
		return nil, fmt.Errorf("%w: empty loudness profile", audio.ErrInvalidInput)
	}
	if params.MinSilenceLenMs <= 0 {
		return nil, fmt.Errorf("%w: min silence length %dms", audio.ErrInvalidInput, params.MinSilenceLenMs)
	}
	if params.KeepSilenceMs < 0 {
		return nil, fmt.Errorf("%w: keep silence %dms", audio.ErrInvalidInput, params.KeepSilenceMs)
	}

	gaps := qualifyingGaps(p, params)

	durationMs := p.DurationMs()
	nFrames := len(p.Levels)

	// Complement of the gaps, in frame indices.
	var segs []Segment
	cursor := 0
	for _, g := range gaps {
		if g.start > cursor {
			segs = append(segs, Segment{
				StartMs: cursor * p.FrameMs,
				EndMs:   g.start * p.FrameMs,
			})
		}
		cursor = g.end
	}
	if cursor < nFrames {
		segs = append(segs, Segment{StartMs: cursor * p.FrameMs, EndMs: durationMs})
	}

	if len(segs) == 0 {
		return nil, nil
	}

	applyPadding(segs, params.KeepSilenceMs, durationMs)

	// Output invariant: ordered and non-overlapping. A violation here is a
	// programming error, not an input condition.
	for i := 1; i < len(segs); i++ {
		if segs[i].StartMs < segs[i-1].EndMs || segs[i].StartMs <= segs[i-1].StartMs {
			panic(fmt.Sprintf("segment: unordered output at %d: %+v after %+v", i, segs[i], segs[i-1]))
		}
	}
	return segs, nil
}

// qualifyingGaps returns the silent runs long enough to separate segments.
func qualifyingGaps(p *loudness.Profile, params Params) []frameRun {
	var gaps []frameRun
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		if (end-runStart)*p.FrameMs >= params.MinSilenceLenMs {
			gaps = append(gaps, frameRun{start: runStart, end: end})
		}
		runStart = -1
	}

	for i, lvl := range p.Levels {
		if lvl < params.ThresholdDBFS {
			if runStart < 0 {
				runStart = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(p.Levels))

	return gaps
}

// applyPadding expands each segment outward by keepMs. Head and tail clamp
// to [0, durationMs]; interior boundaries take at most half the gap between
// neighbors so adjacent segments meet but never overlap.
func applyPadding(segs []Segment, keepMs, durationMs int) {
	if keepMs == 0 {
		if segs[len(segs)-1].EndMs > durationMs {
			segs[len(segs)-1].EndMs = durationMs
		}
		return
	}

	for i := range segs {
		if i == 0 {
			segs[i].StartMs -= keepMs
			if segs[i].StartMs < 0 {
				segs[i].StartMs = 0
			}
		}
		if i == len(segs)-1 {
			segs[i].EndMs += keepMs
			if segs[i].EndMs > durationMs {
				segs[i].EndMs = durationMs
			}
			continue
		}

		gap := segs[i+1].StartMs - segs[i].EndMs
		pad := keepMs
		if pad > gap/2 {
			pad = gap / 2
		}
		segs[i].EndMs += pad
		segs[i+1].StartMs -= pad
	}
}
