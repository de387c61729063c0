// Package loudness converts decoded audio into a per-frame dBFS profile and
// recommends silence thresholds from that profile.
package loudness

import (
	"fmt"
	"math"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

// DefaultFrameMs is the default loudness frame size. Small enough to keep
// segment boundaries tight, large enough for a stable RMS estimate.
const DefaultFrameMs = 20

// Profile is a read-only time series of per-frame loudness values derived
// from exactly one buffer. Levels are dBFS (0 = full scale); a frame of
// digital silence is recorded as -Inf.
type Profile struct {
	FrameMs int
	Levels  []float64
}

// DurationMs returns the time span the profile covers. The last frame may be
// partial, so this can exceed the source duration by up to one frame.
func (p *Profile) DurationMs() int {
	if p == nil {
		return 0
	}
	return len(p.Levels) * p.FrameMs
}

// Compute builds a loudness profile from a buffer using frames of frameMs
// milliseconds (DefaultFrameMs when zero). Frame loudness is the RMS over
// all channels in the window, expressed in dBFS.
func Compute(buf *audio.Buffer, frameMs int) (*Profile, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if frameMs == 0 {
		frameMs = DefaultFrameMs
	}
	if frameMs < 0 {
		return nil, fmt.Errorf("%w: frame size %dms", audio.ErrInvalidInput, frameMs)
	}

	framesPerWindow := frameMs * buf.SampleRate / 1000
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}

	totalFrames := buf.Frames()
	n := (totalFrames + framesPerWindow - 1) / framesPerWindow
	levels := make([]float64, n)

	for w := 0; w < n; w++ {
		start := w * framesPerWindow
		end := start + framesPerWindow
		if end > totalFrames {
			end = totalFrames
		}

		var sum float64
		count := (end - start) * buf.Channels
		for i := start * buf.Channels; i < end*buf.Channels; i++ {
			s := buf.Samples[i]
			sum += s * s
		}

		rms := math.Sqrt(sum / float64(count))
		if rms == 0 {
			levels[w] = math.Inf(-1)
		} else {
			levels[w] = 20.0 * math.Log10(rms)
		}
	}

	return &Profile{FrameMs: frameMs, Levels: levels}, nil
}
