package segment

import (
	"errors"
	"fmt"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

// ErrNoSegments signals that silence detection produced nothing to
// reconstruct. It is informational: an all-silent recording is a valid
// input, not a failure.
var ErrNoSegments = errors.New("no non-silent segments")

// Split slices the source buffer into one independent, self-contained buffer
// per segment. The output count equals the segment count.
func Split(buf *audio.Buffer, segs []Segment) ([]*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, ErrNoSegments
	}

	out := make([]*audio.Buffer, 0, len(segs))
	for i, s := range segs {
		if s.EndMs <= s.StartMs {
			return nil, fmt.Errorf("%w: segment %d has non-positive span [%d, %d)", audio.ErrInvalidInput, i, s.StartMs, s.EndMs)
		}
		out = append(out, buf.SliceMs(s.StartMs, s.EndMs))
	}
	return out, nil
}

// Trim concatenates the segment slices in order into a single buffer with no
// gaps and no cross-fade. The result duration equals the sum of segment
// spans, exact to the sample.
func Trim(buf *audio.Buffer, segs []Segment) (*audio.Buffer, error) {
	parts, err := Split(buf, segs)
	if err != nil {
		return nil, err
	}
	return audio.Concat(parts)
}
