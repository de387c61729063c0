package fingerprint

import (
	"errors"
	"fmt"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

// ErrFingerprint marks failures while extracting tokens from audio.
var ErrFingerprint = errors.New("fingerprint error")

const (
	// numBands is the number of spectral bands packed into one token.
	numBands = 4

	// binQuantization divides peak bin indices before packing. Coarser
	// quantization makes tokens tolerant of small spectral drift between a
	// rehearsal take and the reference recording.
	binQuantization = 4
)

// Token is a compact, quantized representation of one STFT frame: the
// quantized peak bin of each token band packed into a uint32, high band in
// the low byte. Tokens compare by equality only.
type Token uint32

// Stream is an ordered token sequence covering a recording, with the timing
// needed to map token offsets back to milliseconds.
type Stream struct {
	Tokens []Token
	// PeriodMs is the time between consecutive tokens (the STFT hop).
	PeriodMs float64
}

// DurationMs returns the approximate time span the stream covers.
func (s *Stream) DurationMs() int {
	if s == nil {
		return 0
	}
	return int(float64(len(s.Tokens)) * s.PeriodMs)
}

// packToken folds the per-band peak bins into a single comparable token.
func packToken(peaks [numBands]int) Token {
	var t Token
	for _, p := range peaks {
		t = t<<8 | Token(uint8(p/binQuantization))
	}
	return t
}

// ExtractTokens reduces a buffer to its token stream: mono downmix, STFT
// with the package defaults, then one packed band-peak token per frame.
// The result is deterministic for a given buffer.
func ExtractTokens(buf *audio.Buffer) (*Stream, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	spec, err := ComputeSpectrogram(buf.Mono(), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFingerprint, err)
	}

	tokens := make([]Token, len(spec))
	for i, frame := range spec {
		tokens[i] = packToken(bandPeaks(frame))
	}

	return &Stream{
		Tokens:   tokens,
		PeriodMs: float64(HopSize) * 1000.0 / float64(buf.SampleRate),
	}, nil
}
