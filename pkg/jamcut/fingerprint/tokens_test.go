package fingerprint

import (
	"errors"
	"math"
	"testing"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

func toneBuffer(freq float64, durationMs, sampleRate, channels int) *audio.Buffer {
	frames := durationMs * sampleRate / 1000
	samples := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return &audio.Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

func TestPackToken(t *testing.T) {
	// Band lower edges 0/32/96/224 quantize to bytes 0x00/0x08/0x18/0x38.
	if got := packToken([numBands]int{0, 32, 96, 224}); got != 0x00081838 {
		t.Errorf("packToken = %#08x, want 0x00081838", uint32(got))
	}

	// Peaks within one quantization step collapse to the same token.
	a := packToken([numBands]int{10, 40, 100, 300})
	b := packToken([numBands]int{10, 41, 102, 301})
	if a != b {
		t.Errorf("near-identical peaks produced distinct tokens: %#08x vs %#08x", uint32(a), uint32(b))
	}

	// Peaks a full step apart must not collide.
	c := packToken([numBands]int{10, 44, 100, 300})
	if a == c {
		t.Error("distinct peaks collided into one token")
	}
}

func TestExtractTokensDeterministic(t *testing.T) {
	buf := toneBuffer(440, 2000, 11025, 1)

	a, err := ExtractTokens(buf)
	if err != nil {
		t.Fatalf("ExtractTokens failed: %v", err)
	}
	b, err := ExtractTokens(buf)
	if err != nil {
		t.Fatalf("ExtractTokens failed: %v", err)
	}

	if len(a.Tokens) != len(b.Tokens) {
		t.Fatalf("token counts differ: %d vs %d", len(a.Tokens), len(b.Tokens))
	}
	for i := range a.Tokens {
		if a.Tokens[i] != b.Tokens[i] {
			t.Fatalf("token %d differs: %#08x vs %#08x", i, uint32(a.Tokens[i]), uint32(b.Tokens[i]))
		}
	}
}

func TestExtractTokensStreamTiming(t *testing.T) {
	buf := toneBuffer(440, 2000, 11025, 2)

	s, err := ExtractTokens(buf)
	if err != nil {
		t.Fatalf("ExtractTokens failed: %v", err)
	}

	wantPeriod := float64(HopSize) * 1000.0 / 11025.0
	if math.Abs(s.PeriodMs-wantPeriod) > 1e-9 {
		t.Errorf("PeriodMs = %v, want %v", s.PeriodMs, wantPeriod)
	}

	wantTokens := (buf.Frames()-WindowSize)/HopSize + 1
	if len(s.Tokens) != wantTokens {
		t.Errorf("token count = %d, want %d", len(s.Tokens), wantTokens)
	}
	if d := s.DurationMs(); d < 1500 || d > 2000 {
		t.Errorf("stream duration = %dms, want just under the 2000ms source", d)
	}
}

func TestExtractTokensDistinguishesContent(t *testing.T) {
	// Different tones should not reduce to the same token sequence.
	low, err := ExtractTokens(toneBuffer(300, 1000, 11025, 1))
	if err != nil {
		t.Fatal(err)
	}
	high, err := ExtractTokens(toneBuffer(3000, 1000, 11025, 1))
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for i := 0; i < len(low.Tokens) && i < len(high.Tokens); i++ {
		if low.Tokens[i] != high.Tokens[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("300 Hz and 3000 Hz tones produced identical token streams")
	}
}

func TestExtractTokensErrors(t *testing.T) {
	if _, err := ExtractTokens(&audio.Buffer{SampleRate: 11025, Channels: 1}); !errors.Is(err, audio.ErrInvalidInput) {
		t.Errorf("empty buffer: error %v should wrap ErrInvalidInput", err)
	}

	// Valid buffer, but too short for even one STFT window.
	short := toneBuffer(440, 50, 11025, 1)
	if _, err := ExtractTokens(short); !errors.Is(err, ErrFingerprint) {
		t.Errorf("short buffer: error %v should wrap ErrFingerprint", err)
	}
}
