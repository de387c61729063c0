package audio

import (
	"errors"
	"math"
	"testing"
)

func makeBuffer(frames, channels, sampleRate int, value float64) *Buffer {
	samples := make([]float64, frames*channels)
	for i := range samples {
		samples[i] = value
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

func TestBufferValidate(t *testing.T) {
	tests := []struct {
		name    string
		buf     *Buffer
		wantErr bool
	}{
		{"valid mono", makeBuffer(100, 1, 8000, 0.5), false},
		{"valid stereo", makeBuffer(100, 2, 44100, 0.5), false},
		{"nil buffer", nil, true},
		{"empty", &Buffer{SampleRate: 8000, Channels: 1}, true},
		{"zero sample rate", &Buffer{Samples: []float64{0}, Channels: 1}, true},
		{"too many channels", &Buffer{Samples: []float64{0, 0, 0}, SampleRate: 8000, Channels: 3}, true},
		{"ragged stereo", &Buffer{Samples: []float64{0, 0, 0}, SampleRate: 8000, Channels: 2}, true},
	}

	for _, tt := range tests {
		err := tt.buf.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: error %v should wrap ErrInvalidInput", tt.name, err)
		}
	}
}

func TestBufferDurationMs(t *testing.T) {
	buf := makeBuffer(8000, 1, 8000, 0)
	if got := buf.DurationMs(); got != 1000 {
		t.Errorf("DurationMs() = %d, want 1000", got)
	}

	stereo := makeBuffer(4000, 2, 8000, 0)
	if got := stereo.DurationMs(); got != 500 {
		t.Errorf("stereo DurationMs() = %d, want 500", got)
	}
}

func TestSliceMs(t *testing.T) {
	buf := makeBuffer(8000, 1, 8000, 0)
	for i := range buf.Samples {
		buf.Samples[i] = float64(i)
	}

	slice := buf.SliceMs(100, 200)
	if got := len(slice.Samples); got != 800 {
		t.Fatalf("slice length = %d, want 800", got)
	}
	if slice.Samples[0] != 800 {
		t.Errorf("slice starts at sample %v, want 800", slice.Samples[0])
	}

	// Slices are independently owned.
	slice.Samples[0] = -1
	if buf.Samples[800] == -1 {
		t.Error("slice shares backing array with source")
	}
}

func TestSliceMsClamping(t *testing.T) {
	buf := makeBuffer(1000, 2, 1000, 0.25)

	slice := buf.SliceMs(-50, 5000)
	if slice.Frames() != buf.Frames() {
		t.Errorf("clamped slice has %d frames, want %d", slice.Frames(), buf.Frames())
	}

	empty := buf.SliceMs(900, 900)
	if len(empty.Samples) != 0 {
		t.Errorf("zero-span slice has %d samples, want 0", len(empty.Samples))
	}

	inverted := buf.SliceMs(800, 400)
	if len(inverted.Samples) != 0 {
		t.Errorf("inverted slice has %d samples, want 0", len(inverted.Samples))
	}
}

func TestConcat(t *testing.T) {
	a := makeBuffer(100, 1, 8000, 0.1)
	b := makeBuffer(200, 1, 8000, 0.2)

	out, err := Concat([]*Buffer{a, b})
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if out.Frames() != 300 {
		t.Errorf("Concat frames = %d, want 300", out.Frames())
	}
	if out.Samples[0] != 0.1 || out.Samples[100] != 0.2 {
		t.Error("Concat order wrong")
	}
}

func TestConcatMismatch(t *testing.T) {
	a := makeBuffer(100, 1, 8000, 0)
	b := makeBuffer(100, 2, 8000, 0)
	if _, err := Concat([]*Buffer{a, b}); err == nil {
		t.Error("expected error concatenating mismatched formats")
	}
	if _, err := Concat(nil); err == nil {
		t.Error("expected error concatenating nothing")
	}
}

func TestMono(t *testing.T) {
	stereo := &Buffer{
		Samples:    []float64{1.0, 0.0, 0.5, -0.5, -1.0, 1.0},
		SampleRate: 8000,
		Channels:   2,
	}
	mono := stereo.Mono()
	want := []float64{0.5, 0.0, 0.0}
	if len(mono) != len(want) {
		t.Fatalf("mono length = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-12 {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}

	m := makeBuffer(10, 1, 8000, 0.3)
	if len(m.Mono()) != 10 {
		t.Error("mono buffer downmix should be identity")
	}
}
