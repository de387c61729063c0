// Package audio provides the decoded PCM buffer type shared by the
// processing pipeline, plus WAV read/write and ffmpeg-backed conversion.
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks zero-length or malformed buffers and profiles.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecode marks failures while decoding or converting source audio.
	ErrDecode = errors.New("decode error")
)

// Buffer is an immutable decoded audio clip. Samples are interleaved and
// normalized to [-1, 1]. SampleRate and Channels never change for the
// lifetime of a buffer.
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Validate reports whether the buffer is usable by the pipeline.
func (b *Buffer) Validate() error {
	if b == nil || len(b.Samples) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidInput)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidInput, b.SampleRate)
	}
	if b.Channels != 1 && b.Channels != 2 {
		return fmt.Errorf("%w: channel count %d (mono/stereo only)", ErrInvalidInput, b.Channels)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("%w: %d samples not divisible by %d channels", ErrInvalidInput, len(b.Samples), b.Channels)
	}
	return nil
}

// Frames returns the number of per-channel sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// DurationMs returns the buffer duration in whole milliseconds.
func (b *Buffer) DurationMs() int {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return int(int64(b.Frames()) * 1000 / int64(b.SampleRate))
}

// SliceMs returns a new buffer covering [startMs, endMs), clamped to the
// buffer bounds. Slicing is sample-accurate: frame indices are derived from
// the millisecond bounds and the sample rate, and the underlying samples are
// copied so the slice is independently owned.
func (b *Buffer) SliceMs(startMs, endMs int) *Buffer {
	startFrame := msToFrame(startMs, b.SampleRate)
	endFrame := msToFrame(endMs, b.SampleRate)

	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > b.Frames() {
		endFrame = b.Frames()
	}
	if endFrame < startFrame {
		endFrame = startFrame
	}

	out := make([]float64, (endFrame-startFrame)*b.Channels)
	copy(out, b.Samples[startFrame*b.Channels:endFrame*b.Channels])
	return &Buffer{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Concat joins buffers in order into a single buffer. All inputs must share
// sample rate and channel count; a mismatch is a caller bug.
func Concat(bufs []*Buffer) (*Buffer, error) {
	if len(bufs) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidInput)
	}

	total := 0
	for i, b := range bufs {
		if b.SampleRate != bufs[0].SampleRate || b.Channels != bufs[0].Channels {
			return nil, fmt.Errorf("%w: buffer %d format differs", ErrInvalidInput, i)
		}
		total += len(b.Samples)
	}

	out := make([]float64, 0, total)
	for _, b := range bufs {
		out = append(out, b.Samples...)
	}
	return &Buffer{Samples: out, SampleRate: bufs[0].SampleRate, Channels: bufs[0].Channels}, nil
}

// Mono returns a single-channel view of the buffer for analysis. Stereo is
// downmixed by averaging the two channels.
func (b *Buffer) Mono() []float64 {
	if b.Channels == 1 {
		return b.Samples
	}
	frames := b.Frames()
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i] = (b.Samples[2*i] + b.Samples[2*i+1]) * 0.5
	}
	return out
}

func msToFrame(ms, sampleRate int) int {
	return int(int64(ms) * int64(sampleRate) / 1000)
}
