package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ConvertConfig controls the ffmpeg transcode of non-WAV inputs.
type ConvertConfig struct {
	SampleRate int // e.g. 11025, 22050, 44100
	Channels   int // 1 or 2
}

// ConvertToPCMWAV transcodes an audio file to 16-bit PCM WAV in outputDir,
// preserving the base filename with a .wav extension. Failures wrap
// ErrDecode; a context cancellation is returned unchanged.
func ConvertToPCMWAV(ctx context.Context, inputPath, outputDir string, cfg ConvertConfig) (string, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 11025
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
	outputPath := filepath.Join(outputDir, base)

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-vn",
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: ffmpeg failed for %s: %v (%s)", ErrDecode, inputPath, err, out)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return "", fmt.Errorf("%w: moving %s: %v", ErrDecode, tmpPath, err)
	}
	return outputPath, nil
}
