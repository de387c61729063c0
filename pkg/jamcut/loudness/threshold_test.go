package loudness

import (
	"errors"
	"math"
	"testing"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

func profileOf(frameMs int, levels ...float64) *Profile {
	return &Profile{FrameMs: frameMs, Levels: levels}
}

func TestRecommendThresholdModeMinusOffset(t *testing.T) {
	// 80 frames of -55 dBFS noise floor, 20 frames spread across louder
	// levels: the mode bin must land on the floor.
	levels := make([]float64, 0, 100)
	for i := 0; i < 80; i++ {
		levels = append(levels, -55.0)
	}
	for i := 0; i < 20; i++ {
		levels = append(levels, -20.0+float64(i)*0.5)
	}

	est, err := RecommendThreshold(profileOf(20, levels...), nil)
	if err != nil {
		t.Fatalf("RecommendThreshold failed: %v", err)
	}

	// The mode is the lower edge of its bin, so it sits at or just below
	// the actual floor level.
	if est.Mode > -55.0 || est.Mode < -56.0 {
		t.Errorf("mode = %v, want within one bin of -55", est.Mode)
	}
	if got, want := est.Threshold, est.Mode-DefaultModeOffsetDB; got != want {
		t.Errorf("threshold = %v, want mode-%v = %v", got, DefaultModeOffsetDB, want)
	}
	if len(est.Histogram.Counts) != DefaultBins {
		t.Errorf("histogram has %d bins, want %d", len(est.Histogram.Counts), DefaultBins)
	}
}

func TestRecommendThresholdDeterministic(t *testing.T) {
	levels := []float64{-50, -50, -50, -30, -20, -10, -50, -45}
	p := profileOf(20, levels...)

	a, err := RecommendThreshold(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RecommendThreshold(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Threshold != b.Threshold || a.Mode != b.Mode {
		t.Errorf("estimate not deterministic: %+v vs %+v", a, b)
	}
}

func TestRecommendThresholdConstantProfile(t *testing.T) {
	est, err := RecommendThreshold(profileOf(20, -33, -33, -33, -33), nil)
	if err != nil {
		t.Fatalf("RecommendThreshold failed: %v", err)
	}
	if est.Threshold != -33 || est.Mode != -33 {
		t.Errorf("constant profile: threshold=%v mode=%v, want both -33", est.Threshold, est.Mode)
	}
}

func TestRecommendThresholdAllSilent(t *testing.T) {
	inf := math.Inf(-1)
	est, err := RecommendThreshold(profileOf(20, inf, inf, inf), nil)
	if err != nil {
		t.Fatalf("RecommendThreshold failed: %v", err)
	}
	if est.Threshold != FallbackThresholdDBFS {
		t.Errorf("threshold = %v, want fallback %v", est.Threshold, FallbackThresholdDBFS)
	}
	if len(est.Histogram.Counts) != 0 {
		t.Errorf("expected empty histogram, got %d bins", len(est.Histogram.Counts))
	}
}

func TestRecommendThresholdIgnoresSilentFrames(t *testing.T) {
	// -Inf frames must not skew the histogram range.
	inf := math.Inf(-1)
	levels := []float64{inf, inf, -50, -50, -50, -50, -10, inf}

	est, err := RecommendThreshold(profileOf(20, levels...), nil)
	if err != nil {
		t.Fatalf("RecommendThreshold failed: %v", err)
	}
	if math.IsInf(est.Mode, -1) || math.IsInf(est.Threshold, -1) {
		t.Fatalf("estimate contaminated by -Inf: %+v", est)
	}
	if est.Mode > -49.0 || est.Mode < -51.0 {
		t.Errorf("mode = %v, want near -50", est.Mode)
	}
}

func TestRecommendThresholdCustomOpts(t *testing.T) {
	levels := make([]float64, 0, 60)
	for i := 0; i < 50; i++ {
		levels = append(levels, -60.0)
	}
	for i := 0; i < 10; i++ {
		levels = append(levels, -15.0)
	}

	est, err := RecommendThreshold(profileOf(20, levels...), &EstimateOpts{OffsetDB: 10, Bins: 10})
	if err != nil {
		t.Fatalf("RecommendThreshold failed: %v", err)
	}
	if len(est.Histogram.Counts) != 10 {
		t.Errorf("histogram has %d bins, want 10", len(est.Histogram.Counts))
	}
	if got, want := est.Threshold, est.Mode-10; got != want {
		t.Errorf("threshold = %v, want mode-10 = %v", got, want)
	}
}

func TestRecommendThresholdEmptyProfile(t *testing.T) {
	_, err := RecommendThreshold(nil, nil)
	if err == nil {
		t.Fatal("expected error for nil profile")
	}
	if !errors.Is(err, audio.ErrInvalidInput) {
		t.Errorf("error %v should wrap ErrInvalidInput", err)
	}

	if _, err := RecommendThreshold(profileOf(20), nil); err == nil {
		t.Fatal("expected error for empty profile")
	}
}
