package loudness

import (
	"fmt"
	"math"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
)

// Threshold estimation tunables.
const (
	// DefaultModeOffsetDB is how far below the histogram mode (typically the
	// room noise floor) the recommended threshold sits.
	DefaultModeOffsetDB = 5.0

	// DefaultBins is the histogram resolution over the finite level range.
	DefaultBins = 50

	// FallbackThresholdDBFS is recommended when the profile contains no
	// finite level at all (pure digital silence).
	FallbackThresholdDBFS = -40.0
)

// Histogram is the level distribution supporting a threshold estimate.
// Bin i covers [MinLevel + i*BinWidth, MinLevel + (i+1)*BinWidth).
type Histogram struct {
	MinLevel float64
	BinWidth float64
	Counts   []int
}

// BinStart returns the lower edge of bin i.
func (h Histogram) BinStart(i int) float64 {
	return h.MinLevel + float64(i)*h.BinWidth
}

// Estimate is a recommended silence threshold plus its supporting data.
// Callers may visualize the histogram; the engine never does.
type Estimate struct {
	Threshold float64
	Mode      float64
	Histogram Histogram
}

// EstimateOpts overrides the estimator tunables. Zero values fall back to
// the package defaults.
type EstimateOpts struct {
	OffsetDB float64
	Bins     int
}

// RecommendThreshold derives a silence threshold from the profile by
// histogram-mode analysis: the modal loudness bin is assumed to be the
// dominant silence/noise-floor level, and the threshold is a fixed offset
// below it. The result is deterministic for a given profile.
//
// Degenerate cases, intentionally kept:
//   - A constant profile (single observed level) yields that level as both
//     mode and threshold, with no offset applied.
//   - A profile with no finite level (all digital silence) has no mode; the
//     estimate falls back to FallbackThresholdDBFS with an empty histogram.
func RecommendThreshold(p *Profile, opts *EstimateOpts) (Estimate, error) {
	if p == nil || len(p.Levels) == 0 {
		return Estimate{}, fmt.Errorf("%w: empty loudness profile", audio.ErrInvalidInput)
	}

	offset := DefaultModeOffsetDB
	bins := DefaultBins
	if opts != nil {
		if opts.OffsetDB != 0 {
			offset = opts.OffsetDB
		}
		if opts.Bins > 0 {
			bins = opts.Bins
		}
	}

	minLevel := math.Inf(1)
	maxLevel := math.Inf(-1)
	finite := 0
	for _, lvl := range p.Levels {
		if math.IsInf(lvl, -1) {
			continue
		}
		finite++
		if lvl < minLevel {
			minLevel = lvl
		}
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	if finite == 0 {
		return Estimate{Threshold: FallbackThresholdDBFS, Mode: FallbackThresholdDBFS}, nil
	}

	if minLevel == maxLevel {
		// Constant loudness: the single observed level is the mode and the
		// threshold. Not special-cased away.
		return Estimate{
			Threshold: minLevel,
			Mode:      minLevel,
			Histogram: Histogram{MinLevel: minLevel, BinWidth: 0, Counts: []int{finite}},
		}, nil
	}

	width := (maxLevel - minLevel) / float64(bins)
	counts := make([]int, bins)
	for _, lvl := range p.Levels {
		if math.IsInf(lvl, -1) {
			continue
		}
		idx := int((lvl - minLevel) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	modeBin := 0
	for i, c := range counts {
		if c > counts[modeBin] {
			modeBin = i
		}
	}

	hist := Histogram{MinLevel: minLevel, BinWidth: width, Counts: counts}
	mode := hist.BinStart(modeBin)
	return Estimate{Threshold: mode - offset, Mode: mode, Histogram: hist}, nil
}
