// Package match locates reference song token sequences inside a long
// recording's token stream and scores the alignments.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/fingerprint"
)

// ErrNoMatch signals that a reference song scored below the confidence
// floor everywhere in the recording. Informational, not a failure.
var ErrNoMatch = errors.New("no match above confidence threshold")

// Matching tunables.
const (
	// DefaultCoarseStepTokens is roughly one second at the default token
	// rate (11025 Hz sample rate, 256-sample hop).
	DefaultCoarseStepTokens = 43
	DefaultFineStepTokens   = 1
	DefaultMinConfidence    = 0.6
)

// Reference is one known song's token sequence plus reporting metadata.
type Reference struct {
	ID     string
	Title  string
	Artist string
	Tokens []fingerprint.Token
}

// Candidate reports where a reference song best aligns in the recording.
type Candidate struct {
	RefID             string
	Title             string
	Artist            string
	TimestampMs       int
	Confidence        float64 // best alignment score in [0, 1]
	MatchedDurationMs int
}

// Config controls the alignment scan. Zero values take the package defaults.
type Config struct {
	CoarseStep    int     // tokens per coarse slide
	FineStep      int     // tokens per refinement slide
	MinConfidence float64 // candidates below this are discarded
	// AllOccurrences reports every sufficiently separated occurrence of a
	// reference song instead of only the best one.
	AllOccurrences bool
}

func (c Config) withDefaults() Config {
	if c.CoarseStep <= 0 {
		c.CoarseStep = DefaultCoarseStepTokens
	}
	if c.FineStep <= 0 {
		c.FineStep = DefaultFineStepTokens
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	return c
}

// exactScore is the fraction of reference tokens equal to the recording
// token at the same aligned position. Tokens are quantized, so equality is
// the comparison.
func exactScore(rec, ref []fingerprint.Token, offset int) float64 {
	matched := 0
	for i, t := range ref {
		if rec[offset+i] == t {
			matched++
		}
	}
	return float64(matched) / float64(len(ref))
}

// coarseScore is the fraction of reference tokens found within ±tol tokens
// of their aligned position. The slack keeps a coarse-stride scan from
// scoring zero when the true alignment falls between two stride offsets;
// the fine pass then pins it down with exact alignment.
func coarseScore(rec, ref []fingerprint.Token, offset, tol int) float64 {
	matched := 0
	for i, t := range ref {
		lo := offset + i - tol
		if lo < 0 {
			lo = 0
		}
		hi := offset + i + tol
		if hi >= len(rec) {
			hi = len(rec) - 1
		}
		for j := lo; j <= hi; j++ {
			if rec[j] == t {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(ref))
}

// Match scans the recording stream for every reference song concurrently,
// one worker per reference with read-only shared access to the stream.
// Candidates are sorted by confidence, then timestamp. References that never
// score above the confidence floor simply yield no candidate.
func Match(ctx context.Context, rec *fingerprint.Stream, refs []Reference, cfg Config) ([]Candidate, error) {
	if rec == nil || len(rec.Tokens) == 0 {
		return nil, fmt.Errorf("%w: empty recording stream", audio.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()

	var (
		mu         sync.Mutex
		candidates []Candidate
		scanErr    error
		wg         sync.WaitGroup
	)

	for _, ref := range refs {
		wg.Add(1)
		go func(ref Reference) {
			defer wg.Done()
			found, err := scanReference(ctx, rec, ref, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if scanErr == nil {
					scanErr = err
				}
				return
			}
			candidates = append(candidates, found...)
		}(ref)
	}
	wg.Wait()

	if scanErr != nil {
		return nil, scanErr
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].TimestampMs < candidates[j].TimestampMs
	})
	return candidates, nil
}

// MatchOne scans for a single reference and returns ErrNoMatch when it never
// clears the confidence floor.
func MatchOne(ctx context.Context, rec *fingerprint.Stream, ref Reference, cfg Config) (Candidate, error) {
	if rec == nil || len(rec.Tokens) == 0 {
		return Candidate{}, fmt.Errorf("%w: empty recording stream", audio.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()
	cfg.AllOccurrences = false

	found, err := scanReference(ctx, rec, ref, cfg)
	if err != nil {
		return Candidate{}, err
	}
	if len(found) == 0 {
		return Candidate{}, fmt.Errorf("%w: %s", ErrNoMatch, ref.ID)
	}
	return found[0], nil
}

// scanReference does the coarse slide, then refines around the surviving
// offsets at fine step. Ties keep the earliest offset: offsets are visited
// in ascending order and only a strictly better score displaces the best.
func scanReference(ctx context.Context, rec *fingerprint.Stream, ref Reference, cfg Config) ([]Candidate, error) {
	if len(ref.Tokens) == 0 || len(ref.Tokens) > len(rec.Tokens) {
		return nil, nil
	}
	limit := len(rec.Tokens) - len(ref.Tokens)

	type coarseHit struct {
		offset int
		score  float64
	}
	var hits []coarseHit

	bestOff, bestScore := -1, 0.0
	for off := 0; off <= limit; off += cfg.CoarseStep {
		// The coarse scan is the only slow primitive; honor cancellation
		// between iterations.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s := coarseScore(rec.Tokens, ref.Tokens, off, cfg.CoarseStep)
		if s > bestScore {
			bestScore = s
			bestOff = off
		}
		if cfg.AllOccurrences && s >= cfg.MinConfidence {
			hits = append(hits, coarseHit{offset: off, score: s})
		}
	}
	if bestOff < 0 {
		return nil, nil
	}

	if !cfg.AllOccurrences {
		cand, ok := refine(rec, ref, bestOff, limit, cfg)
		if !ok {
			return nil, nil
		}
		return []Candidate{cand}, nil
	}

	// Multi-occurrence: keep the strongest hit of each cluster, requiring at
	// least one reference length between accepted offsets.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	var accepted []int
	for _, h := range hits {
		tooClose := false
		for _, a := range accepted {
			if abs(h.offset-a) < len(ref.Tokens) {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, h.offset)
		}
	}

	var out []Candidate
	for _, off := range accepted {
		if cand, ok := refine(rec, ref, off, limit, cfg); ok {
			out = append(out, cand)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMs < out[j].TimestampMs })
	return out, nil
}

// refine re-scores a neighborhood of one coarse step around the given offset
// at fine step, with exact alignment, and builds the candidate, applying the
// confidence floor.
func refine(rec *fingerprint.Stream, ref Reference, around, limit int, cfg Config) (Candidate, bool) {
	lo := around - cfg.CoarseStep
	if lo < 0 {
		lo = 0
	}
	hi := around + cfg.CoarseStep
	if hi > limit {
		hi = limit
	}

	bestOff, bestScore := -1, -1.0
	for off := lo; off <= hi; off += cfg.FineStep {
		if s := exactScore(rec.Tokens, ref.Tokens, off); s > bestScore {
			bestScore = s
			bestOff = off
		}
	}

	if bestOff < 0 || bestScore < cfg.MinConfidence {
		return Candidate{}, false
	}
	return Candidate{
		RefID:             ref.ID,
		Title:             ref.Title,
		Artist:            ref.Artist,
		TimestampMs:       int(math.Round(float64(bestOff) * rec.PeriodMs)),
		Confidence:        bestScore,
		MatchedDurationMs: int(math.Round(float64(len(ref.Tokens)) * rec.PeriodMs)),
	}, true
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
