// Package library holds the in-memory reference song set for one run.
// References live only for the lifetime of a processing run; there is no
// on-disk persistence.
package library

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jamcut/jamcut/pkg/jamcut/audio"
	"github.com/jamcut/jamcut/pkg/jamcut/fingerprint"
	"github.com/jamcut/jamcut/pkg/jamcut/match"
)

// ErrSongNotFound is returned for lookups of unknown reference IDs.
var ErrSongNotFound = errors.New("song not found")

// Song is one registered reference.
type Song struct {
	ID         string
	Title      string
	Artist     string
	Tokens     []fingerprint.Token
	DurationMs int
}

// Library is a concurrency-safe in-memory reference set.
type Library struct {
	mu    sync.RWMutex
	songs map[string]*Song
}

func New() *Library {
	return &Library{songs: make(map[string]*Song)}
}

// Register adds a reference song and returns its generated ID. Registering
// the same title/artist pair again returns the existing ID unchanged.
func (l *Library) Register(title, artist string, tokens []fingerprint.Token, durationMs int) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: reference %q has no tokens", audio.ErrInvalidInput, title)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, s := range l.songs {
		if s.Title == title && s.Artist == artist {
			return s.ID, nil
		}
	}

	id := uuid.NewString()
	l.songs[id] = &Song{
		ID:         id,
		Title:      title,
		Artist:     artist,
		Tokens:     tokens,
		DurationMs: durationMs,
	}
	return id, nil
}

// Get returns a reference song by ID.
func (l *Library) Get(id string) (*Song, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.songs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	return s, nil
}

// Delete removes a reference song.
func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.songs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	delete(l.songs, id)
	return nil
}

// List returns all reference songs sorted by title, then artist.
func (l *Library) List() []Song {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Song, 0, len(l.songs))
	for _, s := range l.songs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Artist < out[j].Artist
	})
	return out
}

// Len returns the number of registered references.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.songs)
}

// References adapts the library contents for the matcher.
func (l *Library) References() []match.Reference {
	songs := l.List()
	refs := make([]match.Reference, 0, len(songs))
	for _, s := range songs {
		refs = append(refs, match.Reference{
			ID:     s.ID,
			Title:  s.Title,
			Artist: s.Artist,
			Tokens: s.Tokens,
		})
	}
	return refs
}
