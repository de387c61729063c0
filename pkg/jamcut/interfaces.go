package jamcut

import (
	"context"

	"github.com/jamcut/jamcut/pkg/jamcut/fingerprint"
)

// Logger is the minimal logging surface the pipeline needs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// MetadataResolver identifies a song from its token sequence, returning
// title and artist. It is an optional external collaborator; failures must
// degrade to reporting without metadata, never abort matching.
type MetadataResolver interface {
	Resolve(ctx context.Context, tokens []fingerprint.Token) (title, artist string, err error)
}
