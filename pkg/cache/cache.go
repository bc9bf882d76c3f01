// Package cache stores computed diagrams and rendered artifacts.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// # Keys
//
// A [Keyer] turns computation inputs into cache keys. Diagram keys hash
// the hierarchy content, the sorted collapsed ids and the layout geometry,
// so the same inputs always map to the same entry. Artifact keys extend a
// diagram hash with the output format.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/gpuviz/pkg/core/layout"
)

// Default TTLs.
const (
	DiagramTTL  = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// DiagramKeyOpts are the inputs besides the hierarchy that affect a diagram.
type DiagramKeyOpts struct {
	Collapsed []string      `json:"collapsed"` // sorted collapsed ids
	Geometry  layout.Config `json:"geometry"`
}

// ArtifactKeyOpts are the inputs that affect a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer generates cache keys.
type Keyer interface {
	DiagramKey(hierarchyHash string, opts DiagramKeyOpts) string
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DiagramKey returns "diagram:<sha256>".
func (DefaultKeyer) DiagramKey(hierarchyHash string, opts DiagramKeyOpts) string {
	if opts.Collapsed == nil {
		opts.Collapsed = []string{}
	}
	return hashKey("diagram", hierarchyHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
