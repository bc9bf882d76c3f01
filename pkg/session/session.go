// Package session stores collapse state for interactive diagram views.
//
// A session owns one hierarchy and the set of collapsed organization and
// business-unit ids a viewer has toggled. Every toggle produces a new
// immutable [hierarchy.Collapse]; the diagram is recomputed from it.
//
// Backends implement [Store]:
//   - [MemoryStore]: in-process map for tests and single-instance servers
//   - [FileStore]: JSON files for the CLI
//   - [RedisStore]: shared store for multi-instance deployments
//   - [MongoStore]: durable store with a TTL index
//
// # Usage
//
//	sess, err := session.New(cluster, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess, err = session.Toggle(ctx, store, sess.ID, "org-prod")
//	d := assemble.Build(sess.Hierarchy, sess.State())
package session

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gpuviz/pkg/cache"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/observability"
)

// Default durations.
const (
	// DefaultTTL is how long an untouched session lives. Toggling extends it.
	DefaultTTL = 24 * time.Hour
)

// Session is one viewer's collapse state over one hierarchy.
type Session struct {
	ID          string             `json:"id" bson:"_id"`
	HierarchyID string             `json:"hierarchy_id" bson:"hierarchy_id"` // content hash of Hierarchy
	Hierarchy   *hierarchy.Cluster `json:"hierarchy" bson:"hierarchy"`
	Collapsed   []string           `json:"collapsed" bson:"collapsed"` // sorted
	TTL         time.Duration      `json:"ttl" bson:"ttl"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
	ExpiresAt   time.Time          `json:"expires_at" bson:"expires_at"`
	Version     int64              `json:"version" bson:"version"` // bumped by Store.Update
}

// New creates a session for c. The initial collapse state comes from the
// collapsed flags stored in the hierarchy.
func New(c *hierarchy.Cluster, ttl time.Duration) (*Session, error) {
	if err := hierarchy.Validate(c); err != nil {
		return nil, err
	}
	hash, err := cache.HashJSON(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash hierarchy")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	return &Session{
		ID:          uuid.NewString(),
		HierarchyID: hash,
		Hierarchy:   c,
		Collapsed:   hierarchy.InitialCollapse(c).IDs(),
		TTL:         ttl,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// State returns the collapse state as an immutable value.
func (s *Session) State() hierarchy.Collapse {
	return hierarchy.CollapseOf(s.Collapsed...)
}

// IsCollapsed reports whether id is collapsed in this session.
func (s *Session) IsCollapsed(id string) bool {
	_, found := slices.BinarySearch(s.Collapsed, id)
	return found
}

// Toggle flips id and refreshes the expiry. It returns the new collapsed
// value for id. Ids that cannot collapse (projects, unknown ids) are
// rejected so a typo does not silently persist.
func (s *Session) Toggle(id string) (bool, error) {
	if s.Hierarchy == nil || !s.Hierarchy.Collapsible(id) {
		return false, errors.New(errors.ErrCodeNotFound, "no organization or business unit %q", id)
	}
	next := s.State().Toggle(id)
	s.Collapsed = next.IDs()
	s.touch()
	return next.IsCollapsed(id), nil
}

func (s *Session) touch() {
	now := time.Now()
	s.UpdatedAt = now
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Update applies fn to the stored session and writes the result back
	// atomically with respect to other Updates on the same id. It returns
	// nil, nil when the session does not exist or has expired. An error from
	// fn aborts the update and is returned unchanged.
	Update(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error)

	// Cleanup removes expired sessions (optional, may be no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Load fetches a session and turns a missing one into SESSION_NOT_FOUND.
func Load(ctx context.Context, store Store, sessionID string) (*Session, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found or expired", sessionID)
	}
	return sess, nil
}

// Toggle flips nodeID in the stored session. Concurrent toggles on one
// session are serialized by [Store.Update], so none of them is lost.
func Toggle(ctx context.Context, store Store, sessionID, nodeID string) (*Session, error) {
	if err := errors.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	var collapsed bool
	sess, err := store.Update(ctx, sessionID, func(s *Session) error {
		var err error
		collapsed, err = s.Toggle(nodeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found or expired", sessionID)
	}
	observability.Sessions().OnToggle(ctx, sessionID, nodeID, collapsed)
	return sess, nil
}

// Create stores a new session for c.
func Create(ctx context.Context, store Store, c *hierarchy.Cluster, ttl time.Duration) (*Session, error) {
	sess, err := New(c, ttl)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, sess); err != nil {
		return nil, err
	}
	observability.Sessions().OnSessionCreate(ctx, sess.ID)
	return sess, nil
}

// Remove deletes a session, reporting SESSION_NOT_FOUND when it is absent.
func Remove(ctx context.Context, store Store, sessionID string) error {
	if _, err := Load(ctx, store, sessionID); err != nil {
		return err
	}
	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	observability.Sessions().OnSessionDelete(ctx, sessionID)
	return nil
}
