// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/briefbot/internal/domain"
)

// BriefCounter is the name of the counter that mints brief numbers.
const BriefCounter = "brief"

// SessionStore persists wizard sessions keyed by user id and the process-wide
// counters. Writes are last-write-wins.
type SessionStore interface {
	// Get retrieves the session for userID. Returns nil, nil if there is none.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// Set creates or replaces the session for its user.
	Set(ctx context.Context, session *domain.Session) error

	// Update applies a partial update. Updating a missing session is a no-op.
	Update(ctx context.Context, userID string, patch domain.SessionPatch) error

	// Delete removes the session for userID. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error

	// IncrementCounter atomically adds one to the named counter and returns the new value.
	IncrementCounter(ctx context.Context, name string) (int64, error)

	// ListReviewBefore returns user ids of review-stage sessions completed before cutoff.
	ListReviewBefore(ctx context.Context, cutoff time.Time) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}
