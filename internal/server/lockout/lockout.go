// Package lockout tracks failed login attempts per account and locks an
// account out for a fixed window once a threshold is reached.
package lockout

import (
	"context"
	"strings"
	"time"
)

// StaleAfter is how long a counter that never reached the threshold is kept
// after its last failure.
const StaleAfter = 24 * time.Hour

// State is the failure counter for one login key.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

// Locked reports whether the key is still locked at now.
func (s State) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// Store keeps lockout state. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (State, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error)
	Clear(ctx context.Context, key string) error
}

// Key derives the lockout key for an email address.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
