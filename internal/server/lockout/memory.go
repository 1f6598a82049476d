package lockout

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often RecordFailure walks the whole map.
const sweepInterval = time.Minute

type memoryEntry struct {
	state       State
	lastFailure time.Time
}

// stale reports whether the entry no longer affects a login at now.
func (e memoryEntry) stale(now time.Time) bool {
	if e.state.LockedUntil != nil {
		return !now.Before(*e.state.LockedUntil)
	}
	return now.Sub(e.lastFailure) >= StaleAfter
}

// MemoryStore is a process-local Store used when no Redis is configured.
// Entries are dropped once their lock has passed or their last failure is
// older than StaleAfter, matching the TTLs the Redis store sets.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key].state, nil
}

// RecordFailure increments the counter and sets LockedUntil once threshold is
// reached. A lock that has already expired starts a fresh count.
func (s *MemoryStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	e, ok := s.entries[key]
	if ok && e.stale(now) {
		e = memoryEntry{}
	}
	e.state.FailedCount++
	e.lastFailure = now
	if e.state.FailedCount >= threshold {
		until := now.Add(window).UTC()
		e.state.LockedUntil = &until
	}
	s.entries[key] = e
	return e.state, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// sweep removes stale entries. Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if !s.lastSweep.IsZero() && now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, e := range s.entries {
		if e.stale(now) {
			delete(s.entries, key)
		}
	}
}
