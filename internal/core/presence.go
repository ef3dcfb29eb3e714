package core

import (
	"sync"
	"time"
)

// Status is a user's coarse presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusAway    Status = "away"
)

// PresenceRecord is the tracked state for one user.
type PresenceRecord struct {
	Status Status
	Since  time.Time
}

// PresenceTracker owns the presence record per user. Derived transitions
// (online on first connection, offline on last disconnect) are driven by the
// Hub from registry edges; explicit overrides (away) come from client signals
// and hold until the next count-driven transition.
type PresenceTracker struct {
	mu      sync.RWMutex
	records map[string]PresenceRecord
}

// NewPresenceTracker constructs an empty tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{records: make(map[string]PresenceRecord)}
}

// Get returns the user's presence record. Unknown users are offline.
func (t *PresenceTracker) Get(userID string) PresenceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rec, ok := t.records[userID]; ok {
		return rec
	}
	return PresenceRecord{Status: StatusOffline}
}

// MarkOnline records the zero-to-nonzero transition.
func (t *PresenceTracker) MarkOnline(userID string) PresenceRecord {
	return t.set(userID, StatusOnline)
}

// MarkOffline records the nonzero-to-zero transition.
func (t *PresenceTracker) MarkOffline(userID string) PresenceRecord {
	return t.set(userID, StatusOffline)
}

// SetExplicit applies a client-signaled override while connections exist.
func (t *PresenceTracker) SetExplicit(userID string, status Status) PresenceRecord {
	return t.set(userID, status)
}

func (t *PresenceTracker) set(userID string, status Status) PresenceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := PresenceRecord{Status: status, Since: time.Now().UTC()}
	t.records[userID] = rec
	return rec
}
