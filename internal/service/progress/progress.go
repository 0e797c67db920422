package progress

import (
	"sync"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
)

// Tracker is a keyed store of per-session progress snapshots. Writes come
// from the single in-flight fetch for a session, reads from polling clients;
// last write wins. Absent entries are not an error.
type Tracker struct {
	mu        sync.RWMutex
	snapshots map[string]entity.ProgressSnapshot
}

func NewTracker() *Tracker {
	return &Tracker{
		snapshots: make(map[string]entity.ProgressSnapshot),
	}
}

// Update replaces the stored snapshot for the session id.
func (t *Tracker) Update(sessionID string, snapshot entity.ProgressSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshots[sessionID] = snapshot
}

// Read returns the current snapshot, or the "unknown" sentinel if none exists.
func (t *Tracker) Read(sessionID string) entity.ProgressSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot, ok := t.snapshots[sessionID]
	if !ok {
		return entity.UnknownProgress()
	}

	return snapshot
}

// Clear removes the entry for the session id, if any.
func (t *Tracker) Clear(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.snapshots, sessionID)
}
