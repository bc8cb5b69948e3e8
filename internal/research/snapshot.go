package research

import (
	"sync"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
)

// Snapshot is the latest refreshed research state served by the API
// and pushed to websocket subscribers.
type Snapshot struct {
	Frame     *Frame                    `json:"frame"`
	Composite contracts.CompositeSignal `json:"composite"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// SnapshotStore holds the current snapshot behind a lock. Refresh jobs
// write it; API handlers read it.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Set replaces the current snapshot.
func (s *SnapshotStore) Set(snap *Snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}

// Get returns the current snapshot, or false when no refresh has
// completed yet.
func (s *SnapshotStore) Get() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}
