package tracker

import "sync"

// Tracker holds the current snapshot for concurrent callers. All changes go
// through Reduce.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *Tracker {
	return &Tracker{}
}

// Apply reduces e into the current snapshot and returns the new one.
func (t *Tracker) Apply(e Event) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, err := Reduce(t.snap, e)
	if err != nil {
		return t.snap, err
	}
	t.snap = next
	return next, nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
