package analytics

import "sync"

// Tracker orders concurrent recomputations of one live view.
// Every computation takes an id from Begin; only the result of the newest one is kept.
type Tracker struct {
	mu     sync.Mutex
	issued uint64
	last   *CohortAnalytics
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin issues the id of a new computation.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// IsLatest reports whether id is the newest issued computation.
func (t *Tracker) IsLatest(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id == t.issued
}

// Commit stores a as the last good result when id is still the newest computation.
func (t *Tracker) Commit(id uint64, a CohortAnalytics) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != t.issued {
		return false
	}
	t.last = &a
	return true
}

// Last returns the last committed result, nil before the first one.
func (t *Tracker) Last() *CohortAnalytics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
