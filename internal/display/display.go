// Package display holds the transient state of the details screen between cycles.
package display

import (
	"sync"

	"github.com/kjstillabower/weather-display-service/internal/pipeline"
)

// Snapshot is a consistent view of the screen. Current is the last rendered cycle;
// LastFailure is set only when a cycle failed after it.
type Snapshot struct {
	Current     *pipeline.Result
	LastFailure *pipeline.Failure
}

// Store keeps the last rendered Result and the last failure. Writes from older
// generations than the one already shown are ignored. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current *pipeline.Result
	failure *pipeline.Failure
}

func NewStore() *Store {
	return &Store{}
}

// Publish replaces the screen with r and clears any earlier failure.
func (s *Store) Publish(r pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newest() > r.Generation {
		return
	}
	s.current = &r
	s.failure = nil
}

// Fail records a failed cycle. The previously rendered screen stays in place.
func (s *Store) Fail(f pipeline.Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newest() > f.Generation {
		return
	}
	s.failure = &f
}

// newest is the highest generation seen. Caller holds mu.
func (s *Store) newest() uint64 {
	var gen uint64
	if s.current != nil {
		gen = s.current.Generation
	}
	if s.failure != nil && s.failure.Generation > gen {
		gen = s.failure.Generation
	}
	return gen
}

// Snapshot returns copies, so callers may read them without holding the lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snap Snapshot
	if s.current != nil {
		c := *s.current
		snap.Current = &c
	}
	if s.failure != nil {
		f := *s.failure
		snap.LastFailure = &f
	}
	return snap
}

// Clear discards everything, as on screen teardown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.failure = nil
}
