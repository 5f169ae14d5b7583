package messaging

import (
	"sync"
	"time"
)

// InflightSet tracks message IDs currently being translated by this process.
// It is the orchestrator's first, cheap line of defense against duplicate
// notification delivery; the durable guard is the store-level claim.
//
// Entries carry a TTL so a crash between Add and Remove cannot wedge an ID
// forever, and the set is bounded so a flood of notifications cannot grow it
// without limit. The set is local to one process and does not coordinate
// across instances.
//
// Thread safety: safe for concurrent use.
type InflightSet struct {
	mu      sync.Mutex
	entries map[int64]time.Time
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// Defaults for NewInflightSet.
const (
	defaultInflightTTL  = 2 * time.Minute
	defaultInflightSize = 1024
)

// NewInflightSet creates an in-flight set with the given entry TTL and size
// bound. Non-positive arguments fall back to the defaults.
func NewInflightSet(ttl time.Duration, maxSize int) *InflightSet {
	if ttl <= 0 {
		ttl = defaultInflightTTL
	}
	if maxSize <= 0 {
		maxSize = defaultInflightSize
	}
	return &InflightSet{
		entries: make(map[int64]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Add records id as in-flight. Returns false if the id is already present
// and its entry has not expired — the caller must then skip the message.
// When the set is at capacity, expired entries are evicted first; if none
// are expired the add is still accepted (dedup degrades, correctness is
// preserved by the store-level claim).
func (s *InflightSet) Add(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if deadline, ok := s.entries[id]; ok && now.Before(deadline) {
		return false
	}

	if len(s.entries) >= s.maxSize {
		s.evictExpiredLocked(now)
	}

	s.entries[id] = now.Add(s.ttl)
	return true
}

// Remove drops id from the set. Safe to call for absent ids.
func (s *InflightSet) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Contains reports whether id is currently tracked and unexpired.
func (s *InflightSet) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.entries[id]
	return ok && s.now().Before(deadline)
}

// Len returns the number of tracked entries, including expired ones not yet
// evicted.
func (s *InflightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InflightSet) evictExpiredLocked(now time.Time) {
	for id, deadline := range s.entries {
		if !now.Before(deadline) {
			delete(s.entries, id)
		}
	}
}
