package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/borges/vm"
)

// handle is a server-side reference to a decoded value.
type handle struct {
	id       string
	value    vm.Value
	created  time.Time
	lastUsed time.Time
}

// HandleStore maps opaque string IDs to values. Values keep their array
// identity, so two handles can refer to the same shared array.
type HandleStore struct {
	mu      sync.RWMutex
	handles map[string]*handle
}

// NewHandleStore creates a new handle store.
func NewHandleStore() *HandleStore {
	return &HandleStore{
		handles: make(map[string]*handle),
	}
}

// Create registers a value and returns an opaque handle ID.
func (s *HandleStore) Create(value vm.Value) string {
	id := "h-" + uuid.Must(uuid.NewV7()).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.handles[id] = &handle{
		id:       id,
		value:    value,
		created:  now,
		lastUsed: now,
	}
	return id
}

// Lookup retrieves the value for a handle. Returns the value and true,
// or the zero Value and false if the handle doesn't exist.
func (s *HandleStore) Lookup(id string) (vm.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[id]
	if !ok {
		return vm.Value{}, false
	}
	h.lastUsed = time.Now()
	return h.value, true
}

// LookupAll resolves every id, returning the first id that is missing.
func (s *HandleStore) LookupAll(ids []string) ([]vm.Value, string, bool) {
	values := make([]vm.Value, len(ids))
	for i, id := range ids {
		v, ok := s.Lookup(id)
		if !ok {
			return nil, id, false
		}
		values[i] = v
	}
	return values, "", true
}

// Release removes a handle. It reports whether the handle existed.
func (s *HandleStore) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[id]; !ok {
		return false
	}
	delete(s.handles, id)
	return true
}

// Len returns the number of live handles.
func (s *HandleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}

// Sweep removes handles that haven't been accessed within the TTL.
func (s *HandleStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, h := range s.handles {
		if h.lastUsed.Before(cutoff) {
			delete(s.handles, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *HandleStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(ttl); n > 0 {
					log.Debug("swept idle handles", "count", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
