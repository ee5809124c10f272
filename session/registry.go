package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps opaque browser-session IDs (carried in a cookie) to their
// session stores. Entries are swept once idle longer than maxAge.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	maxAge  time.Duration
	nowTime func() time.Time
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

func NewRegistry(maxAge time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		maxAge:  maxAge,
		nowTime: time.Now,
	}
}

// Create registers a fresh store and returns its ID.
func (r *Registry) Create(store *Store) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &registryEntry{store: store, lastSeen: r.nowTime()}
	return id
}

// Get returns the store for id, refreshing its idle timer. Expired entries
// are treated as missing.
func (r *Registry) Get(id string) (*Store, bool) {
	if id == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	if r.nowTime().Sub(entry.lastSeen) > r.maxAge {
		delete(r.entries, id)
		return nil, false
	}
	entry.lastSeen = r.nowTime()
	return entry.store, true
}

// Delete removes the session with the given ID.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of registered sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SweepEvery runs Sweep on the given interval until the returned stop
// function is called. Get only expires the entry it is asked for, so
// without the background sweep abandoned anonymous sessions would
// accumulate for the life of the process.
func (r *Registry) SweepEvery(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Sweep drops every entry idle longer than maxAge and reports how many were
// removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	cutoff := r.nowTime().Add(-r.maxAge)
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
