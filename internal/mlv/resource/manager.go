// Package resource implements the bounded, thread-safe decoded-frame
// buffer cache that fronts container indexing, frame-header assembly,
// still-image synthesis, and the correction pipeline (spec §4.8, §5).
package resource

import (
	"sync"
)

// MaxUnused is the soft ceiling: once more than this many entries exist,
// the oldest entry not currently in use is swept on the next creation.
const MaxUnused = 4

// MaxTotal is the hard ceiling: eviction forces the oldest entry out
// regardless of in_use once this count is exceeded.
const MaxTotal = 16

// entry is one decoded-frame buffer slot. Its own mutex is held while the
// factory runs, so two concurrent requests for the same path serialize on
// synthesis while requests for distinct paths proceed in parallel (spec
// §4.8).
type entry struct {
	path     string
	value    interface{}
	mu       sync.Mutex
	refCount int
}

// Manager is the path-keyed decoded-frame buffer cache. The outer mutex
// protects the map and insertion-order slice only; per-entry payload
// access is protected by each entry's own mutex, matching the teacher's
// Registry (outer mutex over the stream map) / Stream (per-stream mutex
// over Subscribers) split.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order, oldest first

	attrs *AttrCache
}

// NewManager creates an empty resource manager with a bounded attribute
// cache.
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		attrs:   NewAttrCache(1024),
	}
}

// Handle is the caller-visible reference to a decoded-frame buffer slot.
// Callers must call Release when done reading so the entry can be swept.
type Handle struct {
	mgr   *Manager
	path  string
	Value interface{}
}

// Release marks this handle's reference as no longer in use.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.mgr.releaseOne(h.path)
}

// GetOrCreate returns the existing buffer for path, or builds one via
// factory under that path's own lock. The returned created flag tells the
// caller whether factory ran. On factory error the entry is removed so a
// later call retries rather than caching a permanent failure.
func (m *Manager) GetOrCreate(path string, factory func() (interface{}, error)) (*Handle, bool, error) {
	m.mu.Lock()
	e, ok := m.entries[path]
	created := false
	if !ok {
		e = &entry{path: path}
		m.entries[path] = e
		m.order = append(m.order, path)
		created = true
		m.evictLocked()
	}
	e.refCount++
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if created {
		v, err := factory()
		if err != nil {
			m.mu.Lock()
			delete(m.entries, path)
			m.removeFromOrderLocked(path)
			m.mu.Unlock()
			return nil, false, err
		}
		e.value = v
	}

	return &Handle{mgr: m, path: path, Value: e.value}, created, nil
}

// ReleaseByPath releases one outstanding reference for path, if any entry
// exists for it. Safe to call even if no Handle is held (e.g. from index
// invalidation on an fsnotify event).
func (m *Manager) ReleaseByPath(path string) {
	m.releaseOne(path)
}

func (m *Manager) releaseOne(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[path]
	if !ok {
		return
	}
	if e.refCount > 0 {
		e.refCount--
	}
}

// Count returns the current number of cached entries.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// evictLocked runs the spec §4.8 eviction policy. Must be called with
// m.mu held.
func (m *Manager) evictLocked() {
	if len(m.order) > MaxUnused {
		if idx := m.findOldestUnusedLocked(); idx >= 0 {
			m.deleteAtLocked(idx)
		}
	}
	for len(m.order) > MaxTotal {
		m.deleteAtLocked(0)
	}
}

// findOldestUnusedLocked returns the index in m.order of the oldest entry
// whose refCount is 0, or -1 if every entry is in use.
func (m *Manager) findOldestUnusedLocked() int {
	for i, path := range m.order {
		if e, ok := m.entries[path]; ok && e.refCount == 0 {
			return i
		}
	}
	return -1
}

func (m *Manager) deleteAtLocked(idx int) {
	path := m.order[idx]
	delete(m.entries, path)
	m.order = append(m.order[:idx], m.order[idx+1:]...)
}

func (m *Manager) removeFromOrderLocked(path string) {
	for i, p := range m.order {
		if p == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

// Attrs returns the manager's attribute cache, for getattr memoization.
func (m *Manager) Attrs() *AttrCache { return m.attrs }
