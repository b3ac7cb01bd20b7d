package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type managed struct {
	store    *Store
	lastSeen time.Time
}

// Manager keeps one Store per session id. Stores are never shared.
type Manager struct {
	mu       sync.Mutex
	stores   map[string]*managed
	defaults Defaults

	// now is swapped in tests
	now func() time.Time
}

// NewManager creates a manager whose stores start from defaults
func NewManager(defaults Defaults) *Manager {
	return &Manager{
		stores:   make(map[string]*managed),
		defaults: defaults,
		now:      time.Now,
	}
}

// New returns an initialised store that no session id refers to yet
func (m *Manager) New() *Store {
	st := NewStore()
	st.Init(m.defaults)
	return st
}

// Get returns the store of an existing session and marks it as used
func (m *Manager) Get(id string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = m.now()
	return entry.store, true
}

// Register gives st a new session id
func (m *Manager) Register(st *Store) string {
	id := uuid.New().String()
	m.mu.Lock()
	m.stores[id] = &managed{store: st, lastSeen: m.now()}
	m.mu.Unlock()
	return id
}

// Create starts a new session with an initialised store
func (m *Manager) Create() (string, *Store) {
	st := m.New()
	return m.Register(st), st
}

// Delete tears a session down. It reports whether the id was live.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.stores[id]
	delete(m.stores, id)
	return ok
}

// ExpireIdle deletes every session unused for longer than idle and returns
// how many were removed
func (m *Manager) ExpireIdle(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-idle)
	removed := 0
	for id, entry := range m.stores {
		if entry.lastSeen.Before(cutoff) {
			delete(m.stores, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
