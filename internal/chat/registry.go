package chat

import "sync"

type registryEntry struct {
	mu    sync.Mutex
	refs  int
	state flowState
}

// StateRegistry owns the in-memory dialogue state of every user. Turns for
// the same user are serialised by a per-user lock; an entry disappears once
// its flow is idle and no turn holds or waits for it.
type StateRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewStateRegistry() *StateRegistry {
	return &StateRegistry{entries: make(map[string]*registryEntry)}
}

// session is a locked handle on one user's state.
type session struct {
	registry *StateRegistry
	key      string
	entry    *registryEntry
}

// acquire blocks until the caller holds key's lock.
func (r *StateRegistry) acquire(key string) *session {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &registryEntry{}
		r.entries[key] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()
	return &session{registry: r, key: key, entry: entry}
}

func (s *session) state() flowState { return s.entry.state }

func (s *session) set(fs flowState) { s.entry.state = fs }

func (s *session) reset() { s.entry.state = nil }

func (s *session) release() {
	s.entry.mu.Unlock()

	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	s.entry.refs--
	if s.entry.refs == 0 && s.entry.state == nil {
		delete(r.entries, s.key)
	}
}

// Snapshot returns the current state for key without creating an entry.
func (r *StateRegistry) Snapshot(key string) State {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if ok {
		entry.refs++
	}
	r.mu.Unlock()
	if !ok {
		return idleState
	}
	sess := &session{registry: r, key: key, entry: entry}
	entry.mu.Lock()
	defer sess.release()
	return viewOf(entry.state)
}

// Len returns the number of tracked users.
func (r *StateRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
