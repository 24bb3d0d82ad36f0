package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Store is a concurrency-safe registry of analysis sessions. The lock
// guards only the id map; session state has its own synchronization, so
// operations on different sessions never block each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create allocates a new running session under a fresh id.
func (st *Store) Create() *Session {
	sess := newSession(uuid.New().String())

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	return sess
}

// Get returns a session by id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[id]
	return sess, ok
}

// Complete marks a session completed with the given result. No-op if the
// id is unknown or the session is already terminal.
func (st *Store) Complete(id string, result any) {
	if sess, ok := st.Get(id); ok {
		sess.complete(result)
	}
}

// Fail marks a session failed with the given diagnostic. No-op if the id
// is unknown or the session is already terminal.
func (st *Store) Fail(id, msg string) {
	if sess, ok := st.Get(id); ok {
		sess.fail(msg)
	}
}

// Delete removes a session from the registry.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of registered sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions that reached a terminal state longer than the
// retention window ago and returns how many were removed. Running sessions
// are never swept.
func (st *Store) Sweep(retention time.Duration) int {
	cutoff := time.Now().UTC().Add(-retention)

	st.mu.RLock()
	var expired []string
	for id, sess := range st.sessions {
		if sess.terminalSince(cutoff) {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()

	for _, id := range expired {
		st.Delete(id)
	}
	return len(expired)
}
