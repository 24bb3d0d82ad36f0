package session

import (
	"sync"
	"time"
)

// Status represents the lifecycle state of an analysis session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event is a single timestamped log line emitted while a session runs.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Session holds the full lifecycle record of one submitted analysis job:
// its status, event log, and terminal result or error. The job runner is
// the only writer; the store and any number of readers share it read-only.
type Session struct {
	ID        string
	CreatedAt time.Time

	log *EventLog

	mu         sync.RWMutex
	status     Status
	result     any
	errMsg     string
	terminalAt time.Time
	cancelled  bool
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		log:       NewEventLog(),
		status:    StatusRunning,
	}
}

// Log returns the session's event log.
func (s *Session) Log() *EventLog {
	return s.log
}

// Snapshot returns the current status along with the result (set iff
// completed) and error message (set iff failed). Non-blocking.
func (s *Session) Snapshot() (Status, any, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.result, s.errMsg
}

// Cancel requests cooperative cancellation. The runner checks the flag
// between pipeline stages; a stage already running is not interrupted.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// Cancelled reports whether cancellation has been requested.
func (s *Session) Cancelled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled
}

// complete flips the session to completed. No-op if already terminal.
func (s *Session) complete(result any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = StatusCompleted
	s.result = result
	s.terminalAt = time.Now().UTC()
}

// fail flips the session to failed. No-op if already terminal.
func (s *Session) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = StatusFailed
	s.errMsg = msg
	s.terminalAt = time.Now().UTC()
}

// terminalSince reports whether the session reached a terminal state at or
// before the given cutoff. Running sessions always return false.
func (s *Session) terminalSince(cutoff time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Terminal() && !s.terminalAt.After(cutoff)
}
