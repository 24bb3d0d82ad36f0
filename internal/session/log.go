package session

import (
	"fmt"
	"sync"
	"time"
)

// EventLog is an unbounded append-only log of session events. A late
// subscriber replays the full history; every cursor independently sees
// every event in emission order.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds a timestamped entry. Callers must honor the single-writer
// invariant: only the session's own runner appends.
func (l *EventLog) Append(msg string) {
	l.mu.Lock()
	l.events = append(l.events, Event{
		Timestamp: time.Now().UTC(),
		Message:   msg,
	})
	l.mu.Unlock()
}

// Appendf appends a formatted entry.
func (l *EventLog) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Len returns the number of buffered events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Subscribe returns a cursor positioned at the oldest entry, so the reader
// replays the full history before seeing live events.
func (l *EventLog) Subscribe() *Cursor {
	return &Cursor{log: l}
}

// since returns a copy of the events from the given position onward.
func (l *EventLog) since(pos int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-pos)
	copy(out, l.events[pos:])
	return out
}

// Cursor is one reader's position in an event log. Cursors are independent:
// each sees every event exactly once, in order. A Cursor is not safe for
// concurrent use by multiple goroutines.
type Cursor struct {
	log *EventLog
	pos int
}

// Next returns all events buffered since the previous call and advances
// past them. Returns nil when nothing new is available.
func (c *Cursor) Next() []Event {
	events := c.log.since(c.pos)
	c.pos += len(events)
	return events
}
