package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleLogStream is the SSE streaming reader: it replays the session's
// buffered events, follows live ones, and closes after the terminal frame.
// It never mutates session state; any number of readers may stream the
// same session concurrently.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Connection", "keep-alive")

	id := chi.URLParam(r, "sessionID")
	sess, found := s.store.Get(id)
	if !found {
		writeSSEFrame(w, eventError, errorFrame{Error: "Session not found"})
		flusher.Flush()
		return
	}

	cursor := sess.Log().Subscribe()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		for _, ev := range cursor.Next() {
			if err := writeSSEFrame(w, eventMessage, logFrame{Log: formatEvent(ev)}); err != nil {
				return
			}
		}
		flusher.Flush()

		status, result, errMsg := sess.Snapshot()
		if status.Terminal() {
			// The terminal write happens after the last append, but events
			// may have landed between our drain and the snapshot.
			for _, ev := range cursor.Next() {
				if err := writeSSEFrame(w, eventMessage, logFrame{Log: formatEvent(ev)}); err != nil {
					return
				}
			}
			writeSSEFrame(w, eventResult, terminalFrameFor(status, result, errMsg))
			flusher.Flush()
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
