package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const wsWriteDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Same policy as the CORS middleware.
	},
}

// handleLogSocket is the WebSocket twin of the SSE reader: the same
// replay-then-live-then-terminal protocol, one JSON frame per message.
func (s *Server) handleLogSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := chi.URLParam(r, "sessionID")
	sess, found := s.store.Get(id)
	if !found {
		writeSocketJSON(conn, errorFrame{Error: "Session not found"})
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteDeadline))
		return
	}

	// Read pump: the stream is one-way, reads only detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cursor := sess.Log().Subscribe()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		for _, ev := range cursor.Next() {
			if err := writeSocketJSON(conn, logFrame{Log: formatEvent(ev)}); err != nil {
				return
			}
		}

		status, result, errMsg := sess.Snapshot()
		if status.Terminal() {
			for _, ev := range cursor.Next() {
				if err := writeSocketJSON(conn, logFrame{Log: formatEvent(ev)}); err != nil {
					return
				}
			}
			writeSocketJSON(conn, terminalFrameFor(status, result, errMsg))
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteDeadline))
			return
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func writeSocketJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return conn.WriteJSON(v)
}
