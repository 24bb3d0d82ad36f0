package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

// Stream frame payloads shared by the SSE and WebSocket log readers.

type logFrame struct {
	Log string `json:"log"`
}

type errorFrame struct {
	Error string `json:"error"`
}

type terminalFrame struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Stream event names.
const (
	eventMessage = "message"
	eventResult  = "result"
	eventError   = "error"
)

// formatEvent renders one log event the way clients display it.
func formatEvent(ev session.Event) string {
	return fmt.Sprintf("[%s] %s", ev.Timestamp.Format("15:04:05"), ev.Message)
}

// terminalFrameFor builds the final stream frame from a session snapshot.
func terminalFrameFor(status session.Status, result any, errMsg string) terminalFrame {
	if status == session.StatusCompleted {
		return terminalFrame{Status: string(status), Result: result}
	}
	return terminalFrame{Status: string(status), Error: errMsg}
}

// writeSSEFrame writes one server-sent event record.
func writeSSEFrame(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
