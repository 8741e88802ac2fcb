package probe

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const maxEventLine = 1 << 20

// parseEvents reads a text/event-stream body and calls emit once per event.
// Prediction servers wrap each event as data: {"event": "...", "data": ...};
// those are unwrapped so emit sees the inner name and data.
func parseEvents(r io.Reader, emit func(name, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var name string
	var data []string
	dispatch := func() {
		if name == "" && len(data) == 0 {
			return
		}
		emit(unwrapEvent(name, strings.Join(data, "\n")))
		name, data = "", nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			dispatch()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	dispatch()
	return scanner.Err()
}

func unwrapEvent(name, data string) (string, string) {
	if name == "" {
		name = "message"
	}

	var wrapped struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(data), &wrapped); err != nil || wrapped.Event == "" {
		return name, data
	}

	var s string
	if err := json.Unmarshal(wrapped.Data, &s); err == nil {
		return wrapped.Event, s
	}
	return wrapped.Event, string(wrapped.Data)
}

// serverMessage extracts the message from a {"success": false, "message": ...}
// error body, or returns "" when the body has another shape.
func serverMessage(body string) string {
	var e struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return ""
	}
	if e.Success == nil || *e.Success {
		return ""
	}
	return e.Message
}
