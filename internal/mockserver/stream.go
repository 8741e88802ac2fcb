package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type streamEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e eventWriter) send(event string, data interface{}) error {
	payload, err := json.Marshal(streamEvent{Event: event, Data: data})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "message:\ndata: %s\n\n", payload); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// stream answers with server-sent events. Headers and the start event go out
// before the prediction runs, so a hung prediction shows up as an open
// stream with no tokens.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, req predictionRequest, chatID string) {
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ev := eventWriter{w: w, flusher: flusher}
	if err := ev.send("start", ""); err != nil {
		return
	}

	answer, err := s.predict(r.Context())
	if err != nil {
		s.deps.Logger.Error(err, "streaming prediction failed", "chatId", chatID)
		_ = ev.send("error", err.Error())
		return
	}

	for i, token := range strings.SplitAfter(answer, " ") {
		if i > 0 && s.cfg.TokenInterval > 0 {
			select {
			case <-time.After(s.cfg.TokenInterval):
			case <-r.Context().Done():
				return
			}
		}
		if err := ev.send("token", token); err != nil {
			return
		}
	}

	_ = ev.send("metadata", map[string]string{
		"chatId":        chatID,
		"chatMessageId": s.deps.NewID(),
		"question":      req.Question,
		"sessionId":     chatID,
	})
	_ = ev.send("end", "[DONE]")
}
