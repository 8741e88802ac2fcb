package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const unauthorizedOriginMessage = "This site is not allowed to access this chatbot"

type predictionRequest struct {
	Question       string          `json:"question"`
	History        json.RawMessage `json:"history"`
	Streaming      interface{}     `json:"streaming"`
	ChatID         string          `json:"chatId"`
	OverrideConfig struct {
		SessionID string `json:"sessionId"`
	} `json:"overrideConfig"`
}

// streamingRequested accepts both true and "true", as the real server does.
func (p predictionRequest) streamingRequested() bool {
	switch v := p.Streaming.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (p predictionRequest) chatID(newID func() string) string {
	if p.ChatID != "" {
		return p.ChatID
	}
	if p.OverrideConfig.SessionID != "" {
		return p.OverrideConfig.SessionID
	}
	return newID()
}

type predictionResponse struct {
	Text          string `json:"text"`
	Question      string `json:"question"`
	ChatID        string `json:"chatId"`
	ChatMessageID string `json:"chatMessageId"`
	SessionID     string `json:"sessionId"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Message: message})
}

func (s *Server) predictionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	raw, err := io.ReadAll(r.Body)
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		writeError(w, "Error: predictionsController.createPrediction - body not provided!")
		return
	}
	var req predictionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, fmt.Sprintf("invalid json: %v", err))
		return
	}

	if len(s.cfg.Chatflows) > 0 && !containsString(s.cfg.Chatflows, id) {
		writeError(w, fmt.Sprintf("Chatflow %s not found", id))
		return
	}

	if !s.originAllowed(r.Header.Get("Origin")) {
		if req.streamingRequested() {
			http.Error(w, unauthorizedOriginMessage, http.StatusForbidden)
			return
		}
		writeError(w, unauthorizedOriginMessage)
		return
	}

	chatID := req.chatID(s.deps.NewID)
	if req.streamingRequested() {
		s.stream(w, r, req, chatID)
		return
	}

	answer, err := s.predict(r.Context())
	if err != nil {
		s.deps.Logger.Error(err, "prediction failed", "chatflow", id, "chatId", chatID)
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, predictionResponse{
		Text:          answer,
		Question:      req.Question,
		ChatID:        chatID,
		ChatMessageID: s.deps.NewID(),
		SessionID:     chatID,
	})
}

// originAllowed compares hosts only, so scheme and path differences are ignored.
func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	if s.cfg.AllowedOrigins[0] == "" {
		return true
	}
	o, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		a, err := url.Parse(strings.TrimSpace(allowed))
		if err != nil {
			continue
		}
		if a.Host == o.Host {
			return true
		}
	}
	return false
}

// predict waits according to the mode and returns the answer. It gives up
// when the server-side prediction timeout fires, the client goes away, or
// the server is shutting down.
func (s *Server) predict(ctx context.Context) (string, error) {
	limit := time.NewTimer(s.cfg.PredictionTimeout)
	defer limit.Stop()

	var ready <-chan time.Time
	switch s.cfg.Mode {
	case ModeError:
		return "", errors.New(s.cfg.ErrorMessage)
	case ModeHang:
		// never ready
	default:
		delay := time.NewTimer(s.cfg.Delay)
		defer delay.Stop()
		ready = delay.C
	}

	select {
	case <-ready:
		return s.cfg.Answer, nil
	case <-limit.C:
		return "", fmt.Errorf("Operation timed out after %dms", s.cfg.PredictionTimeout.Milliseconds())
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.stopping:
		return "", errors.New("server shutting down")
	}
}
