package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/longkey1/flowprobe/internal/probe"
)

// Record is a saved probe result
type Record struct {
	ID         string       `json:"id"`   // UUID v4 (e.g., "550e8400-e29b-41d4-a716-446655440000")
	Name       string       `json:"name"` // Optional record name (empty by default)
	TargetURL  string       `json:"target_url"`
	ChatflowID string       `json:"chatflow_id"`
	Question   string       `json:"question"`
	Streaming  bool         `json:"streaming"`
	Timeout    string       `json:"timeout"`
	Report     probe.Report `json:"report"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewRecord creates a record from a finished probe
func NewRecord(req probe.Request, result probe.Result) *Record {
	return &Record{
		ID:         uuid.New().String(),
		TargetURL:  result.TargetURL,
		ChatflowID: req.Target.ChatflowID,
		Question:   req.Payload.Question,
		Streaming:  req.Payload.Streaming,
		Timeout:    req.Timeout.String(),
		Report:     probe.NewReport(result),
		CreatedAt:  time.Now(),
	}
}

// GetShortID returns the shortened record ID (first 8 characters)
func (r *Record) GetShortID() string {
	if len(r.ID) >= 8 {
		return r.ID[:8]
	}
	return r.ID
}

// GetDisplayName returns the name if set, otherwise the short ID
func (r *Record) GetDisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.GetShortID()
}
