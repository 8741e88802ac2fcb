// Package probe sends a single prediction request and reports how the
// endpoint behaved: answered, hung past the timeout, or failed outright.
package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/longkey1/flowprobe/internal/payload"
	"github.com/longkey1/flowprobe/internal/target"
)

// DefaultTimeout bounds the full round trip (connect, headers and body).
const DefaultTimeout = 30 * time.Second

// Outcome is the terminal state of a probe
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
)

// Request describes a single probe
type Request struct {
	Target  target.Target
	Payload payload.Payload
	Timeout time.Duration
	Origin  string // Sent as the Origin header when set

	// OnEvent is called for each server-sent event as it arrives.
	// Only used when Payload.Streaming is true.
	OnEvent func(Event)
}

// NewRequest returns a request for the target with the default timeout
func NewRequest(t target.Target, p payload.Payload) Request {
	return Request{
		Target:  t,
		Payload: p,
		Timeout: DefaultTimeout,
	}
}

// Event is a server-sent event received in streaming mode
type Event struct {
	Name    string        // Event name, e.g. "token" or "end"
	Data    string        // Event payload
	Elapsed time.Duration // Time since the request was sent
}

// Result is the outcome of a probe
type Result struct {
	TargetURL  string
	Outcome    Outcome
	StatusCode int
	Body       string
	Elapsed    time.Duration
	Err        error
	Events     []Event
	StartedAt  time.Time
}

// OK reports whether the endpoint answered before the timeout
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// ErrorText returns the error message, or "" on success
func (r Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// IsTimeout reports whether err is a deadline expiry rather than a failure
// to connect or a malformed exchange
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
