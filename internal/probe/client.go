package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/longkey1/flowprobe/internal/version"
	resty "gopkg.in/resty.v1"
)

// Prober issues prediction requests
type Prober struct {
	client *resty.Client
	logger logr.Logger
}

// NewProber creates a Prober. With debug set, resty dumps each request and
// response through the logger.
func NewProber(logger logr.Logger, debug bool) *Prober {
	client := resty.New().
		SetLogger(logWriter{logger: logger}).
		SetDebug(debug).
		SetHeader("User-Agent", version.UserAgent()).
		SetRetryCount(0)

	return &Prober{
		client: client,
		logger: logger,
	}
}

// Run sends the request and blocks until the endpoint answers, the timeout
// fires, or the request fails. It never returns an error: every failure is
// captured in the Result.
func (p *Prober) Run(ctx context.Context, req Request) Result {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := req.Target.URL()
	r := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req.Payload)
	if req.Origin != "" {
		r.SetHeader("Origin", req.Origin)
	}
	if req.Payload.Streaming {
		r.SetHeader("Accept", "text/event-stream").SetDoNotParseResponse(true)
	}

	p.logger.V(1).Info("sending prediction request", "url", url, "timeout", timeout.String(), "streaming", req.Payload.Streaming)

	result := Result{
		TargetURL: url,
		StartedAt: time.Now(),
	}
	resp, err := r.Post(url)
	if err == nil {
		result.StatusCode = resp.StatusCode()
		if req.Payload.Streaming {
			result.Body, result.Events, err = readStream(resp.RawBody(), result.StartedAt, req.OnEvent)
		} else {
			result.Body = string(resp.Body())
		}
	}
	result.Elapsed = time.Since(result.StartedAt)
	result.Err = err
	result.Outcome = classify(err)

	if err != nil {
		p.logger.V(1).Info("prediction request failed", "url", url, "outcome", string(result.Outcome), "elapsed", result.Elapsed.String(), "error", err.Error())
		return result
	}
	p.logger.V(1).Info("prediction response received", "url", url, "status", result.StatusCode, "bytes", len(result.Body), "events", len(result.Events), "elapsed", result.Elapsed.String())
	if result.StatusCode >= http.StatusInternalServerError {
		p.logger.Error(nil, "server answered with an error status", "status", result.StatusCode, "message", serverMessage(result.Body))
	}
	return result
}

// readStream consumes a server-sent event body. The returned text is the
// concatenated token data, or the raw body when no events were found.
func readStream(body io.ReadCloser, start time.Time, onEvent func(Event)) (string, []Event, error) {
	if body == nil {
		return "", nil, fmt.Errorf("empty response body")
	}
	defer body.Close()

	var raw bytes.Buffer
	var events []Event
	err := parseEvents(io.TeeReader(body, &raw), func(name, data string) {
		ev := Event{Name: name, Data: data, Elapsed: time.Since(start)}
		events = append(events, ev)
		if onEvent != nil {
			onEvent(ev)
		}
	})

	if len(events) == 0 {
		return raw.String(), nil, err
	}

	var tokens strings.Builder
	for _, ev := range events {
		if ev.Name == "token" {
			tokens.WriteString(ev.Data)
		}
	}
	if tokens.Len() == 0 {
		return raw.String(), events, err
	}
	return tokens.String(), events, err
}

// logWriter forwards resty's log output to the structured logger
type logWriter struct {
	logger logr.Logger
}

func (w logWriter) Write(b []byte) (int, error) {
	w.logger.V(1).Info(strings.TrimRight(string(b), "\n"), "component", "resty")
	return len(b), nil
}
