package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SnippetLength is the maximum number of body characters printed.
	SnippetLength = 200

	ErrorMarker    = "❌ Error: "
	TimeoutMessage = "Request timed out. The server received the request but is stuck."
)

// Snippet returns at most n characters (not bytes) of s.
func Snippet(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// FormatSeconds renders d in seconds rounded to two decimals, keeping at
// least one decimal place: 500ms is "0.5", 1234ms is "1.23", 2s is "2.0".
func FormatSeconds(d time.Duration) string {
	s := math.Round(d.Seconds()*100) / 100
	out := strconv.FormatFloat(s, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// WriteAnnounce prints the line shown before the request is sent.
func WriteAnnounce(w io.Writer, url string) error {
	_, err := fmt.Fprintf(w, "sending request to %s...\n", url)
	return err
}

// WriteEvent prints a streaming event as it arrives.
func WriteEvent(w io.Writer, ev Event) error {
	_, err := fmt.Fprintf(w, "Event [%ss]: %s %s\n", FormatSeconds(ev.Elapsed), ev.Name, Snippet(ev.Data, SnippetLength))
	return err
}

// WriteText prints the outcome lines of a probe.
func WriteText(w io.Writer, r Result) error {
	var err error
	switch r.Outcome {
	case OutcomeSuccess:
		_, err = fmt.Fprintf(w, "Status Code: %d\nResponse: %s...\nTime Taken: %ss\n",
			r.StatusCode, Snippet(r.Body, SnippetLength), FormatSeconds(r.Elapsed))
	case OutcomeTimeout:
		_, err = fmt.Fprintln(w, ErrorMarker+TimeoutMessage)
	default:
		_, err = fmt.Fprintln(w, ErrorMarker+r.ErrorText())
	}
	return err
}

// Report is the machine-readable form of a Result
type Report struct {
	TargetURL         string        `json:"target_url" yaml:"target_url"`
	Outcome           Outcome       `json:"outcome" yaml:"outcome"`
	StatusCode        int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Response          string        `json:"response,omitempty" yaml:"response,omitempty"`
	ResponseTruncated bool          `json:"response_truncated,omitempty" yaml:"response_truncated,omitempty"`
	ElapsedSeconds    float64       `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Error             string        `json:"error,omitempty" yaml:"error,omitempty"`
	Events            []EventReport `json:"events,omitempty" yaml:"events,omitempty"`
	StartedAt         time.Time     `json:"started_at" yaml:"started_at"`
}

// EventReport is the machine-readable form of an Event
type EventReport struct {
	Name           string  `json:"name" yaml:"name"`
	Data           string  `json:"data" yaml:"data"`
	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// NewReport converts a Result for JSON or YAML output
func NewReport(r Result) Report {
	rep := Report{
		TargetURL:      r.TargetURL,
		Outcome:        r.Outcome,
		StatusCode:     r.StatusCode,
		ElapsedSeconds: roundSeconds(r.Elapsed),
		Error:          r.ErrorText(),
		StartedAt:      r.StartedAt.UTC(),
	}
	if r.Outcome == OutcomeTimeout {
		rep.Error = TimeoutMessage
	}
	if r.Outcome == OutcomeSuccess {
		rep.Response = Snippet(r.Body, SnippetLength)
		rep.ResponseTruncated = len(rep.Response) < len(r.Body)
	}
	for _, ev := range r.Events {
		rep.Events = append(rep.Events, EventReport{
			Name:           ev.Name,
			Data:           Snippet(ev.Data, SnippetLength),
			ElapsedSeconds: roundSeconds(ev.Elapsed),
		})
	}
	return rep
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// Write renders the result in the given format: text, json or yaml.
func Write(w io.Writer, format string, r Result) error {
	switch format {
	case "", "text":
		return WriteText(w, r)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewReport(r))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewReport(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
