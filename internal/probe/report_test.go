package probe

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 500 * time.Millisecond, want: "0.5"},
		{in: 1234 * time.Millisecond, want: "1.23"},
		{in: 1236 * time.Millisecond, want: "1.24"},
		{in: 2 * time.Second, want: "2.0"},
		{in: 0, want: "0.0"},
		{in: 30*time.Second + 4*time.Millisecond, want: "30.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSeconds(tt.in))
		})
	}
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "OK", Snippet("OK", 200))
	assert.Equal(t, "abc", Snippet("abcdef", 3))
	assert.Equal(t, "", Snippet("abc", 0))
	// counts characters, not bytes
	assert.Equal(t, "héé", Snippet("héééé", 3))
	assert.Equal(t, strings.Repeat("あ", 200), Snippet(strings.Repeat("あ", 250), 200))
}

func TestWriteTextExample(t *testing.T) {
	result := Result{
		TargetURL:  "http://localhost:3000/api/v1/prediction/abc123",
		Outcome:    OutcomeSuccess,
		StatusCode: 200,
		Body:       "OK",
		Elapsed:    500 * time.Millisecond,
	}

	var out bytes.Buffer
	require.NoError(t, WriteAnnounce(&out, result.TargetURL))
	require.NoError(t, WriteText(&out, result))

	want := "sending request to http://localhost:3000/api/v1/prediction/abc123...\n" +
		"Status Code: 200\n" +
		"Response: OK...\n" +
		"Time Taken: 0.5s\n"
	assert.Equal(t, want, out.String())
}

func TestWriteTextTimeout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteText(&out, Result{Outcome: OutcomeTimeout}))
	assert.Equal(t, "❌ Error: Request timed out. The server received the request but is stuck.\n", out.String())
}

func TestWriteTextError(t *testing.T) {
	var out bytes.Buffer
	err := errors.New(`Post "http://localhost:1/api/v1/prediction/x": connection refused`)
	require.NoError(t, WriteText(&out, Result{Outcome: OutcomeError, Err: err}))
	assert.Equal(t, "❌ Error: "+err.Error()+"\n", out.String())
}

func TestWriteEvent(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteEvent(&out, Event{Name: "token", Data: "Hi", Elapsed: 1500 * time.Millisecond}))
	assert.Equal(t, "Event [1.5s]: token Hi\n", out.String())
}

func TestWriteJSON(t *testing.T) {
	result := Result{
		TargetURL:  "http://localhost:3000/api/v1/prediction/abc123",
		Outcome:    OutcomeSuccess,
		StatusCode: 200,
		Body:       strings.Repeat("x", 250),
		Elapsed:    1234 * time.Millisecond,
		StartedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var out bytes.Buffer
	require.NoError(t, Write(&out, "json", result))

	var rep Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, OutcomeSuccess, rep.Outcome)
	assert.Equal(t, 200, rep.StatusCode)
	assert.Len(t, rep.Response, 200)
	assert.True(t, rep.ResponseTruncated)
	assert.Equal(t, 1.23, rep.ElapsedSeconds)
}

func TestWriteYAMLTimeout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, "yaml", Result{TargetURL: "http://x", Outcome: OutcomeTimeout, Elapsed: 30 * time.Second}))

	var rep map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "timeout", rep["outcome"])
	assert.Equal(t, TimeoutMessage, rep["error"])
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", Result{}))
}
