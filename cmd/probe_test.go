package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/history"
	"github.com/longkey1/flowprobe/internal/payload"
	"github.com/longkey1/flowprobe/internal/probe"
	"github.com/longkey1/flowprobe/internal/target"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	cfg := &config.Config{BaseURL: "http://localhost:3000", ChatflowID: "from-config"}

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "config only", args: nil, want: "http://localhost:3000/api/v1/prediction/from-config"},
		{name: "chatflow argument", args: []string{"abc123"}, want: "http://localhost:3000/api/v1/prediction/abc123"},
		{
			name: "prediction url argument",
			args: []string{"https://flow.example.com/api/v1/prediction/f00d"},
			want: "https://flow.example.com/api/v1/prediction/f00d",
		},
		{name: "url without id", args: []string{"https://flow.example.com/api/v1/prediction/"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTarget(cfg, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.URL())
		})
	}
}

func TestResolveTargetEmptyBase(t *testing.T) {
	_, err := resolveTarget(&config.Config{ChatflowID: "abc"}, nil)
	assert.Error(t, err)
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{}
	c.SetContext(context.Background())
	var errOut bytes.Buffer
	c.SetErr(&errOut)
	return c, &errOut
}

func TestExecProbeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 250)))
	}))
	defer srv.Close()

	c, _ := newTestCommand()
	var out bytes.Buffer
	req := probe.NewRequest(target.New(srv.URL, "abc123"), payload.New(config.DefaultQuestion))

	result := execProbe(c, &out, "text", probe.NewProber(logr.Discard(), false), req)

	require.True(t, result.OK(), result.ErrorText())
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "sending request to "+srv.URL+"/api/v1/prediction/abc123...", lines[0])
	assert.Equal(t, "Status Code: 200", lines[1])
	assert.Equal(t, "Response: "+strings.Repeat("a", 200)+"...", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Time Taken: "), lines[3])
	assert.True(t, strings.HasSuffix(lines[3], "s"), lines[3])
}

func TestExecProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := newTestCommand()
	var out bytes.Buffer
	req := probe.NewRequest(target.New(srv.URL, "abc123"), payload.New(config.DefaultQuestion))
	req.Timeout = 100 * time.Millisecond

	result := execProbe(c, &out, "text", probe.NewProber(logr.Discard(), false), req)

	assert.Equal(t, probe.OutcomeTimeout, result.Outcome)
	assert.Equal(t,
		"sending request to "+srv.URL+"/api/v1/prediction/abc123...\n"+
			"❌ Error: Request timed out. The server received the request but is stuck.\n",
		out.String())
}

func TestExecProbeJSONSkipsAnnounce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	c, _ := newTestCommand()
	var out bytes.Buffer
	req := probe.NewRequest(target.New(srv.URL, "abc123"), payload.New(config.DefaultQuestion))

	execProbe(c, &out, "json", probe.NewProber(logr.Discard(), false), req)

	assert.NotContains(t, out.String(), "sending request to")
	assert.Contains(t, out.String(), `"outcome": "success"`)
	assert.Contains(t, out.String(), `"status_code": 200`)
}

func TestCommandTargetAndFail(t *testing.T) {
	srv := newPredictionServer(t)

	tests := []struct {
		name     string
		args     []string
		wantPath string
		wantErr  error
		wantOut  string
	}{
		{
			name:     "env sets target",
			args:     []string{"probe"},
			wantPath: "/api/v1/prediction/fromenv",
			wantOut:  "Status Code: 200\n",
		},
		{
			name:     "root command probes by default",
			args:     nil,
			wantPath: "/api/v1/prediction/fromenv",
		},
		{
			name:     "flag overrides env",
			args:     []string{"probe", "--chatflow-id", "fromflag"},
			wantPath: "/api/v1/prediction/fromflag",
		},
		{
			name:     "argument overrides env",
			args:     []string{"probe", "fromarg"},
			wantPath: "/api/v1/prediction/fromarg",
		},
		{
			name:     "fail on hung server",
			args:     []string{"probe", "--fail", "--timeout", "100ms", "hung"},
			wantPath: "/api/v1/prediction/hung",
			wantErr:  errProbeFailed,
			wantOut:  "❌ Error: Request timed out. The server received the request but is stuck.\n",
		},
		{
			name:     "hung server without fail exits cleanly",
			args:     []string{"probe", "--timeout", "100ms", "hung"},
			wantPath: "/api/v1/prediction/hung",
			wantOut:  "❌ Error: Request timed out. The server received the request but is stuck.\n",
		},
		{
			name:     "fail on healthy server",
			args:     []string{"probe", "--fail"},
			wantPath: "/api/v1/prediction/fromenv",
			wantOut:  "Status Code: 200\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv("FLOWPROBE_BASE_URL", srv.URL)
			t.Setenv("FLOWPROBE_CHATFLOW_ID", "fromenv")

			out, _, err := executeRoot(t, tt.args...)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantPath, srv.lastPath())
			assert.True(t, strings.HasPrefix(out, "sending request to "+srv.URL+tt.wantPath+"...\n"), out)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestSaveFlagStoresRecord(t *testing.T) {
	srv := newPredictionServer(t)
	historyDir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FLOWPROBE_BASE_URL", srv.URL)
	t.Setenv("FLOWPROBE_CHATFLOW_ID", "fromenv")
	t.Setenv("FLOWPROBE_HISTORY_DIR", historyDir)

	_, errOut, err := executeRoot(t, "probe", "--save", "--name", "smoke")
	require.NoError(t, err)

	records, err := history.NewStore(historyDir).List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "smoke", records[0].Name)
	assert.Equal(t, probe.OutcomeSuccess, records[0].Report.Outcome)
	assert.Contains(t, errOut, "Probe saved: "+records[0].GetShortID())
	assert.Contains(t, errOut, "Path: "+filepath.Join(historyDir, records[0].ID+".json"))
}
