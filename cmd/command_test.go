package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetFlags restores every changed flag of c and its subcommands to its default
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeRoot runs the root command with args against a clean viper and flag state
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	if args == nil {
		args = []string{}
	}

	viper.Reset()
	resetFlags(rootCmd)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		viper.Reset()
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// predictionServer answers every chatflow except "hung", which never answers
type predictionServer struct {
	*httptest.Server
	release chan struct{}

	mu    sync.Mutex
	paths []string
}

func newPredictionServer(t *testing.T) *predictionServer {
	t.Helper()
	ps := &predictionServer{release: make(chan struct{})}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		ps.paths = append(ps.paths, r.URL.Path)
		ps.mu.Unlock()

		_, _ = io.ReadAll(r.Body)
		if strings.HasSuffix(r.URL.Path, "/hung") {
			select {
			case <-r.Context().Done():
			case <-ps.release:
			}
			return
		}
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	}))
	t.Cleanup(func() {
		close(ps.release)
		ps.Close()
	})
	return ps
}

func (ps *predictionServer) lastPath() string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.paths) == 0 {
		return ""
	}
	return ps.paths[len(ps.paths)-1]
}
