package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/longkey1/flowprobe/internal/logging"
	"github.com/longkey1/flowprobe/internal/mockserver"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// mockCmd represents the mock command
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local prediction server with scripted behavior",
	Long: `Run a stand-in prediction API to reproduce healthy, slow, hung or failing
endpoints locally.

Modes:
  ok     answer after --delay (default)
  hang   accept the request and never answer until the client gives up
         or --prediction-timeout fires
  error  answer with 500 {"success":false,"message":...}

Requests with "streaming": true receive server-sent events
(start, token..., metadata, end).

Logs are written to stderr as JSON.

Examples:
  flowprobe mock                                  # Healthy server on :3000
  flowprobe mock --mode hang                      # Reproduce a stuck chatflow
  flowprobe mock --delay 5s --chatflow abc123     # Slow server that knows one chatflow
  flowprobe mock --allowed-origin https://app.example.com`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := mockConfig(cmd.Flags())
		if err != nil {
			return err
		}

		srv := mockserver.New(cfg, mockserver.Dependencies{
			Logger: logging.NewJSON(verbose).WithName("mock"),
		})
		return srv.Run(cmd.Context())
	},
}

// mockConfig builds the server config from the mock flags
func mockConfig(flags *pflag.FlagSet) (mockserver.Config, error) {
	cfg := mockserver.Config{}
	cfg.Addr, _ = flags.GetString("addr")
	cfg.Mode, _ = flags.GetString("mode")
	cfg.Delay, _ = flags.GetDuration("delay")
	cfg.Answer, _ = flags.GetString("answer")
	cfg.ErrorMessage, _ = flags.GetString("error-message")
	cfg.PredictionTimeout, _ = flags.GetDuration("prediction-timeout")
	cfg.TokenInterval, _ = flags.GetDuration("token-interval")
	cfg.Chatflows, _ = flags.GetStringSlice("chatflow")
	cfg.AllowedOrigins, _ = flags.GetStringSlice("allowed-origin")
	cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	cfg.IdleTimeout, _ = flags.GetDuration("idle-timeout")

	if !mockserver.ValidMode(cfg.Mode) {
		return mockserver.Config{}, fmt.Errorf("unknown mode: %s (expected %s)", cfg.Mode,
			strings.Join([]string{mockserver.ModeOK, mockserver.ModeHang, mockserver.ModeError}, ", "))
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(mockCmd)
	addMockFlags(mockCmd.Flags())
}

// addMockFlags registers the mock server flags on flags
func addMockFlags(flags *pflag.FlagSet) {
	flags.String("addr", ":3000", "Address to listen on")
	flags.String("mode", mockserver.ModeOK, "Behavior of the prediction endpoint: ok, hang or error")
	flags.Duration("delay", 0, "Time to wait before answering in ok mode")
	flags.String("answer", "", "Answer text returned by the prediction endpoint")
	flags.String("error-message", "", "Message returned in error mode")
	flags.Duration("prediction-timeout", 0, "Server-side limit on a single prediction (default 60s)")
	flags.Duration("token-interval", 0, "Pause between streamed tokens")
	flags.StringSlice("chatflow", []string{}, "Known chatflow IDs (default: accept any)")
	flags.StringSlice("allowed-origin", []string{}, "Allowed Origin URLs (default: allow any)")
	flags.Duration("read-timeout", 10*time.Second, "Maximum time to read a request")
	flags.Duration("idle-timeout", 60*time.Second, "Keep-alive idle timeout")
}
