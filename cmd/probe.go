/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/history"
	"github.com/longkey1/flowprobe/internal/logging"
	"github.com/longkey1/flowprobe/internal/payload"
	"github.com/longkey1/flowprobe/internal/probe"
	"github.com/longkey1/flowprobe/internal/target"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errProbeFailed is returned with --fail when the probe timed out or errored
var errProbeFailed = errors.New("probe did not get a response")

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe [chatflow-id | prediction-url]",
	Short: "Send one prediction request and report how the server behaved",
	Long: `Send a single POST to {base_url}/api/v1/prediction/{chatflow_id} and print:

  sending request to <url>...
  Status Code: <code>
  Response: <first 200 characters>...
  Time Taken: <seconds>s

If no response arrives within the timeout, a fixed message reports that the
server received the request but is stuck. Other failures print the error.

The chatflow ID can be given as an argument, or a full prediction URL can be
passed instead of base URL and chatflow ID.

With --payload, the request body is built from a TOML template found in the
payload directories:
question = "Question with optional {{input}} placeholder"
streaming = false  # Optional

[[history]]
role = "userMessage"   # or "apiMessage"
content = "Earlier turn with optional {{key}} placeholders"

Examples:
  flowprobe probe abc123
  flowprobe probe http://localhost:3000/api/v1/prediction/abc123
  flowprobe probe --timeout 5s --stream abc123
  flowprobe probe --payload smoke --arg name:Ada --save --name before-deploy`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runProbe,
}

// addProbeFlags registers the probe flags on cmd
func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", "", "Base URL of the prediction server (default http://localhost:3000)")
	cmd.Flags().String("chatflow-id", "", "Chatflow ID to send the prediction to")
	cmd.Flags().StringP("question", "q", "", "Question to send (default \"Test message to debug hanging\")")
	cmd.Flags().StringP("timeout", "t", "", "Time to wait for the full response, e.g. 5s or 2m (default 30s)")
	cmd.Flags().String("origin", "", "Origin header to send (exercises the server's allowed origins)")
	cmd.Flags().StringP("output", "o", "", "Output format: text, json or yaml (default text)")
	cmd.Flags().Bool("stream", false, "Request a streaming response and report each event as it arrives")
	cmd.Flags().StringP("payload", "p", "", "Name of the payload template (without .toml extension)")
	cmd.Flags().StringArray("arg", []string{}, "Key-value pairs for the payload template (format: key:value)")
	cmd.Flags().Bool("save", false, "Save the result to the probe history")
	cmd.Flags().String("name", "", "Name for the saved probe (optional, requires --save)")
	cmd.Flags().Bool("fail", false, "Exit with status 1 when the probe times out or fails")
}

// probeFlagKeys maps flag names to config keys
var probeFlagKeys = map[string]string{
	"base-url":    "base_url",
	"chatflow-id": "chatflow_id",
	"question":    "question",
	"timeout":     "timeout",
	"origin":      "origin",
	"output":      "output",
}

// bindProbeFlags binds the flags that were explicitly set, so they take
// precedence over env and config file values
func bindProbeFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range probeFlagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// resolveTarget applies the positional argument on top of the configured target
func resolveTarget(cfg *config.Config, args []string) (target.Target, error) {
	tgt := cfg.Target()
	if len(args) > 0 {
		if target.IsPredictionURL(args[0]) {
			parsed, err := target.Parse(args[0])
			if err != nil {
				return target.Target{}, err
			}
			tgt = parsed
		} else {
			tgt.ChatflowID = args[0]
		}
	}
	if err := tgt.Validate(); err != nil {
		return target.Target{}, err
	}
	return tgt, nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	if err := bindProbeFlags(viper.GetViper(), cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tgt, err := resolveTarget(cfg, args)
	if err != nil {
		return err
	}

	timeout, err := cfg.GetTimeout()
	if err != nil {
		return err
	}

	payloadName, _ := cmd.Flags().GetString("payload")
	argFlags, _ := cmd.Flags().GetStringArray("arg")
	body, err := payload.Build(cfg.Question, payloadName, cfg.PayloadDirs, argFlags)
	if err != nil {
		return fmt.Errorf("building payload: %w", err)
	}
	if cmd.Flags().Changed("stream") {
		body.Streaming, _ = cmd.Flags().GetBool("stream")
	}

	req := probe.NewRequest(tgt, body)
	req.Timeout = timeout
	req.Origin = cfg.Origin

	logger := logging.New(verbose)
	out := cmd.OutOrStdout()
	result := execProbe(cmd, out, cfg.Output, probe.NewProber(logger, verbose), req)

	if save, _ := cmd.Flags().GetBool("save"); save {
		record := history.NewRecord(req, result)
		record.Name, _ = cmd.Flags().GetString("name")
		store := history.NewStore(cfg.HistoryDir)
		if err := store.Save(record); err != nil {
			return fmt.Errorf("saving probe: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nProbe saved: %s\n", record.GetShortID())
		fmt.Fprintf(cmd.ErrOrStderr(), "Path: %s\n", filepath.Join(store.Dir(), record.ID+".json"))
		fmt.Fprintf(cmd.ErrOrStderr(), "Show it again with:\n  flowprobe history show %s\n", record.GetShortID())
	}

	if fail, _ := cmd.Flags().GetBool("fail"); fail && !result.OK() {
		return errProbeFailed
	}
	return nil
}

// execProbe runs the probe and prints the outcome. In text mode the target
// line is printed before the request goes out and stream events as they arrive.
func execProbe(cmd *cobra.Command, out io.Writer, format string, prober *probe.Prober, req probe.Request) probe.Result {
	text := format == "" || format == "text"
	if text {
		probe.WriteAnnounce(out, req.Target.URL())
		if req.Payload.Streaming {
			req.OnEvent = func(ev probe.Event) {
				probe.WriteEvent(out, ev)
			}
		}
	}

	result := prober.Run(cmd.Context(), req)

	if err := probe.Write(out, format, result); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error writing result: %v\n", err)
	}
	return result
}

func init() {
	rootCmd.AddCommand(probeCmd)
	addProbeFlags(probeCmd)
}
