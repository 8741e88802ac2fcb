package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/longkey1/flowprobe/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, base_url, chatflow_id, target_url, question, timeout, origin, payload_dirs, history_dir, output, history_retention_days"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  flowprobe config               # Show all configuration
  flowprobe config target_url    # Show only the prediction URL that would be probed
  flowprobe config timeout       # Show only the timeout
  flowprobe config history_dir   # Show only the history directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()

		// If a field is specified, show only that field
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			switch field {
			case "configfile":
				fmt.Fprintln(out, viper.ConfigFileUsed())
			case "base_url", "baseurl":
				fmt.Fprintln(out, cfg.BaseURL)
			case "chatflow_id", "chatflowid":
				fmt.Fprintln(out, cfg.ChatflowID)
			case "target_url", "targeturl", "url":
				fmt.Fprintln(out, cfg.Target().URL())
			case "question":
				fmt.Fprintln(out, cfg.Question)
			case "timeout":
				fmt.Fprintln(out, cfg.Timeout)
			case "origin":
				fmt.Fprintln(out, cfg.Origin)
			case "payload_dirs", "payloaddirs":
				fmt.Fprintln(out, strings.Join(cfg.PayloadDirs, ","))
			case "history_dir", "historydir":
				fmt.Fprintln(out, cfg.HistoryDir)
			case "output":
				fmt.Fprintln(out, cfg.Output)
			case "history_retention_days", "historyretentiondays":
				fmt.Fprintln(out, cfg.HistoryRetentionDays)
			default:
				fmt.Fprintf(os.Stderr, "Available fields: %s\n", configFields)
				return fmt.Errorf("unknown field: %s", args[0])
			}
			return nil
		}

		// Display all configuration values
		fmt.Fprintf(out, "ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Fprintf(out, "BaseURL: %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "ChatflowID: %s\n", cfg.ChatflowID)
		fmt.Fprintf(out, "TargetURL: %s\n", cfg.Target().URL())
		fmt.Fprintf(out, "Question: %s\n", cfg.Question)
		fmt.Fprintf(out, "Timeout: %s\n", cfg.Timeout)
		fmt.Fprintf(out, "Origin: %s\n", cfg.Origin)
		// PayloadDirs are already absolute paths
		fmt.Fprintf(out, "PayloadDirectories: %s\n", strings.Join(cfg.PayloadDirs, ","))
		fmt.Fprintf(out, "HistoryDirectory: %s\n", cfg.HistoryDir)
		fmt.Fprintf(out, "Output: %s\n", cfg.Output)
		fmt.Fprintf(out, "HistoryRetentionDays: %d\n", cfg.HistoryRetentionDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
