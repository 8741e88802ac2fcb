/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/payload"
	"github.com/spf13/cobra"
)

var withDir bool

// payloadsCmd represents the payloads command
var payloadsCmd = &cobra.Command{
	Use:   "payloads",
	Short: "List available payload templates",
	Long: `List all available payload templates from the configured payload directories.
This command recursively scans all payload directories specified in the configuration and displays
the names of available .toml payload files, including those in subdirectories.

The payload files should be in TOML format with the following structure:
question = "Question with optional {{input}} placeholder"
streaming = false  # Optional

[[history]]
role = "userMessage"
content = "Earlier turn with optional {{key}} placeholders"

[override_config]  # Optional, sent as overrideConfig
sessionId = "probe"

Payload names are displayed as relative paths from the payload directory root.
For example, a file at ${payload_dir}/foo/bar.toml will be displayed as "foo/bar".

If you want to see which directory each payload comes from, use the --with-dir option.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Payload directories: %v\n", cfg.PayloadDirs)
		}

		entries, err := payload.List(cfg.PayloadDirs)
		if err != nil {
			return fmt.Errorf("listing payloads: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No payload templates found.")
			fmt.Fprintln(out, "Create .toml files in the following directories:")
			for _, dir := range cfg.PayloadDirs {
				fmt.Fprintf(out, "  - %s\n", dir)
			}
			return nil
		}

		fmt.Fprintf(out, "Available payload templates (%d found):\n\n", len(entries))
		for _, entry := range entries {
			if withDir {
				fmt.Fprintf(out, "  %s (from %s)\n", entry.Name, entry.Dir)
			} else {
				fmt.Fprintf(out, "  %s\n", entry.Name)
			}
		}

		fmt.Fprintf(out, "\nUse a payload template with: flowprobe probe --payload <name> [chatflow-id]\n")
		fmt.Fprintf(out, "Example: flowprobe probe --payload foo/bar --arg name:Ada\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(payloadsCmd)
	payloadsCmd.Flags().BoolVar(&withDir, "with-dir", false, "Show the directory each payload was found in")
}
