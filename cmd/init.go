package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/payload"
	"github.com/spf13/cobra"
)

// examplePayload is written to the payloads directory by init
var examplePayload = payload.Template{
	Question: "{{input}}",
	History: []payload.Message{
		{Role: payload.RoleUser, Content: "Hello, my name is {{name}}."},
		{Role: payload.RoleAPI, Content: "Hello {{name}}, how can I help?"},
	},
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/flowprobe/config.toml by default.
You can specify a different location using the --config option.

A payloads directory with an example template is created next to the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := userConfigDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Set config file path
		configFile := filepath.Join(dir, "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		// Create config directory
		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		// Check if config file already exists
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		payloadsDir := filepath.Join(configDir, "payloads")
		cfg := config.NewDefaultConfig(payloadsDir)

		if err := writeTOML(configFile, cfg); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		if err := os.MkdirAll(payloadsDir, 0755); err != nil {
			return fmt.Errorf("failed to create payloads directory: %w", err)
		}

		examplePath := filepath.Join(payloadsDir, "example.toml")
		if _, err := os.Stat(examplePath); os.IsNotExist(err) {
			if err := writeTOML(examplePath, examplePayload); err != nil {
				return fmt.Errorf("failed to write example payload: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file created at: %s\n", configFile)
		fmt.Fprintf(out, "Payloads directory created at: %s\n", payloadsDir)
		return nil
	},
}

// writeTOML encodes v into a new file at path
func writeTOML(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(v)
}

func init() {
	rootCmd.AddCommand(initCmd)
}
