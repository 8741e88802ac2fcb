/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/longkey1/flowprobe/internal/config"
	"github.com/longkey1/flowprobe/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flowprobe [chatflow-id | prediction-url]",
	Short: "Probe a prediction endpoint to tell a hung server from an unreachable one",
	Long: `flowprobe sends a single prediction request and reports the status code,
the first 200 characters of the response and the time taken.

If the server accepts the request but does not answer within the timeout
(30s by default), flowprobe says so explicitly: the server received the
request but is stuck. Any other failure (connection refused, DNS, ...) is
printed as-is.

Running flowprobe without a subcommand is the same as 'flowprobe probe'.
You can configure the tool using a TOML configuration file.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runProbe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/flowprobe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs on stderr)")

	addProbeFlags(rootCmd)
}

// userConfigDir returns $HOME/.config/flowprobe
func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "flowprobe"), nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	dir, err := userConfigDir()
	cobra.CheckErr(err)

	loadConfigFiles(viper.GetViper(), logging.New(verbose), cfgFile, dir)
}

// loadConfigFiles registers defaults and env lookup on v, then reads the
// explicit config file, or the system-wide config merged with the one in dir.
func loadConfigFiles(v *viper.Viper, logger logr.Logger, file, dir string) {
	v.SetEnvPrefix("FLOWPROBE")
	v.AutomaticEnv()

	// Later directories in the array take precedence over earlier ones
	defaultPayloadDirs := []string{
		"/usr/share/flowprobe/payloads",
		"/usr/local/share/flowprobe/payloads",
		filepath.Join(dir, "payloads"),
	}
	defaultConfig := config.NewDefaultConfig(filepath.Join(dir, "payloads"))
	defaultConfig.PayloadDirs = defaultPayloadDirs
	config.SetDefaults(v, defaultConfig)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			logger.Error(err, "reading config file", "file", file)
		}
	} else {
		// Load system-wide config first (lower priority)
		systemConfigPaths := []string{
			"/etc/flowprobe",
			"/usr/local/etc/flowprobe",
		}
		for _, path := range systemConfigPaths {
			v.AddConfigPath(path)
		}
		v.SetConfigType("toml")
		v.SetConfigName("config")

		systemConfigLoaded := false
		if err := v.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			logger.V(1).Info("loaded system-wide config", "file", v.ConfigFileUsed())
		}

		// Load user config (higher priority) - merge with system config
		v.AddConfigPath(dir)
		if systemConfigLoaded {
			if err := v.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					logger.Error(err, "merging user config file")
				}
			} else {
				logger.V(1).Info("merged user config", "file", v.ConfigFileUsed())
			}
		} else {
			if err := v.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					logger.Error(err, "reading config file")
				}
			}
		}
	}

	logger.V(1).Info("using config file", "file", v.ConfigFileUsed(),
		"base_url", v.GetString("base_url"),
		"chatflow_id", v.GetString("chatflow_id"),
		"timeout", v.GetString("timeout"),
		"payload_dirs", v.GetStringSlice("payload_dirs"))
}
