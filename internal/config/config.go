package config

import (
	"fmt"
	"time"

	"github.com/longkey1/flowprobe/internal/target"
	"github.com/spf13/viper"
)

const (
	DefaultQuestion             = "Test message to debug hanging"
	DefaultTimeout              = 30 * time.Second
	DefaultOutput               = "text"
	DefaultHistoryRetentionDays = 30
)

// Config holds the resolved probe settings
type Config struct {
	BaseURL              string   `toml:"base_url" mapstructure:"base_url"`       // May reference an env var ($VAR or ${VAR})
	ChatflowID           string   `toml:"chatflow_id" mapstructure:"chatflow_id"` // May reference an env var ($VAR or ${VAR})
	Question             string   `toml:"question" mapstructure:"question"`
	Timeout              string   `toml:"timeout" mapstructure:"timeout"` // Go duration string, e.g. "30s"
	Origin               string   `toml:"origin" mapstructure:"origin"`   // Optional Origin header
	PayloadDirs          []string `toml:"payload_dirs" mapstructure:"payload_dirs"`
	HistoryDir           string   `toml:"history_dir" mapstructure:"history_dir"` // Empty = next to the config file
	Output               string   `toml:"output" mapstructure:"output"`           // text, json or yaml
	HistoryRetentionDays int      `toml:"history_retention_days" mapstructure:"history_retention_days"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(payloadDir string) *Config {
	return &Config{
		BaseURL:              target.DefaultBaseURL,
		ChatflowID:           target.DefaultChatflowID,
		Question:             DefaultQuestion,
		Timeout:              DefaultTimeout.String(),
		Origin:               "",
		PayloadDirs:          []string{payloadDir},
		HistoryDir:           "",
		Output:               DefaultOutput,
		HistoryRetentionDays: DefaultHistoryRetentionDays,
	}
}

// SetDefaults registers the default values with viper
func SetDefaults(v *viper.Viper, defaultConfig *Config) {
	v.SetDefault("base_url", defaultConfig.BaseURL)
	v.SetDefault("chatflow_id", defaultConfig.ChatflowID)
	v.SetDefault("question", defaultConfig.Question)
	v.SetDefault("timeout", defaultConfig.Timeout)
	v.SetDefault("origin", defaultConfig.Origin)
	v.SetDefault("payload_dirs", defaultConfig.PayloadDirs)
	v.SetDefault("history_dir", defaultConfig.HistoryDir)
	v.SetDefault("output", defaultConfig.Output)
	v.SetDefault("history_retention_days", defaultConfig.HistoryRetentionDays)
}

// Target returns the prediction endpoint described by the config
func (c *Config) Target() target.Target {
	return target.New(c.BaseURL, c.ChatflowID)
}

// GetTimeout parses the configured timeout
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	return d, nil
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from the given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	config.BaseURL = expandEnvVar(config.BaseURL)
	config.ChatflowID = expandEnvVar(config.ChatflowID)

	// Convert payload directories to absolute paths
	for i, payloadDir := range config.PayloadDirs {
		absPath, err := ResolvePath(v, payloadDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving payload directory path '%s': %v", payloadDir, err)
		}
		config.PayloadDirs[i] = absPath
	}

	historyDir, err := resolveHistoryDir(v, config.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving history directory path '%s': %v", config.HistoryDir, err)
	}
	config.HistoryDir = historyDir

	switch config.Output {
	case "", "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported output format: %s (expected text, json or yaml)", config.Output)
	}

	return config, nil
}
