package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// expandEnvVar expands an environment variable reference in the given value
// Supports both $VAR and ${VAR} syntax. An unset variable expands to an empty string.
func expandEnvVar(value string) string {
	if !strings.HasPrefix(value, "$") {
		return value
	}

	var envVarName string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(envVarName)
}

// ConfigDir returns the absolute directory of the config file in use, or "" if none
func ConfigDir(v *viper.Viper) (string, error) {
	configFile := v.ConfigFileUsed()
	if configFile == "" {
		return "", nil
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %v", err)
		}
		configDir = filepath.Join(cwd, configDir)
	}
	return configDir, nil
}

// ResolvePath converts a relative path to absolute path if needed
// Relative paths are resolved against the config file directory, or the
// current working directory when no config file is used.
func ResolvePath(v *viper.Viper, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	configDir, err := ConfigDir(v)
	if err != nil {
		return "", err
	}
	if configDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %v", err)
		}
		return filepath.Join(cwd, path), nil
	}

	return filepath.Join(configDir, path), nil
}

// resolveHistoryDir returns where probe records are stored.
// If a config file is used and no directory is configured, records live in
// a "history" directory next to it. Otherwise, defaults to $HOME/.config/flowprobe/history
func resolveHistoryDir(v *viper.Viper, historyDir string) (string, error) {
	if historyDir != "" {
		return ResolvePath(v, historyDir)
	}

	configDir, err := ConfigDir(v)
	if err != nil {
		return "", err
	}
	if configDir != "" {
		return filepath.Join(configDir, "history"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "flowprobe", "history"), nil
}
