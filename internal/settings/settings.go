// SPDX-License-Identifier: MPL-2.0

// Package settings loads the user-level tool configuration. This is the
// devduck binary's own configuration (UI preferences, default roots), not the
// workspace configuration the pipeline resolves.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "devduck"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
)

// Settings is the user-level configuration.
type Settings struct {
	UI struct {
		// Verbose enables verbose output by default.
		Verbose bool `mapstructure:"verbose"`
	} `mapstructure:"ui"`

	Install struct {
		// AssumeYes answers remediation prompts affirmatively by default.
		AssumeYes bool `mapstructure:"assume_yes"`
	} `mapstructure:"install"`

	// Probe overrides the check runner's probe timeouts.
	Probe Probe `mapstructure:"probe"`

	// WorkspaceRoot is the default workspace when no flag is given and the
	// current directory holds no workspace config.
	WorkspaceRoot string `mapstructure:"workspace_root"`
}

// Probe holds the probe timeout overrides. Zero values keep the check
// runner's built-in defaults.
type Probe struct {
	// TimeoutSeconds bounds shell and file probes.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// ReachTimeoutSeconds bounds HTTP reachability probes.
	ReachTimeoutSeconds int `mapstructure:"reach_timeout_seconds"`
}

// Timeout returns the generic probe timeout, or zero when unset.
func (p Probe) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ReachTimeout returns the reachability probe timeout, or zero when unset.
func (p Probe) ReachTimeout() time.Duration {
	return time.Duration(p.ReachTimeoutSeconds) * time.Second
}

// ConfigDir returns the devduck configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the user settings file. A missing file yields defaults and no
// error; a malformed file is an error. pathOverride, when non-empty, is used
// exclusively.
func Load(pathOverride string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("ui.verbose", false)
	v.SetDefault("install.assume_yes", false)

	if pathOverride != "" {
		v.SetConfigFile(pathOverride)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file '%s': %w", pathOverride, err)
		}
	} else {
		cfgDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(cfgDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}
