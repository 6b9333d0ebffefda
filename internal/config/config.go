// Package config resolves the sumwatch home directory and the paths of
// the files sumwatch keeps there (tracking state, user config).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvHome is the environment variable to override the default
	// sumwatch home directory (~/.sumwatch).
	EnvHome = "SUMWATCH_HOME"

	// homeDirName is the directory created under $HOME when EnvHome
	// is not set.
	homeDirName = ".sumwatch"
)

// Config holds resolved filesystem paths for a sumwatch installation.
type Config struct {
	// HomeDir is the root directory for all sumwatch state.
	HomeDir string

	// StateFile is the JSON file holding tracked downloads.
	StateFile string

	// ConfigFile is the TOML file holding user policy settings.
	ConfigFile string
}

// DefaultConfig resolves paths from SUMWATCH_HOME or the user's home
// directory and ensures the home directory exists.
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		home = filepath.Join(userHome, homeDirName)
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sumwatch home: %w", err)
	}

	return &Config{
		HomeDir:    home,
		StateFile:  filepath.Join(home, "state.json"),
		ConfigFile: filepath.Join(home, "config.toml"),
	}, nil
}
