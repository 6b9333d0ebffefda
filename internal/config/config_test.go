package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigWithEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "swhome")
	t.Setenv(EnvHome, home)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}

	if cfg.HomeDir != home {
		t.Errorf("HomeDir = %s, want %s", cfg.HomeDir, home)
	}
	if cfg.StateFile != filepath.Join(home, "state.json") {
		t.Errorf("unexpected StateFile: %s", cfg.StateFile)
	}
	if cfg.ConfigFile != filepath.Join(home, "config.toml") {
		t.Errorf("unexpected ConfigFile: %s", cfg.ConfigFile)
	}

	// The home directory must have been created.
	if _, err := os.Stat(home); err != nil {
		t.Errorf("expected home directory to exist: %v", err)
	}
}

func TestDefaultConfigDefaultsToUserHome(t *testing.T) {
	t.Setenv(EnvHome, "")
	// Redirect $HOME so the test never touches the real home directory.
	t.Setenv("HOME", t.TempDir())

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}
	if filepath.Base(cfg.HomeDir) != ".sumwatch" {
		t.Errorf("expected .sumwatch home, got %s", cfg.HomeDir)
	}
}
