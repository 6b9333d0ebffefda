package userconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.DiversityFilter {
		t.Error("expected DiversityFilter to default to true")
	}
	if cfg.VerifyAllAlgorithms {
		t.Error("expected VerifyAllAlgorithms to default to false")
	}
	if cfg.ChunkSizeBytes != DefaultChunkSize {
		t.Errorf("ChunkSizeBytes = %d, want %d", cfg.ChunkSizeBytes, DefaultChunkSize)
	}
	if len(cfg.RiskyExtensions) == 0 {
		t.Error("expected a default risky extension list")
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.DiversityFilter {
		t.Error("expected default DiversityFilter=true when file missing")
	}
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	content := "diversity_filter = false\nverify_all_algorithms = true\nchunk_size_bytes = 65536\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DiversityFilter {
		t.Error("expected DiversityFilter=false")
	}
	if !cfg.VerifyAllAlgorithms {
		t.Error("expected VerifyAllAlgorithms=true")
	}
	if cfg.ChunkSizeBytes != 65536 {
		t.Errorf("ChunkSizeBytes = %d, want 65536", cfg.ChunkSizeBytes)
	}
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("diversity_filter = notabool"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := loadFromPath(path); err == nil {
		t.Error("expected parse error for invalid TOML")
	}
}

func TestLoadSanitizesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("chunk_size_bytes = -5\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSizeBytes != DefaultChunkSize {
		t.Errorf("expected non-positive chunk size to fall back to default, got %d", cfg.ChunkSizeBytes)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.DiversityFilter = false
	cfg.ScanSettleDelayMS = 500

	if err := cfg.saveToPath(path); err != nil {
		t.Fatalf("saveToPath failed: %v", err)
	}

	loaded, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath failed: %v", err)
	}
	if loaded.DiversityFilter {
		t.Error("expected DiversityFilter=false after round trip")
	}
	if loaded.ScanSettleDelayMS != 500 {
		t.Errorf("ScanSettleDelayMS = %d, want 500", loaded.ScanSettleDelayMS)
	}
}

func TestSetAndGet(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Set("diversity_filter", "false"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.DiversityFilter {
		t.Error("expected DiversityFilter=false after Set")
	}

	if err := cfg.Set("risky_extensions", ".exe, .msi"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := cfg.Get("risky_extensions")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != ".exe,.msi" {
		t.Errorf("risky_extensions = %q", got)
	}

	if err := cfg.Set("chunk_size_bytes", "0"); err == nil {
		t.Error("expected error for non-positive chunk size")
	}
	if err := cfg.Set("nope", "1"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Error("expected unknown key error from Get")
	}
}
