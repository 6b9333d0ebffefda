// Package userconfig provides user-tunable policy for sumwatch.
// Settings are stored in ~/.sumwatch/config.toml and can be modified
// via the `sumwatch config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sumwatch/sumwatch/internal/config"
)

// DefaultChunkSize is the verifier read size: 1 MiB. One chunk is the
// peak memory cost of hashing a file of any size.
const DefaultChunkSize = 1 << 20

// DefaultSettleDelayMS is how long the scan path waits after fetching a
// page before extracting text, giving script-injected content a chance
// to be present in the served HTML. Best effort, not a guarantee.
const DefaultSettleDelayMS = 1500

// DefaultRiskyExtensions lists the download-link extensions that make a
// page eligible for checksum monitoring. Matching is against the URL
// path only, never a MIME sniff.
var DefaultRiskyExtensions = []string{
	".exe", ".msi", ".dmg", ".pkg",
	".zip", ".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".7z", ".rar",
	".iso", ".img",
	".deb", ".rpm", ".apk", ".appimage",
	".bin", ".run",
}

// Config represents user-configurable policy.
type Config struct {
	// DiversityFilter rejects low-entropy checksum candidates (fewer
	// than 11 distinct characters). On by default; the looser policy
	// accepts repeats like "aaaa...".
	DiversityFilter bool `toml:"diversity_filter"`

	// VerifyAllAlgorithms computes every declared algorithm instead of
	// stopping at the first match.
	VerifyAllAlgorithms bool `toml:"verify_all_algorithms"`

	// ChunkSizeBytes is the verifier read size in bytes.
	ChunkSizeBytes int64 `toml:"chunk_size_bytes"`

	// ScanSettleDelayMS is the delay between fetching a page and
	// scanning it, in milliseconds.
	ScanSettleDelayMS int `toml:"scan_settle_delay_ms"`

	// RiskyExtensions overrides the download-link extension allow-list.
	RiskyExtensions []string `toml:"risky_extensions"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DiversityFilter:     true,
		VerifyAllAlgorithms: false,
		ChunkSizeBytes:      DefaultChunkSize,
		ScanSettleDelayMS:   DefaultSettleDelayMS,
		RiskyExtensions:     append([]string(nil), DefaultRiskyExtensions...),
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil // Silently use defaults
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if userCfg.ChunkSizeBytes <= 0 {
		userCfg.ChunkSizeBytes = DefaultChunkSize
	}
	if userCfg.ScanSettleDelayMS < 0 {
		userCfg.ScanSettleDelayMS = DefaultSettleDelayMS
	}
	if len(userCfg.RiskyExtensions) == 0 {
		userCfg.RiskyExtensions = append([]string(nil), DefaultRiskyExtensions...)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Set updates a single setting by its TOML key. Used by the config
// command; unknown keys and unparseable values are errors.
func (c *Config) Set(key, value string) error {
	switch key {
	case "diversity_filter":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		c.DiversityFilter = b
	case "verify_all_algorithms":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
		c.VerifyAllAlgorithms = b
	case "chunk_size_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid size for %s: %q", key, value)
		}
		c.ChunkSizeBytes = n
	case "scan_settle_delay_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid delay for %s: %q", key, value)
		}
		c.ScanSettleDelayMS = n
	case "risky_extensions":
		exts := strings.Split(value, ",")
		for i, e := range exts {
			exts[i] = strings.TrimSpace(e)
		}
		c.RiskyExtensions = exts
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Get returns the string form of a single setting by its TOML key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "diversity_filter":
		return strconv.FormatBool(c.DiversityFilter), nil
	case "verify_all_algorithms":
		return strconv.FormatBool(c.VerifyAllAlgorithms), nil
	case "chunk_size_bytes":
		return strconv.FormatInt(c.ChunkSizeBytes, 10), nil
	case "scan_settle_delay_ms":
		return strconv.Itoa(c.ScanSettleDelayMS), nil
	case "risky_extensions":
		return strings.Join(c.RiskyExtensions, ","), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}
