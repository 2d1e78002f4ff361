// Package config loads the ledger node configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tolelom/stakeledger/core"
)

// GenesisConfig describes the ledger's initial state.
type GenesisConfig struct {
	Ticker        string            `toml:"Ticker"`
	DecimalPlaces uint8             `toml:"DecimalPlaces"`
	Minters       []string          `toml:"Minters"`
	Alloc         map[string]uint64 `toml:"Alloc"` // address hex → whole units
	Timestamp     int64             `toml:"Timestamp"`
}

// Config holds all node configuration.
type Config struct {
	NodeID     string        `toml:"NodeID"`
	DataDir    string        `toml:"DataDir"`
	TablesFile string        `toml:"TablesFile,omitempty"` // empty → embedded defaults
	IndexDB    string        `toml:"IndexDB,omitempty"`    // empty → no indexer
	LogLevel   string        `toml:"LogLevel"`
	CacheSize  int           `toml:"CacheSize"` // read cache entries; 0 disables
	Genesis    GenesisConfig `toml:"Genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:    "ledger0",
		DataDir:   "./data",
		IndexDB:   "./data/index.db",
		LogLevel:  "info",
		CacheSize: 4096,
		Genesis: GenesisConfig{
			Ticker:        "NCG",
			DecimalPlaces: 2,
			Alloc:         map[string]uint64{},
		},
	}
}

// Load reads a TOML config file from path. A missing file yields the
// defaults. Keys the config does not know are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if cfg.Genesis.Alloc == nil {
		cfg.Genesis.Alloc = map[string]uint64{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields Load cannot check by type alone.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir is required")
	}
	if strings.TrimSpace(c.Genesis.Ticker) == "" {
		return fmt.Errorf("Genesis.Ticker is required")
	}
	if c.Genesis.DecimalPlaces > core.MaxDecimalPlaces {
		return fmt.Errorf("Genesis.DecimalPlaces must be <= %d", core.MaxDecimalPlaces)
	}
	if _, err := c.Genesis.Currency(); err != nil {
		return err
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("CacheSize must be >= 0")
	}
	return nil
}

// Save writes the config to path as TOML.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
