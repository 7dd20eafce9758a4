// Package config loads diskview's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the config file looked up under the user config dir,
// e.g. ~/.config/diskview/config.toml.
const DefaultFileName = "config.toml"

// Config holds all user-tunable settings.
type Config struct {
	Scan ScanConfig `toml:"scan"`
	View ViewConfig `toml:"view"`
}

// ScanConfig controls the filesystem walk.
type ScanConfig struct {
	// Excludes are glob patterns pruned from every scan. A trailing "/"
	// marks a directory name matched at any depth.
	Excludes []string `toml:"excludes"`

	// Workers bounds scan concurrency. 0 means one per CPU.
	Workers int `toml:"workers"`
}

// ViewConfig controls the default viewport and recursion depth.
type ViewConfig struct {
	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
	MaxDepth int     `toml:"max_depth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Excludes: []string{
				".git/",
				"node_modules/",
				".Trash/",
				"*.swp",
				".DS_Store",
			},
		},
		View: ViewConfig{
			Width:    1200,
			Height:   780,
			MaxDepth: 4,
		},
	}
}

// Load reads the config at path, falling back to Default when the file does
// not exist. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.View.Width <= 0 || cfg.View.Height <= 0 {
		return nil, fmt.Errorf("parse %s: viewport dimensions must be positive", path)
	}
	if cfg.View.MaxDepth < 0 {
		return nil, fmt.Errorf("parse %s: max_depth must not be negative", path)
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location, or "" when the
// user config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "diskview", DefaultFileName)
}
