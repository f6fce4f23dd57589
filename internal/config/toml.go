// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Heat     HeatConfig     `toml:"heat"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Difficulty     *string `toml:"difficulty"`
	Quotes         *string `toml:"quotes"`
	AdvanceOnError *bool   `toml:"advance-on-error"`
	FocusWeak      *bool   `toml:"focus-weak"`
	WeakTop        *int    `toml:"weak-top"`
	WeakWindow     *int    `toml:"weak-window"`
}

// HeatConfig maps the absolute spectrum breakpoints.
type HeatConfig struct {
	FastMs *float64 `toml:"fast-ms"`
	SlowMs *float64 `toml:"slow-ms"`
}

// LogConfig maps diagnostic logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
