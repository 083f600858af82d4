package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "TMPFILES_CONFIG"

// Config represents the optional tmpfiles configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Search   SearchConfig   `toml:"search"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Boot               *bool   `toml:"boot"`
	AllowOmittedFields *bool   `toml:"allow_omitted_fields"`
	Concurrency        *int    `toml:"concurrency"`
	LogLevel           *string `toml:"log_level"`
}

// SearchConfig controls where configuration files are looked up and which
// paths a run touches.
type SearchConfig struct {
	Dirs            []string `toml:"dirs"`
	Prefixes        []string `toml:"prefixes"`
	ExcludePrefixes []string `toml:"exclude_prefixes"`
}

// ThemeConfig holds optional color overrides for terminal output.
type ThemeConfig struct {
	Red    *string `toml:"red"`
	Yellow *string `toml:"yellow"`
	Green  *string `toml:"green"`
	Muted  *string `toml:"muted"`
}

// Path returns the resolved path to the config file.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tmpfiles", "config.toml")
}

// Load reads the config file. Returns a zero Config (no error) if the file
// does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	return cfg, nil
}

// Level parses the configured log level. ok is false when none is set.
func (d DefaultsConfig) Level() (level slog.Level, ok bool, err error) {
	if d.LogLevel == nil {
		return 0, false, nil
	}
	if err := level.UnmarshalText([]byte(*d.LogLevel)); err != nil {
		return 0, false, fmt.Errorf("log_level: %w", err)
	}
	return level, true, nil
}
