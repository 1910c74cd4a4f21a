// Package config loads branchview settings from a TOML file.
//
// Settings are layered: built-in defaults, then the config file, then command
// line flags (applied by the CLI). The file lives at
// $XDG_CONFIG_HOME/branchview/config.toml (or ~/.config/branchview/config.toml)
// unless a path is given explicitly. Every section is optional:
//
//	[layout]
//	direction = "LR"
//	node_width = 350.0
//	rank_gap = 120.0
//
//	[timeline]
//	tick = "100ms"
//	step = 0.02
//
//	[server]
//	addr = ":8080"
//	allowed_origins = ["http://localhost:5173"]
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/layout"
	"github.com/matzehuels/branchview/pkg/timeline"
)

const appName = "branchview"

// Config is the complete set of settings.
type Config struct {
	Layout   LayoutConfig    `toml:"layout"`
	Timeline timeline.Config `toml:"timeline"`
	Server   ServerConfig    `toml:"server"`
	Cache    CacheConfig     `toml:"cache"`
}

// LayoutConfig holds the layout constants and the default flow direction.
type LayoutConfig struct {
	layout.Config
	Direction string `toml:"direction"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
}

// CacheConfig selects and tunes the layout cache. An empty RedisURL selects
// the file cache under Dir.
type CacheConfig struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout:   LayoutConfig{Config: layout.DefaultConfig(), Direction: string(layout.TB)},
		Timeline: timeline.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    8 << 20,
		},
		Cache: CacheConfig{TTL: 24 * time.Hour},
	}
}

// DefaultPath returns the config file location, honoring XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads settings from path on top of the defaults. With an empty path
// the default location is used, and a missing file there is not an error.
// An explicitly named file must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML settings from r on top of the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes the settings as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Layout.Config.Validate(); err != nil {
		return err
	}
	if _, err := layout.ParseDirection(c.Layout.Direction); err != nil {
		return err
	}
	if err := c.Timeline.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// Direction returns the configured default flow direction.
func (c Config) Direction() layout.Direction {
	d, err := layout.ParseDirection(c.Layout.Direction)
	if err != nil {
		return layout.TB
	}
	return d
}
