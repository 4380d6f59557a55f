package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/cursor-chat-browser/internal"
	"gopkg.in/yaml.v3"
)

const appName = "cursor-chat-browser"

// Config is the on-disk configuration. Fields left out of the file keep their
// detected defaults.
type Config struct {
	// WorkspacePath is Cursor's workspaceStorage directory.
	WorkspacePath string `yaml:"workspace_path"`
	// GlobalDB is the global state.vscdb. Empty means the one next to
	// WorkspacePath.
	GlobalDB string       `yaml:"global_db,omitempty"`
	Listen   string       `yaml:"listen"`
	Active   ActiveConfig `yaml:"active"`
	Recent   RecentConfig `yaml:"recent"`
	Export   ExportConfig `yaml:"export"`
}

type ActiveConfig struct {
	Window        int    `yaml:"window"`
	ScoreStrategy string `yaml:"score_strategy"`
}

type RecentConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists. Storage paths
// come from OS detection; detection failures leave them empty.
func Default(ctx context.Context) *Config {
	cfg := &Config{
		Listen: "127.0.0.1:3000",
		Active: ActiveConfig{
			Window:        internal.DefaultActiveWindow,
			ScoreStrategy: string(internal.ScoreContent),
		},
		Recent: RecentConfig{
			DefaultLimit: internal.DefaultLimit,
			MaxLimit:     internal.MaxLimit,
		},
		Export: ExportConfig{
			Dir:    "exports",
			Format: "md",
		},
	}
	if paths, err := internal.DetectStoragePaths(ctx); err == nil {
		cfg.WorkspacePath = paths.WorkspaceStorage
	} else {
		internal.LogDebug("storage detection failed: %v", err)
	}
	return cfg
}

// DefaultConfigPath returns the default config path:
//
//	$XDG_CONFIG_HOME/cursor-chat-browser/config.yaml
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.yaml")
	}
	dir, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		return appName + ".yaml"
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// Load reads the file at path over the defaults. An empty path reads the
// default location, where a missing file is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default(ctx)

	optional := path == ""
	if optional {
		path = DefaultConfigPath()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.WorkspacePath = internal.ExpandHome(cfg.WorkspacePath)
	cfg.GlobalDB = internal.ExpandHome(cfg.GlobalDB)
	cfg.Export.Dir = internal.ExpandHome(cfg.Export.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(c.WorkspacePath) == "" {
		return errors.New("missing workspace_path")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.Active.Window <= 0 {
		return fmt.Errorf("active.window must be positive, got %d", c.Active.Window)
	}
	if _, err := internal.ParseScoreStrategy(c.Active.ScoreStrategy); err != nil {
		return fmt.Errorf("active.score_strategy: %w", err)
	}
	if c.Recent.MaxLimit <= 0 {
		return fmt.Errorf("recent.max_limit must be positive, got %d", c.Recent.MaxLimit)
	}
	if c.Recent.DefaultLimit <= 0 || c.Recent.DefaultLimit > c.Recent.MaxLimit {
		return fmt.Errorf("recent.default_limit must be between 1 and %d, got %d", c.Recent.MaxLimit, c.Recent.DefaultLimit)
	}
	return nil
}

// GlobalDBPath returns the global store path, derived from WorkspacePath
// when GlobalDB is unset.
func (c *Config) GlobalDBPath() string {
	if c.GlobalDB != "" {
		return c.GlobalDB
	}
	return internal.GlobalDBForWorkspaceRoot(c.WorkspacePath)
}

// ScoreStrategy returns the configured strategy, validated by Validate.
func (c *Config) ScoreStrategy() internal.ScoreStrategy {
	s, err := internal.ParseScoreStrategy(c.Active.ScoreStrategy)
	if err != nil {
		return internal.ScoreContent
	}
	return s
}

// Limit applies the recent defaults and ceiling to a requested limit.
func (c *Config) Limit(requested int) int {
	if requested <= 0 {
		requested = c.Recent.DefaultLimit
	}
	return internal.ClampLimit(requested, c.Recent.MaxLimit)
}

// WithWorkspacePath returns a copy of c rooted at path. The global store
// follows the new root unless it was set explicitly.
func (c *Config) WithWorkspacePath(path string) *Config {
	out := *c
	out.WorkspacePath = internal.ExpandHome(path)
	return &out
}
