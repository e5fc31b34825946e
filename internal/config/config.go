// Package config handles workspace configuration stored under .pulse/.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	PulseDir   = ".pulse"
	ConfigFile = "config.yml"
	DBFile     = "hotposts.db"
	LockFile   = "pulse.lock"
)

// Config is the workspace configuration read from .pulse/config.yml.
type Config struct {
	// Profile selects the classifier threshold profile: standard or
	// relaxed. Chosen once at process start.
	Profile string `yaml:"profile"`

	Notify NotifyConfig `yaml:"notify"`

	// GCIntervalHours is how often the stale-aggregate sweep runs.
	GCIntervalHours int `yaml:"gc_interval_hours"`

	// CacheRefreshMinutes is how often the display-name cache refreshes.
	CacheRefreshMinutes int `yaml:"cache_refresh_minutes"`
}

// NotifyConfig selects where tier announcements go.
type NotifyConfig struct {
	EarlyChannel string `yaml:"early_channel"`
	HotChannel   string `yaml:"hot_channel"`
	DryRun       bool   `yaml:"dry_run"`
}

// Default returns the configuration written by pulse init.
func Default() *Config {
	return &Config{
		Profile:             "standard",
		GCIntervalHours:     24,
		CacheRefreshMinutes: 60,
	}
}

// PulsePath returns the path to the .pulse directory from a root path.
func PulsePath(root string) string {
	return filepath.Join(root, PulseDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, PulseDir, ConfigFile)
}

// DBPath returns the path to the hotposts database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, PulseDir, DBFile)
}

// LockPath returns the path to the daemon lock file from a root path.
func LockPath(root string) string {
	return filepath.Join(root, PulseDir, LockFile)
}

// IsWorkspace checks if the given path contains a pulse workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(PulsePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a pulse workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a pulse workspace (no .pulse directory found; run 'pulse init')")
		}
		abs = parent
	}
}

// Load reads and validates configuration from the workspace at the given
// root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks configuration invariants and fills zero intervals with
// defaults.
func (c *Config) Validate() error {
	switch c.Profile {
	case "", "standard", "relaxed":
	default:
		return fmt.Errorf("invalid profile %q (valid: standard, relaxed)", c.Profile)
	}

	if c.GCIntervalHours <= 0 {
		c.GCIntervalHours = 24
	}
	if c.CacheRefreshMinutes <= 0 {
		c.CacheRefreshMinutes = 60
	}
	return nil
}
