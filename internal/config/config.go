package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" env:"VFESTT_AUTH_USERNAME"`
	Password string `yaml:"password" json:"password" env:"VFESTT_AUTH_PASSWORD"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"VFESTT_LISTEN"`

	// Catalog is the event catalog source: a local JSON file path or an
	// http(s) URL.
	Catalog string `yaml:"catalog" json:"catalog" env:"VFESTT_CATALOG"`

	// CacheDir is where the catalog fetcher keeps its conditional-request
	// cache. Only used when Catalog is a URL.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" env:"VFESTT_CACHE_DIR"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for periodic catalog refresh. Empty disables refresh.
	RefreshCron string `yaml:"refresh" json:"refresh" env:"VFESTT_REFRESH"`

	// ShareBaseURL is the public URL share links are built on. The token
	// lands in its "schedules" query parameter.
	ShareBaseURL string `yaml:"share_base_url" json:"share_base_url" env:"VFESTT_SHARE_BASE_URL"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Catalog:      "./events.json",
		CacheDir:     "./var/catalog-cache",
		RefreshCron:  "",
		ShareBaseURL: "https://vfes-timetable.example.com/",
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Catalog == "" {
		c.Catalog = "./events.json"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/catalog-cache"
	}
	if c.ShareBaseURL == "" {
		c.ShareBaseURL = "https://vfes-timetable.example.com/"
	}
}

// Load loads configuration from the given YAML path and applies VFESTT_*
// environment variable overrides on top.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config (after env overrides)
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - apply env overrides and normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return applyEnv(cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return applyEnv(&cfg)
}

func applyEnv(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".vfestt-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
