package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "navitree"

// Config holds navitree user configuration.
type Config struct {
	Style       string   `json:"style"`        // "dark", "light" or "auto"
	Store       string   `json:"store"`        // "file" or "sqlite"
	HistoryMax  int      `json:"history_max"`  // per document
	RenderCache int      `json:"render_cache"` // rendered pages kept in memory
	Roots       []string `json:"roots"`
	path        string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Style:       "auto",
		Store:       BackendFile,
		HistoryMax:  50,
		RenderCache: 64,
	}
}

// LoadConfig loads configuration from path, or from the standard config
// directory when path is empty. A missing file is created with defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.json")
	}

	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.path = path
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Style == "" {
		c.Style = def.Style
	}
	if c.Store == "" {
		c.Store = def.Store
	}
	if c.HistoryMax <= 0 {
		c.HistoryMax = def.HistoryMax
	}
	if c.RenderCache < 0 {
		c.RenderCache = 0
	}
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o644)
}

// DataDir returns the directory for session data and logs.
func DataDir() (string, error) {
	return userDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ConfigDir returns the directory holding config.json.
func ConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

func userDir(xdgVar, fallback string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "."+appName), nil
	default: // Linux, BSD, etc.
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		return filepath.Join(home, fallback, appName), nil
	}
}
