package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the viewer cannot start with.
func (c *Config) Validate() error {
	switch c.Camera.Mode {
	case "orbit", "stationary":
	default:
		return fmt.Errorf("camera.mode: unknown mode %q", c.Camera.Mode)
	}
	switch c.Viewer.Backend {
	case "gl", "software":
	default:
		return fmt.Errorf("viewer.backend: unknown backend %q", c.Viewer.Backend)
	}
	switch c.Annotations.MatrixOrder {
	case "row-major", "column-major":
	default:
		return fmt.Errorf("annotations.matrix_order: unknown order %q", c.Annotations.MatrixOrder)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer: size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	if c.Annotations.PageLimit <= 0 {
		return fmt.Errorf("annotations.page_limit must be positive, got %d", c.Annotations.PageLimit)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "RevealViewer")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "RevealViewer")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "reveal-viewer")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reveal-viewer")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
