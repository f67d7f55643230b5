package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test viewer defaults
	if cfg.Viewer.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Viewer.Width)
	}
	if cfg.Viewer.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Viewer.Height)
	}
	if cfg.Viewer.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if cfg.Viewer.Backend != "gl" {
		t.Errorf("expected backend 'gl', got %s", cfg.Viewer.Backend)
	}

	// Test camera defaults
	if cfg.Camera.Mode != "orbit" {
		t.Errorf("expected camera mode 'orbit', got %s", cfg.Camera.Mode)
	}
	if cfg.Camera.FOV != 60 {
		t.Errorf("expected fov 60, got %f", cfg.Camera.FOV)
	}
	if cfg.Camera.StopDebounce != 100*time.Millisecond {
		t.Errorf("expected stop debounce 100ms, got %v", cfg.Camera.StopDebounce)
	}

	// Test render defaults
	if cfg.Render.InFrontAlpha != 0.5 {
		t.Errorf("expected in-front alpha 0.5, got %f", cfg.Render.InFrontAlpha)
	}

	// Test annotation defaults
	if cfg.Annotations.MatrixOrder != "row-major" {
		t.Errorf("expected row-major matrices, got %s", cfg.Annotations.MatrixOrder)
	}
	if cfg.Annotations.PageLimit != 1000 {
		t.Errorf("expected page limit 1000, got %d", cfg.Annotations.PageLimit)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
viewer:
  width: 1920
  height: 1080
  fullscreen: true
  backend: software
  model_ids: [11, 12]

camera:
  mode: stationary
  fov: 45
  stop_debounce: 250ms

render:
  ghost_alpha: 0.2
  ssao: true

annotations:
  base_url: "http://annotations.local"
  page_limit: 250
  matrix_order: column-major

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Viewer.Width != 1920 || cfg.Viewer.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if !cfg.Viewer.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if len(cfg.Viewer.ModelIDs) != 2 || cfg.Viewer.ModelIDs[1] != 12 {
		t.Errorf("expected model ids [11 12], got %v", cfg.Viewer.ModelIDs)
	}
	if cfg.Camera.Mode != "stationary" {
		t.Errorf("expected stationary camera, got %s", cfg.Camera.Mode)
	}
	if cfg.Camera.StopDebounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Camera.StopDebounce)
	}
	// Unset keys keep their defaults.
	if cfg.Camera.MinFOV != 5 {
		t.Errorf("expected default min fov 5, got %f", cfg.Camera.MinFOV)
	}
	if !cfg.Render.SSAO {
		t.Error("expected ssao to be enabled")
	}
	if cfg.Annotations.PageLimit != 250 {
		t.Errorf("expected page limit 250, got %d", cfg.Annotations.PageLimit)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
viewer:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown camera mode", func(c *Config) { c.Camera.Mode = "fly" }},
		{"unknown backend", func(c *Config) { c.Viewer.Backend = "vulkan" }},
		{"unknown matrix order", func(c *Config) { c.Annotations.MatrixOrder = "diagonal" }},
		{"zero width", func(c *Config) { c.Viewer.Width = 0 }},
		{"zero page limit", func(c *Config) { c.Annotations.PageLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Camera.Mode = "stationary"
	cfg.Viewer.ModelIDs = []int64{42}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Camera.Mode != "stationary" {
		t.Errorf("expected stationary after reload, got %s", loaded.Camera.Mode)
	}
	if len(loaded.Viewer.ModelIDs) != 1 || loaded.Viewer.ModelIDs[0] != 42 {
		t.Errorf("expected model ids [42], got %v", loaded.Viewer.ModelIDs)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "mode flag",
			setup: func() { *flagMode = "stationary" },
			verify: func(cfg *Config) {
				if cfg.Camera.Mode != "stationary" {
					t.Errorf("expected stationary mode, got %s", cfg.Camera.Mode)
				}
			},
			teardown: func() { *flagMode = "" },
		},
		{
			name:  "annotations flag",
			setup: func() { *flagAnnotations = "http://example.test:9000" },
			verify: func(cfg *Config) {
				if cfg.Annotations.BaseURL != "http://example.test:9000" {
					t.Errorf("expected overridden base url, got %s", cfg.Annotations.BaseURL)
				}
			},
			teardown: func() { *flagAnnotations = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(cfg *Config) {
				if !cfg.Viewer.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Viewer.Width != 2560 || cfg.Viewer.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "model flag",
			setup: func() { *flagModels = "42, 99,x,7" },
			verify: func(cfg *Config) {
				want := []int64{42, 99, 7}
				if len(cfg.Viewer.ModelIDs) != len(want) {
					t.Fatalf("expected models %v, got %v", want, cfg.Viewer.ModelIDs)
				}
				for i := range want {
					if cfg.Viewer.ModelIDs[i] != want[i] {
						t.Errorf("model %d: expected %d, got %d", i, want[i], cfg.Viewer.ModelIDs[i])
					}
				}
			},
			teardown: func() { *flagModels = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
viewer:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Viewer.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Viewer.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Viewer.Height)
	}
}
