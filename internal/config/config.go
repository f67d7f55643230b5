// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Viewer      ViewerConfig      `yaml:"viewer"`
	Camera      CameraConfig      `yaml:"camera"`
	Render      RenderConfig      `yaml:"render"`
	Annotations AnnotationsConfig `yaml:"annotations"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ViewerConfig holds window and frame loop settings.
type ViewerConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	FPSLimit      int     `yaml:"fps_limit"`
	Backend       string  `yaml:"backend"` // "gl" or "software"
	ModelIDs      []int64 `yaml:"model_ids"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// CameraConfig holds camera manager settings.
type CameraConfig struct {
	Mode                string        `yaml:"mode"` // "orbit" or "stationary"
	FOV                 float32       `yaml:"fov"`  // vertical, degrees
	MinFOV              float32       `yaml:"min_fov"`
	StopDebounce        time.Duration `yaml:"stop_debounce"`
	FitRadiusFactor     float32       `yaml:"fit_radius_factor"`
	FitDuration         time.Duration `yaml:"fit_duration"`
	PinchThreshold      float32       `yaml:"pinch_threshold"`
	RotationSensitivity float32       `yaml:"rotation_sensitivity"`
	WheelSensitivity    float32       `yaml:"wheel_sensitivity"`
}

// RenderConfig holds render pipeline settings.
type RenderConfig struct {
	SampleCount  int        `yaml:"sample_count"`
	GhostAlpha   float32    `yaml:"ghost_alpha"`
	InFrontAlpha float32    `yaml:"in_front_alpha"`
	SSAO         bool       `yaml:"ssao"`
	Outline      bool       `yaml:"outline"`
	ClearColor   [4]float32 `yaml:"clear_color"`
	OutlineColor [4]float32 `yaml:"outline_color"`
}

// AnnotationsConfig holds annotation service settings.
type AnnotationsConfig struct {
	BaseURL     string        `yaml:"base_url"`
	PageLimit   int           `yaml:"page_limit"`
	Timeout     time.Duration `yaml:"timeout"`
	MatrixOrder string        `yaml:"matrix_order"` // "row-major" or "column-major"
	FixturePath string        `yaml:"fixture_path"` // used by annotation-server
	ListenAddr  string        `yaml:"listen_addr"`  // used by annotation-server
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			Backend:    "gl",
		},
		Camera: CameraConfig{
			Mode:                "orbit",
			FOV:                 60,
			MinFOV:              5,
			StopDebounce:        100 * time.Millisecond,
			FitRadiusFactor:     2,
			FitDuration:         time.Second,
			PinchThreshold:      2,
			RotationSensitivity: 0.0025,
			WheelSensitivity:    0.05,
		},
		Render: RenderConfig{
			SampleCount:  1,
			GhostAlpha:   0.3,
			InFrontAlpha: 0.5,
			SSAO:         false,
			Outline:      true,
			ClearColor:   [4]float32{0.1, 0.1, 0.15, 1},
			OutlineColor: [4]float32{1, 1, 1, 1},
		},
		Annotations: AnnotationsConfig{
			BaseURL:     "http://127.0.0.1:8085",
			PageLimit:   1000,
			Timeout:     30 * time.Second,
			MatrixOrder: "row-major",
			ListenAddr:  "127.0.0.1:8085",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
