package config

import (
	"flag"
	"strconv"
	"strings"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagMode        = flag.String("mode", "", "Camera mode: orbit or stationary")
	flagBackend     = flag.String("backend", "", "Render backend: gl or software")
	flagAnnotations = flag.String("annotations-url", "", "Annotation service base URL")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagModels      = flag.String("model", "", "Comma-separated 3D model ids to load")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMode != "" {
		cfg.Camera.Mode = *flagMode
	}
	if *flagBackend != "" {
		cfg.Viewer.Backend = *flagBackend
	}
	if *flagAnnotations != "" {
		cfg.Annotations.BaseURL = *flagAnnotations
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagModels != "" {
		cfg.Viewer.ModelIDs = parseModelIDs(*flagModels)
	}
}

// parseModelIDs reads a comma-separated id list, skipping entries that are
// not integers.
func parseModelIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
