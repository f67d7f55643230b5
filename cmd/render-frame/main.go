// Command render-frame renders one frame of the annotated models with the
// software backend and writes it as a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
	"github.com/Faultbox/reveal-viewer/internal/config"
	"github.com/Faultbox/reveal-viewer/internal/engine/debug"
	"github.com/Faultbox/reveal-viewer/internal/engine/software"
	"github.com/Faultbox/reveal-viewer/internal/logger"
	"github.com/Faultbox/reveal-viewer/internal/viewer"
)

var (
	flagOut     = flag.String("out", "frame.png", "Output PNG path")
	flagFixture = flag.String("fixture", "", "Read annotations from a YAML fixture instead of the service")
	flagSelect  = flag.Int64("select", -1, "Annotation id to highlight in front")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("render failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if len(cfg.Viewer.ModelIDs) == 0 {
		return fmt.Errorf("no models given; pass -model")
	}
	// Animations would never advance in a single frame.
	cfg.Camera.FitDuration = 0

	var lister annotations.Lister
	if *flagFixture != "" {
		store, err := annotations.LoadStore(*flagFixture)
		if err != nil {
			return err
		}
		lister = store
	} else {
		lister = annotations.NewClient(cfg.Annotations.BaseURL, cfg.Annotations.Timeout)
	}

	dev := software.New()
	s, err := viewer.NewSession(cfg, dev, lister)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Annotations.Timeout)
	defer cancel()
	if _, err := s.LoadModels(ctx, cfg.Viewer.ModelIDs); err != nil {
		return err
	}
	if *flagSelect >= 0 {
		if err := s.Select(*flagSelect); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := s.Frame(0)
	if err != nil {
		return err
	}
	t, ok := res.Target.(*software.Target)
	if !ok {
		return fmt.Errorf("unexpected target %T", res.Target)
	}
	if err := debug.WritePNG(*flagOut, t.Image()); err != nil {
		return err
	}
	logger.Info("frame written",
		zap.String("path", *flagOut),
		zap.Int64s("models", cfg.Viewer.ModelIDs),
		zap.Int("objects", len(s.Styler().Objects())),
		zap.Duration("render", time.Since(start)))
	return nil
}
