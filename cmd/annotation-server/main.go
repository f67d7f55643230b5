// Command annotation-server serves a YAML annotation fixture over the list
// endpoint the viewer reads, reloading it when the file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/reveal-viewer/internal/annotations"
	"github.com/Faultbox/reveal-viewer/internal/config"
	"github.com/Faultbox/reveal-viewer/internal/logger"
)

var (
	flagFixture = flag.String("fixture", "", "Annotation fixture (YAML)")
	flagListen  = flag.String("listen", "", "Listen address")
	flagQuiet   = flag.Bool("quiet", false, "Disable the access log")
)

const shutdownTimeout = 5 * time.Second

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *flagFixture != "" {
		cfg.Annotations.FixturePath = *flagFixture
	}
	if *flagListen != "" {
		cfg.Annotations.ListenAddr = *flagListen
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Annotation Server ===",
		zap.String("fixture", cfg.Annotations.FixturePath),
		zap.String("listen", cfg.Annotations.ListenAddr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg.Annotations); err != nil {
		logger.Error("server error", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func serve(ctx context.Context, cfg config.AnnotationsConfig) error {
	if cfg.FixturePath == "" {
		return errors.New("no fixture given; pass -fixture")
	}
	store, err := annotations.LoadStore(cfg.FixturePath)
	if err != nil {
		return err
	}
	logger.Info("fixture loaded", zap.Int("annotations", store.Len()))

	var accessLog io.Writer = os.Stdout
	if *flagQuiet {
		accessLog = nil
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           annotations.NewServer(store).Handler(accessLog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return store.Watch(ctx, cfg.FixturePath)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
