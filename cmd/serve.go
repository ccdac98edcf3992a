package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exoscope/artifact"
	qhttp "exoscope/http"
	"exoscope/monitoring"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "load the artifacts and serve the prediction API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTP.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(ctx, a)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override http.port")
	return cmd
}

func runServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	status := a.pipeline.Status()
	a.logger.Info("starting server",
		zap.Int("port", cfg.HTTP.Port),
		zap.String("source", a.source.Name()),
		zap.Bool("model_loaded", status.ModelLoaded),
		zap.Bool("scaler_loaded", status.ScalerLoaded),
		zap.Bool("encoder_loaded", status.EncoderLoaded),
		zap.Bool("supports_confidence", status.SupportsConfidence),
		zap.Int("cache_size", cfg.Model.CacheSize),
	)

	if cfg.Model.Watch {
		startWatcher(ctx, a)
	}

	serverCfg := qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		GzipMinSize:    cfg.HTTP.GzipMinSize,
	}
	if cfg.Metrics.Enabled {
		serverCfg.MetricsPath = cfg.Metrics.Path
	}
	handler := qhttp.NewHandler(a.pipeline, a.metrics, a.logger)
	server := qhttp.NewServer(serverCfg, handler, a.metrics, a.logger)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	if err := server.Stop(context.Background()); err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

// startWatcher logs on-disk artifact changes. Only local sources are watched.
func startWatcher(ctx context.Context, a *app) {
	local, ok := a.source.(*artifact.LocalSource)
	if !ok {
		a.logger.Info("model.watch ignored for non-local artifact source", zap.String("source", a.source.Name()))
		return
	}
	files := []string{a.cfg.Model.ModelFile, a.cfg.Model.ScalerFile, a.cfg.Model.EncoderFile}
	watcher, err := monitoring.NewArtifactWatcher(local.Dir(), files, a.logger)
	if err != nil {
		a.logger.Warn("artifact watcher disabled", zap.Error(err))
		return
	}
	go func() {
		defer watcher.Close()
		watcher.Run(ctx)
	}()
}
