package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"exoscope/artifact"
	"exoscope/config"
	"exoscope/db"
	"exoscope/logger"
	"exoscope/ml"
	"exoscope/monitoring"
)

// app is everything a subcommand needs once the artifacts are loaded.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *monitoring.MetricsCollector
	audit    *db.AuditLog
	source   artifact.Source
	pipeline *ml.Pipeline
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.modelDir != "" {
		cfg.Model.Dir = opts.modelDir
	}
	return cfg, nil
}

// newApp builds the logger, opens the audit log and loads the bundle. Artifact
// problems never fail it; they leave slots empty and are reported.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log, metrics: monitoring.NewMetricsCollector()}

	a.source, err = artifact.New(ctx, cfg.Model)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init artifact source: %w", err)
	}

	var recorder ml.LoadRecorder
	if cfg.Database.Path != "" {
		audit, err := db.Open(cfg.Database.Path)
		if err != nil {
			log.Error("open audit database failed, continuing without it",
				zap.String("path", cfg.Database.Path), zap.Error(err))
		} else {
			a.audit = audit
			recorder = audit
		}
	}

	bundle := ml.LoadBundle(ctx, a.source, ml.LoadOptions{
		Schema: ml.KOISchema(),
		Files: ml.Files{
			Model:   cfg.Model.ModelFile,
			Scaler:  cfg.Model.ScalerFile,
			Encoder: cfg.Model.EncoderFile,
		},
		Logger:   log,
		Recorder: recorder,
	})
	a.metrics.SetArtifactLoaded(string(ml.SlotModel), bundle.ModelLoaded())
	a.metrics.SetArtifactLoaded(string(ml.SlotScaler), bundle.ScalerLoaded())
	a.metrics.SetArtifactLoaded(string(ml.SlotEncoder), bundle.EncoderLoaded())

	a.pipeline, err = ml.NewPipeline(bundle,
		ml.WithCache(cfg.Model.CacheSize),
		ml.WithCacheHitHook(a.metrics.CacheHit),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.Warn("close audit database", zap.Error(err))
		}
	}
	a.logger.Sync()
}
