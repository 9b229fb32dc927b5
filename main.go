package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"heartrisk/config"
	qhttp "heartrisk/http"
	"heartrisk/logging"
	"heartrisk/ml"
	"heartrisk/risk"
)

func main() {
	configFlag := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	// 1. Load config
	configPath := config.Locate(*configFlag)
	cfg, err := config.Load(configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.String("path", *configFlag), zap.Error(err))
	}

	// 2. Logger
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	if configPath == "" {
		logger.Warn("no config file found, using defaults", zap.String("path", *configFlag))
	}

	// 3. Load scaler and classifier
	artifacts, err := ml.LoadArtifacts(cfg.ScalerFile(), cfg.ClassifierFile())
	if err != nil {
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}
	logger.Info("model artifacts loaded",
		zap.String("scaler", cfg.ScalerFile()),
		zap.String("classifier", cfg.ClassifierFile()))

	predictor, err := risk.NewPredictor(artifacts, risk.Options{
		PositiveClass: cfg.Model.PositiveClass,
		CacheSize:     cfg.Model.CacheSize,
		Language:      cfg.UI.Language,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to create predictor", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Hot reload
	if cfg.Model.Watch {
		watcher, err := ml.NewWatcher(artifacts, logger, predictor.Purge)
		if err != nil {
			logger.Fatal("failed to watch model artifacts", zap.Error(err))
		}
		go watcher.Run(ctx)
	}

	// 5. Start HTTP server
	renderer, err := qhttp.NewRenderer(qhttp.PageConfig{
		Title:     cfg.UI.Title,
		AboutHTML: cfg.UI.AboutHTML,
		Footer:    cfg.UI.Footer,
	})
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	handler, err := qhttp.NewHandler(predictor, renderer, logger, qhttp.HandlerOptions{
		Title:    cfg.UI.Title,
		LoadedAt: artifacts.LoadedAt,
	})
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, handler, logger)

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	// 6. Handle graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
