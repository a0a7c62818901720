package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"featureflow/config"
	"featureflow/features"
	"featureflow/logger"
	"featureflow/processor"
	"featureflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	mode := flag.String("mode", processor.ModeMarket, "Computation mode: market or orderbook")

	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolveConfigPath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	env := config.AppEnvironment()
	log.WithFields(logger.Fields{
		"service":     cfg.Featureflow.Name,
		"version":     cfg.Featureflow.Version,
		"environment": env,
		"mode":        *mode,
	}).Info("starting featureflow")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.CloudWatch.Enabled || config.IsProductionLike(env) {
		logger.InitCloudWatch(ctx, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace, cfg.Metrics.CloudWatch.DashboardName)
	}

	registries := features.NewRegistries()
	if err := registries.Validate(cfg.Features.Names); err != nil {
		log.WithError(err).WithFields(logger.Fields{"names": cfg.Features.Names}).Error("invalid feature selection")
		os.Exit(1)
	}

	var uploader processor.Uploader
	if cfg.Storage.S3.Enabled {
		s3u, err := writer.NewS3Uploader(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("failed to create S3 uploader")
			os.Exit(1)
		}
		uploader = s3u
	} else {
		log.WithComponent("main").Info("S3 storage disabled; writing local files only")
	}

	job := processor.NewJob(cfg, registries, uploader)
	start := time.Now()
	res, err := job.Run(ctx, strings.ToLower(*mode))
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"run_id": job.RunID()}).Error("feature run failed")
		logger.LogReport(context.Background(), log)
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"run_id":   res.RunID,
		"rows":     res.Rows,
		"files":    len(res.Files),
		"columns":  len(res.Columns),
		"duration": time.Since(start).String(),
	}).Info("feature run completed")

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.LogReport(ctx, log)
	}
}
