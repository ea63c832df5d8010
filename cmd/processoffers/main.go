// Command processoffers reads a slug batch file and runs every offer through
// the pipeline: fetch the detail page, compute commute times to the closest
// metro station, analyze the description and upsert the row into the
// spreadsheet.
//
// Usage: processoffers <slug_file.csv>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikolajSzawerda/find-me-nest/config"
	"github.com/MikolajSzawerda/find-me-nest/internal/commute"
	"github.com/MikolajSzawerda/find-me-nest/internal/extract"
	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	"github.com/MikolajSzawerda/find-me-nest/internal/sheet"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	"github.com/MikolajSzawerda/find-me-nest/services/cache"
	"github.com/MikolajSzawerda/find-me-nest/services/pipeline"
	"github.com/MikolajSzawerda/find-me-nest/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: processoffers <slug_file.csv>")
		os.Exit(1)
	}

	_ = godotenv.Load()
	logger.Init()

	cfg := config.LoadConfig()
	if err := cfg.ValidatePipeline(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	slugs, err := pipeline.ReadSlugs(os.Args[1])
	if err != nil {
		logger.Fatal("Failed to read slug file: %v", err)
	}
	if len(slugs) == 0 {
		logger.Info("Slug file %s carries no offers, nothing to do", os.Args[1])
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, err := sheet.NewSink(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		logger.Fatal("Failed to create spreadsheet sink: %v", err)
	}

	enricher, err := commute.NewEnricher(cfg.GoogleMapsAPIKey, cfg.MaxMetroDistanceKm)
	if err != nil {
		logger.Fatal("Failed to create commute enricher: %v", err)
	}

	analyzer := extract.NewAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}
	client := otodom.NewClient(cfg, cacheSvc)

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		defer redisPub.Close()
		pub = redisPub
	}

	driver := pipeline.NewDriver(client, enricher, analyzer, sink, pub, cfg.RequestDelay)

	summary, err := driver.Run(ctx, slugs)
	if err != nil {
		logger.Error("Batch aborted after %d/%d offers: %v", summary.Succeeded+summary.Failed, summary.Total, err)
		os.Exit(1)
	}

	logger.Info("Batch finished: %d/%d offers processed, %d failed", summary.Succeeded, summary.Total, summary.Failed)
	if summary.Failed > 0 {
		for _, f := range summary.Failures {
			logger.Warn("Offer %s failed at stage %s: %v", f.Slug, f.Stage, f.Err)
		}
	}
}
