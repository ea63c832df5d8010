// Command fetchoffers pages through the Otodom search listing, drops offers
// already tracked in the spreadsheet and writes the remaining slugs to a CSV
// batch file for processoffers to consume.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikolajSzawerda/find-me-nest/config"
	"github.com/MikolajSzawerda/find-me-nest/internal/lister"
	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	"github.com/MikolajSzawerda/find-me-nest/internal/sheet"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	"github.com/MikolajSzawerda/find-me-nest/services/cache"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, err := sheet.NewSink(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		logger.Fatal("Failed to create spreadsheet sink: %v", err)
	}

	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}

	client := otodom.NewClient(cfg, cacheSvc)
	l := lister.NewLister(client, sink, cfg.OutputDir, cfg.CurrentOffersFile, cfg.RequestDelay)

	result, err := l.Run(ctx)
	if err != nil {
		logger.Fatal("Listing run failed: %v", err)
	}

	logger.Info("Wrote %d new offer slugs to %s", len(result.New), result.BatchFile)
}
