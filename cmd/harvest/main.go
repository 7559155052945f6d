package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immosearch/config"
	"immosearch/models"
	"immosearch/services"
	"immosearch/storage"
	"immosearch/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	logger.Info("=== ImmoSearch harvest starting ===")
	logger.Info("Config: concurrency %d | rate %dms | archive %t", cfg.MaxConcurrency, cfg.RateLimitMs, cfg.ArchiveEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	searchSvc, session, err := services.Build(cfg, logger)
	if err != nil {
		logger.Error("Failed to load sources: %v", err)
		return 1
	}
	if session != nil {
		defer session.Close()
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return 1
	}
	defer csvWriter.Close()

	var archive *storage.PostgresWriter
	if cfg.ArchiveEnabled {
		retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
		archive, err = storage.NewPostgresWriter(ctx, cfg.DSN(), retry, logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure the database is running: docker compose up -d")
			return 1
		}
		defer archive.Close()
	}

	res, err := searchSvc.Search(ctx, models.FilterSpec{}, nil)
	if err != nil {
		logger.Error("Harvest failed: %v", err)
		return 1
	}

	logger.Info("Extracted %d raw candidates, writing to CSV...", len(res.Raw))
	if err := csvWriter.WriteRaw(res.Raw); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Raw candidates saved to %s", cfg.CSVOutputPath)
	}

	if len(res.Listings) == 0 {
		logger.Error("No valid listings were extracted. Exiting.")
		return 1
	}

	listings := res.Listings
	if archive != nil {
		if err := archive.Write(ctx, res.Listings); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else if stored, err := archive.FetchAll(ctx); err != nil {
			logger.Error("Failed to fetch listings from DB for insights: %v", err)
		} else {
			listings = stored
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(os.Stdout, insightSvc.Generate(listings, res.Stats))

	dest := "not archived"
	if archive != nil {
		dest = "PostgreSQL (listings table)"
	}
	fmt.Printf("  Done. Raw CSV → %s | Listings → %s\n\n", cfg.CSVOutputPath, dest)
	return 0
}
