// Command ingest publishes catalog records onto NATS so a running API
// server picks them up through its catalog consumer. It reads the same
// catalog JSON file the server loads at startup, optionally enriching
// each record with scraped repair stories and video links first.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/PartPalAI/partpal-mvp/engine/ingest"
	"github.com/PartPalAI/partpal-mvp/engine/scraper"
	"github.com/PartPalAI/partpal-mvp/pkg/fn"
	"github.com/PartPalAI/partpal-mvp/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	natsURL := envOr("NATS_URL", nats.DefaultURL)
	catalogPath := envOr("CATALOG_PATH", "data/catalog.json")
	enrich := envOr("ENRICH_PAGES", "") == "true"

	records := ingest.LoadFile(catalogPath, logger)
	if len(records) == 0 {
		logger.Error("no catalog records to publish", "path", catalogPath)
		os.Exit(1)
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		logger.Error("nats connect failed", "url", natsURL, "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	if enrich {
		pages := scraper.New(logger)
		records = fn.ParMap(records, 4, func(rec ingest.CatalogRecord) ingest.CatalogRecord {
			if rec.ProductURL == "" {
				return rec
			}
			info, err := pages.AdditionalInfo(ctx, rec.ProductURL)
			if err != nil {
				logger.Warn("page enrichment failed", "part_number", rec.PartNumber, "err", err)
				return rec
			}
			for _, s := range info.RepairStories {
				rec.RepairStories = append(rec.RepairStories, ingest.RepairStoryRecord{
					Title:    s.Title,
					Solution: s.Solution,
				})
			}
			if rec.PartVideo == "" {
				rec.PartVideo = info.VideoURL
			}
			return rec
		})
	}

	published := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if err := natsutil.Publish(ctx, nc, ingest.CatalogSubject, rec); err != nil {
			logger.Error("publish failed", "part_number", rec.PartNumber, "err", err)
			continue
		}
		published++
	}

	// Give the server a moment to drain before we disconnect.
	if err := nc.FlushTimeout(5 * time.Second); err != nil {
		logger.Warn("flush", "err", err)
	}
	logger.Info("catalog published", "records", published, "of", len(records))
}
