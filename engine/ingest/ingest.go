// Package ingest loads the product catalog into the retrieval engine,
// either in bulk from a JSON file at startup or incrementally from
// NATS catalog events. Records flow through a validate, transform,
// index pipeline; bad records are logged and skipped, never fatal.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/pkg/fn"
	"github.com/PartPalAI/partpal-mvp/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

const (
	// CatalogSubject carries new or updated catalog records.
	CatalogSubject = "catalog.products"
	// DLQSubject receives records that keep failing the pipeline.
	DLQSubject = "catalog.products.dlq"
	// MaxRetries before a record is sent to the DLQ.
	MaxRetries = 3
)

// CompatStore receives part-to-model compatibility edges. Seeding is
// best effort; a failure never blocks indexing.
type CompatStore interface {
	SavePart(ctx context.Context, p domain.Product) error
}

// Deps holds the pipeline's collaborators. Compat may be nil.
type Deps struct {
	Retrieval *retrieval.Engine
	Compat    CompatStore
	Logger    *slog.Logger
}

// Transform converts a wire record to the domain model.
var Transform fn.Stage[CatalogRecord, domain.Product] = fn.MapStage(ToProduct)

// Validate rejects records that fail domain validation.
var Validate fn.Stage[domain.Product, domain.Product] = func(_ context.Context, p domain.Product) fn.Result[domain.Product] {
	if err := domain.ValidateProduct(p); err != nil {
		return fn.Err[domain.Product](err)
	}
	return fn.Ok(p)
}

// NewIndex creates the stage that writes a product into the retrieval
// engine and seeds compatibility edges.
func NewIndex(deps Deps) fn.Stage[domain.Product, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, p domain.Product) fn.Result[string] {
		if err := deps.Retrieval.Index(ctx, p); err != nil {
			return fn.Err[string](fmt.Errorf("index %s: %w", p.PartNumber, err))
		}
		if deps.Compat != nil && len(p.ModelCompatibility) > 0 {
			if err := deps.Compat.SavePart(ctx, p); err != nil {
				log.Warn("compat seed failed", "part_number", p.PartNumber, "error", err)
			}
		}
		return fn.Ok(p.PartNumber)
	}
}

// NewPipeline composes transform, validate, and index with tracing.
func NewPipeline(deps Deps) fn.Stage[CatalogRecord, string] {
	transformed := fn.TracedStage("catalog.transform", Transform)
	validated := fn.Then(transformed, fn.TracedStage("catalog.validate", Validate))
	return fn.Then(validated, fn.TracedStage("catalog.index", NewIndex(deps)))
}

// LoadFile reads a catalog JSON file: either a bare array of records
// or an object with a "products" array. A missing or malformed file
// yields an empty slice and no error, so the caller stays up with an
// empty catalog.
func LoadFile(path string, log *slog.Logger) []CatalogRecord {
	if log == nil {
		log = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("catalog file unreadable, starting empty", "path", path, "error", err)
		return nil
	}

	var wrapped struct {
		Products []CatalogRecord `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Products) > 0 {
		return wrapped.Products
	}
	var records []CatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn("catalog file malformed, starting empty", "path", path, "error", err)
		return nil
	}
	return records
}

// BulkLoad runs every record through the pipeline and returns how many
// were indexed. Individual failures are logged and skipped.
func BulkLoad(ctx context.Context, records []CatalogRecord, deps Deps) int {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	pipeline := NewPipeline(deps)

	loaded := 0
	for _, rec := range records {
		result := pipeline(ctx, rec)
		if result.IsErr() {
			_, err := result.Unwrap()
			log.Warn("catalog record skipped", "part_number", rec.PartNumber, "error", err)
			continue
		}
		loaded++
	}
	log.Info("catalog loaded", "indexed", loaded, "skipped", len(records)-loaded)
	return loaded
}

// dlqMessage is published when a record exhausts its retries.
type dlqMessage struct {
	Record  CatalogRecord `json:"record"`
	Error   string        `json:"error"`
	Retries int           `json:"retries"`
}

// StartConsumer subscribes to catalog events and runs each through the
// pipeline, retrying transient failures and dead-lettering records
// that keep failing.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(CatalogSubject, func(msg *nats.Msg) {
		var rec CatalogRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			log.Error("catalog event unmarshal failed", "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(context.Background(), rec)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("catalog event failed", "part_number", rec.PartNumber, "retry", retries, "error", pipeErr)

			if retries >= MaxRetries {
				dlq := dlqMessage{Record: rec, Error: pipeErr.Error(), Retries: retries}
				if err := natsutil.Publish(context.Background(), nc, DLQSubject, dlq); err != nil {
					log.Error("DLQ publish failed", "error", err)
				}
				return
			}
			retryMsg := nats.NewMsg(CatalogSubject)
			retryMsg.Data = msg.Data
			retryMsg.Header = nats.Header{}
			retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
			if err := nc.PublishMsg(retryMsg); err != nil {
				log.Error("retry publish failed", "error", err)
			}
			return
		}

		partNumber, _ := result.Unwrap()
		log.Info("catalog event indexed", "part_number", partNumber)
	})
}
