// Package retrieval pairs an exact part-number lookup with a semantic
// embedding index over the same catalog. Both views are updated under
// one lock so their ordinals never diverge.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/semantic"
)

// Engine is the catalog retrieval core. The Nth indexed product owns
// ordinal N-1 in the embedding index; search hits resolve back to
// products by that ordinal.
type Engine struct {
	mu       sync.RWMutex
	embedder semantic.Embedder
	index    semantic.Index
	products []domain.Product
	byPart   map[string]int
	logger   *slog.Logger
}

// New creates an empty retrieval engine.
func New(embedder semantic.Embedder, index semantic.Index, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		index:    index,
		byPart:   make(map[string]int),
		logger:   logger,
	}
}

// Index validates and adds a product to both views. Indexing the same
// part number again appends a fresh ordinal and repoints the exact
// lookup at the newest record; older ordinals stay searchable.
func (e *Engine) Index(ctx context.Context, p domain.Product) error {
	if err := domain.ValidateProduct(p); err != nil {
		return err
	}
	vec := e.embedder.Embed(domain.SearchText(p))

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Insert(ctx, vec); err != nil {
		return fmt.Errorf("retrieval: index %s: %w", p.PartNumber, err)
	}
	e.products = append(e.products, p)
	e.byPart[p.PartNumber] = len(e.products) - 1

	if n, err := e.index.Count(ctx); err == nil && n != len(e.products) {
		return fmt.Errorf("retrieval: %d products vs %d vectors: %w", len(e.products), n, domain.ErrIndexCorruption)
	}

	e.logger.Debug("indexed product", "part_number", p.PartNumber, "ordinal", len(e.products)-1)
	return nil
}

// LookupExact resolves a canonical part number to its product.
func (e *Engine) LookupExact(partNumber string) (domain.Product, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.byPart[partNumber]
	if !ok {
		return domain.Product{}, false
	}
	return e.products[i], true
}

// Search returns up to k products nearest to the query text. An empty
// catalog yields an empty slice.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]domain.Product, error) {
	vec := e.embedder.Embed(query)

	e.mu.RLock()
	defer e.mu.RUnlock()

	hits, err := e.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search %q: %w", query, err)
	}

	out := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		if h.Ordinal < 0 || h.Ordinal >= len(e.products) {
			return nil, fmt.Errorf("retrieval: hit ordinal %d outside %d products: %w", h.Ordinal, len(e.products), domain.ErrIndexCorruption)
		}
		out = append(out, e.products[h.Ordinal])
	}
	return out, nil
}

// Count returns the number of indexed products.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}
