// Package repo defines a generic CRUD repository over graph-backed
// entities, with a Neo4j implementation.
package repo

import "context"

// Repository is the storage contract entity stores are built on. IDs
// are node properties, so lookups stay cheap for part-number keys.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts pages List queries. A non-positive Limit falls back to the
// implementation default.
type ListOpts struct {
	Offset int
	Limit  int
}
