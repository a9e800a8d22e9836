package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrNotFound is returned when a Get or Update matches no node.
var ErrNotFound = errors.New("entity not found")

// defaultListLimit caps List queries that don't set their own limit.
const defaultListLimit = 100

// rows is the slice of neo4j result behavior the repo consumes.
type rows interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the slice of neo4j session behavior the repo consumes,
// kept narrow so tests can substitute a fake.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (rows, error)
	Close(ctx context.Context) error
}

// Neo4jRepo implements Repository for one node label. Mapping between
// the entity type and node properties is delegated to the toMap and
// fromRecord callbacks supplied at construction.
type Neo4jRepo[T any, ID comparable] struct {
	driver     neo4j.DriverWithContext
	label      string
	idKey      string
	toMap      func(T) map[string]any
	fromRecord func(*neo4j.Record) (T, error)
	newSession func(ctx context.Context) runner // test seam
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any, ID comparable] func(*Neo4jRepo[T, ID])

// WithIDKey sets the node property used as the identifier. The default
// is "id".
func WithIDKey[T any, ID comparable](key string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.idKey = key }
}

// NewNeo4jRepo creates a repository for nodes carrying the given label.
func NewNeo4jRepo[T any, ID comparable](
	driver neo4j.DriverWithContext,
	label string,
	toMap func(T) map[string]any,
	fromRecord func(*neo4j.Record) (T, error),
	opts ...Neo4jOption[T, ID],
) *Neo4jRepo[T, ID] {
	r := &Neo4jRepo[T, ID]{
		driver:     driver,
		label:      label,
		idKey:      "id",
		toMap:      toMap,
		fromRecord: fromRecord,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ Repository[any, string] = (*Neo4jRepo[any, string])(nil)

// liveSession adapts neo4j.SessionWithContext to the runner interface.
type liveSession struct {
	sess neo4j.SessionWithContext
}

func (s *liveSession) Run(ctx context.Context, cypher string, params map[string]any) (rows, error) {
	return s.sess.Run(ctx, cypher, params)
}

func (s *liveSession) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

func (r *Neo4jRepo[T, ID]) session(ctx context.Context) runner {
	if r.newSession != nil {
		return r.newSession(ctx)
	}
	return &liveSession{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// queryOne runs a cypher statement expected to return a single node and
// maps it. A statement matching nothing yields ErrNotFound.
func (r *Neo4jRepo[T, ID]) queryOne(ctx context.Context, cypher string, params map[string]any) (T, error) {
	var zero T
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return zero, err
	}
	if !res.Next(ctx) {
		return zero, fmt.Errorf("%s: %w", r.label, ErrNotFound)
	}
	return r.fromRecord(res.Record())
}

func (r *Neo4jRepo[T, ID]) Get(ctx context.Context, id ID) (T, error) {
	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) RETURN n", r.label, r.idKey)
	return r.queryOne(ctx, cypher, map[string]any{"id": id})
}

func (r *Neo4jRepo[T, ID]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	cypher := fmt.Sprintf("MATCH (n:%s) RETURN n SKIP $offset LIMIT $limit", r.label)
	res, err := sess.Run(ctx, cypher, map[string]any{"offset": opts.Offset, "limit": limit})
	if err != nil {
		return nil, err
	}

	var items []T
	for res.Next(ctx) {
		item, err := r.fromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Neo4jRepo[T, ID]) Create(ctx context.Context, entity T) (T, error) {
	cypher := fmt.Sprintf("CREATE (n:%s $props) RETURN n", r.label)
	return r.queryOne(ctx, cypher, map[string]any{"props": r.toMap(entity)})
}

func (r *Neo4jRepo[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	props := r.toMap(entity)
	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) SET n += $props RETURN n", r.label, r.idKey)
	return r.queryOne(ctx, cypher, map[string]any{"id": props[r.idKey], "props": props})
}

func (r *Neo4jRepo[T, ID]) Delete(ctx context.Context, id ID) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s {%s: $id}) DELETE n", r.label, r.idKey)
	_, err := sess.Run(ctx, cypher, map[string]any{"id": id})
	return err
}
