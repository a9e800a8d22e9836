package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex stores vectors in a Qdrant collection. It keeps the same
// ordinal addressing as FlatIndex by writing the insertion position
// into each point's payload, so the two backends are interchangeable.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dim         int

	mu   sync.Mutex
	next int
}

// NewQdrantIndex connects to Qdrant at the given gRPC address.
func NewQdrantIndex(addr, collection string, dim int) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		dim:         dim,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist, with
// Euclidean distance to match FlatIndex ranking.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(q.dim),
					Distance: pb.Distance_Euclid,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", q.collection, err)
	}
	return nil
}

// Insert upserts a vector at the next ordinal slot. Point IDs are
// derived from the ordinal so re-running an identical load is
// idempotent.
func (q *QdrantIndex) Insert(ctx context.Context, vec []float32) error {
	if len(vec) != q.dim {
		return fmt.Errorf("semantic: insert dim %d into index dim %d: %w", len(vec), q.dim, ErrDimensionMismatch)
	}

	q.mu.Lock()
	ordinal := q.next
	q.next++
	q.mu.Unlock()

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", q.collection, ordinal))).String()
	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: id},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vec},
				},
			},
			Payload: map[string]*pb.Value{
				"ordinal": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(ordinal)}},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert ordinal %d: %w", ordinal, err)
	}
	return nil
}

// Search performs k-NN search and maps payload ordinals back to hits.
func (q *QdrantIndex) Search(ctx context.Context, vec []float32, k int) ([]Hit, error) {
	if len(vec) != q.dim {
		return nil, fmt.Errorf("semantic: search dim %d against index dim %d: %w", len(vec), q.dim, ErrDimensionMismatch)
	}
	if k < 1 {
		return []Hit{}, nil
	}

	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vec,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	hits := make([]Hit, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		ord, ok := r.GetPayload()["ordinal"]
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Ordinal:  int(ord.GetIntegerValue()),
			Distance: r.GetScore(),
		})
	}
	sortHits(hits)
	return hits, nil
}

// sortHits orders hits by ascending distance, equal distances by the
// earlier ordinal. Qdrant returns equal scores in server order, which
// would break the ranking FlatIndex guarantees.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
}

// Count returns the number of stored points.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := q.points.Count(ctx, &pb.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("semantic: count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}
