package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadNamespace  = "namespace"
	payloadChunkID    = "chunk_id"
	payloadText       = "text"
	payloadInsertedAt = "inserted_at"
)

// pointsClient is the subset of *qdrant.Client the store uses.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

// VectorStore implements storage.VectorStore on a Qdrant collection.
type VectorStore struct {
	client     pointsClient
	collection string
	dimension  int
	logger     *slog.Logger
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore connects to Qdrant and creates the collection if it is missing.
func NewVectorStore(ctx context.Context, cfg *Config) (storage.VectorStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect to %s: %w", address(host, port), err)
	}

	store, err := newVectorStore(ctx, client, cfg.Collection, cfg.Dimension)
	if err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

func newVectorStore(ctx context.Context, client pointsClient, collection string, dimension int) (*VectorStore, error) {
	s := &VectorStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
		logger:     slog.Default().With("component", "qdrant", "collection", collection),
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if exists {
		return nil
	}

	s.logger.Info("creating collection", "dimension", s.dimension)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}

	wait := true
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		Wait:           &wait,
		FieldName:      payloadNamespace,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("qdrant: index namespace: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *VectorStore) Close() error {
	return s.client.Close()
}

// Upsert writes chunks as points keyed by a UUID derived from namespace and id.
func (s *VectorStore) Upsert(ctx context.Context, chunks ...*core.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if len(chunk.Vector) != s.dimension {
			return fmt.Errorf("%w: got %d, collection has %d", storage.ErrDimensionMismatch, len(chunk.Vector), s.dimension)
		}
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = now
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(chunk.Namespace, chunk.ID)),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadNamespace:  chunk.Namespace,
				payloadChunkID:    chunk.ID,
				payloadText:       chunk.Text,
				payloadInsertedAt: chunk.InsertedAt.Format(time.RFC3339Nano),
			}),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

// Query returns the topK points in namespace nearest to vector.
func (s *VectorStore) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]*core.ChunkMatch, error) {
	if err := core.ValidateSessionID(namespace); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArgument, core.ErrEmptyVector)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", storage.ErrInvalidQuery)
	}

	limit := uint64(topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         namespaceFilter(namespace),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	matches := make([]*core.ChunkMatch, 0, len(points))
	for _, p := range points {
		chunk := chunkFromPayload(p.GetPayload())
		if chunk.Namespace != namespace {
			s.logger.Warn("dropping point from foreign namespace", "namespace", chunk.Namespace)
			continue
		}
		matches = append(matches, &core.ChunkMatch{Chunk: chunk, Score: p.GetScore()})
	}
	return matches, nil
}

// DeleteNamespace deletes every point whose payload namespace matches.
func (s *VectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := core.ValidateSessionID(namespace); err != nil {
		return err
	}

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(namespaceFilter(namespace)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete namespace: %w", err)
	}
	return nil
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(payloadNamespace, namespace),
		},
	}
}

// pointID maps a chunk to a stable UUID, since Qdrant ids must be UUIDs or integers.
func pointID(namespace, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"\x00"+chunkID)).String()
}

func chunkFromPayload(payload map[string]*qdrant.Value) *core.StoredChunk {
	chunk := &core.StoredChunk{
		ID:        payload[payloadChunkID].GetStringValue(),
		Namespace: payload[payloadNamespace].GetStringValue(),
		Text:      payload[payloadText].GetStringValue(),
	}
	if ts := payload[payloadInsertedAt].GetStringValue(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			chunk.InsertedAt = t
		}
	}
	return chunk
}
