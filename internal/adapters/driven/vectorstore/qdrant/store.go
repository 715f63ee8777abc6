// Package qdrant implements the vector store port against a Qdrant
// instance over gRPC. Chunk metadata crosses the wire in the flat
// string schema produced by the codec package.
package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/vectorstore/codec"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "recall_content"

// scrollLimit bounds a single content fetch. Per-kind text ceilings keep
// chunk counts per content ID far below this.
const scrollLimit = uint32(1024)

// pointNamespace derives deterministic point UUIDs from chunk IDs.
// Qdrant only accepts UUID or integer point IDs, so the external chunk
// ID lives in the payload and the point ID is a stable hash of it.
var pointNamespace = uuid.MustParse("5e1f86a3-2c44-4b7e-9f0d-8a91c3d27b60")

// Config holds connection settings for the Qdrant store.
type Config struct {
	Host       string
	Port       int
	Collection string
	VectorSize int
}

// Store is a Qdrant-backed driven.VectorStore.
type Store struct {
	client     *qdrant.Client
	collection string
}

// NewStore connects to Qdrant and ensures the collection exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to qdrant: %v", domain.ErrStore, err)
	}

	s := &Store{client: client, collection: cfg.Collection}
	if err := s.ensureCollection(ctx, uint64(cfg.VectorSize)); err != nil {
		client.Close()
		return nil, err
	}

	logger.Debug("Connected to Qdrant at %s:%d, collection %q", cfg.Host, cfg.Port, cfg.Collection)
	return s, nil
}

// ensureCollection creates the collection when it does not exist yet.
func (s *Store) ensureCollection(ctx context.Context, vectorSize uint64) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", domain.ErrStore, err)
	}
	for _, name := range existing {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection %s: %v", domain.ErrStore, s.collection, err)
	}

	logger.Info("Created Qdrant collection %q (dimensions: %d)", s.collection, vectorSize)
	return nil
}

// Upsert writes one batch of embedded chunks.
func (s *Store) Upsert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		meta, err := codec.Flatten(chunk)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStore, err)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      pointID(chunk.ID),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(toPayload(meta)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upsert %d points: %v", domain.ErrStore, len(points), err)
	}
	return nil
}

// Query returns the best-matching chunks for the query vector.
func (s *Store) Query(ctx context.Context, vector []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	limit := uint64(opts.TopK)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(opts),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrStore, err)
	}

	matches := make([]driven.VectorMatch, 0, len(hits))
	for _, hit := range hits {
		chunk, err := decodePoint(hit.GetPayload(), hit.GetVectors())
		if err != nil {
			return nil, err
		}
		matches = append(matches, driven.VectorMatch{Chunk: chunk, Score: float64(hit.GetScore())})
	}
	return matches, nil
}

// FetchByContentID returns all chunks for a content ID in chunk order.
func (s *Store) FetchByContentID(ctx context.Context, contentID string) ([]domain.EmbeddedChunk, error) {
	limit := scrollLimit
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         contentFilter(contentID),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scroll content %s: %v", domain.ErrStore, contentID, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: content %s", domain.ErrNotFound, contentID)
	}

	chunks := make([]domain.EmbeddedChunk, 0, len(points))
	for _, p := range points {
		chunk, err := decodePoint(p.GetPayload(), p.GetVectors())
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})
	return chunks, nil
}

// UpdateReferences replaces the reference list on every chunk of a
// content ID with a single payload write.
func (s *Store) UpdateReferences(ctx context.Context, contentID string, refs []domain.Reference) error {
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"references": codec.EncodeReferences(refs),
		}),
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: contentFilter(contentID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: update references for %s: %v", domain.ErrStore, contentID, err)
	}
	return nil
}

// Delete physically removes all chunks for a content ID.
func (s *Store) Delete(ctx context.Context, contentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: contentFilter(contentID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: delete content %s: %v", domain.ErrStore, contentID, err)
	}
	return nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// pointID hashes an external chunk ID into a stable Qdrant point UUID.
func pointID(chunkID string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(pointNamespace, []byte(chunkID)).String())
}

// buildFilter translates query options into Qdrant match conditions.
func buildFilter(opts driven.QueryOptions) *qdrant.Filter {
	var must []*qdrant.Condition
	if opts.UserID != "" {
		must = append(must, qdrant.NewMatch("userId", opts.UserID))
	}
	if opts.Kind != "" {
		must = append(must, qdrant.NewMatch("contentType", string(opts.Kind)))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// contentFilter matches every chunk of one content ID.
func contentFilter(contentID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("contentId", contentID),
		},
	}
}

// toPayload widens the flat string metadata for the payload builder.
func toPayload(meta map[string]string) map[string]interface{} {
	payload := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		payload[k] = v
	}
	return payload
}

// decodePoint rebuilds an embedded chunk from a stored payload. The
// external chunk ID is derived from the payload rather than the point
// UUID, which is a one-way hash of it.
func decodePoint(payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) (domain.EmbeddedChunk, error) {
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		meta[k] = v.GetStringValue()
	}

	var vector []float32
	if v := vectors.GetVector(); v != nil {
		vector = v.GetData()
	}

	chunk, err := codec.Unflatten("", vector, meta)
	if err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	chunk.ID = domain.ChunkID(chunk.Metadata.ContentType, chunk.Metadata.ContentID, chunk.Metadata.ChunkIndex)
	return chunk, nil
}
