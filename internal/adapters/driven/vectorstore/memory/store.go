// Package memory provides an in-memory vector store for tests and for
// running without an external index. Records pass through the same
// flattening codec as the real store so the wire schema is exercised
// everywhere.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/adapters/driven/vectorstore/codec"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/services"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// record is one stored point in flat form.
type record struct {
	id     string
	vector []float32
	meta   map[string]string
}

// Store is an in-memory driven.VectorStore.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{records: make(map[string]record)}
}

// Upsert writes one batch of embedded chunks, keyed by chunk ID.
func (s *Store) Upsert(_ context.Context, chunks []domain.EmbeddedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		meta, err := codec.Flatten(chunk)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		s.records[chunk.ID] = record{id: chunk.ID, vector: chunk.Vector, meta: meta}
	}
	return nil
}

// Query returns the best-matching chunks for the query vector.
func (s *Store) Query(_ context.Context, vector []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]driven.VectorMatch, 0)
	for _, rec := range s.records {
		if opts.UserID != "" && rec.meta["userId"] != opts.UserID {
			continue
		}
		if opts.Kind != "" && rec.meta["contentType"] != string(opts.Kind) {
			continue
		}

		score, err := services.CosineSimilarity(vector, rec.vector)
		if err != nil {
			return nil, err
		}

		chunk, err := codec.Unflatten(rec.id, rec.vector, rec.meta)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		matches = append(matches, driven.VectorMatch{Chunk: chunk, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

// FetchByContentID returns all chunks for a content ID in chunk order.
func (s *Store) FetchByContentID(_ context.Context, contentID string) ([]domain.EmbeddedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.EmbeddedChunk
	for _, rec := range s.records {
		if rec.meta["contentId"] != contentID {
			continue
		}
		chunk, err := codec.Unflatten(rec.id, rec.vector, rec.meta)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: content %s", domain.ErrNotFound, contentID)
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Metadata.ChunkIndex < chunks[j].Metadata.ChunkIndex
	})
	return chunks, nil
}

// UpdateReferences replaces the reference list on every chunk of a
// content ID.
func (s *Store) UpdateReferences(_ context.Context, contentID string, refs []domain.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.meta["contentId"] != contentID {
			continue
		}
		chunk, err := codec.Unflatten(rec.id, rec.vector, rec.meta)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		chunk.Metadata.References = refs

		meta, err := codec.Flatten(chunk)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		s.records[id] = record{id: rec.id, vector: rec.vector, meta: meta}
	}
	return nil
}

// Delete physically removes all chunks for a content ID.
func (s *Store) Delete(_ context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.meta["contentId"] == contentID {
			delete(s.records, id)
		}
	}
	return nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
