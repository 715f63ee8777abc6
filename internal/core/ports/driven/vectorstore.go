package driven

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// VectorStore persists embedded chunks in an external vector index and
// serves similarity queries over them.
//
// The store's wire schema only accepts scalar string-valued metadata;
// adapters flatten the structured ContentRecord at this boundary and
// unflatten it on read. The core data model never sees the flat form.
//
// Writes are keyed by the chunk's deterministic ID, so re-ingesting the
// same (contentID, chunkIndex) overwrites rather than duplicates.
type VectorStore interface {
	// Upsert writes one batch of embedded chunks, in order.
	Upsert(ctx context.Context, chunks []domain.EmbeddedChunk) error

	// Query returns the best-matching chunks for the query vector.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]VectorMatch, error)

	// FetchByContentID returns all stored chunks for a content ID,
	// ordered by chunk index. Returns domain.ErrNotFound when none exist.
	FetchByContentID(ctx context.Context, contentID string) ([]domain.EmbeddedChunk, error)

	// UpdateReferences replaces the stored reference list on every chunk
	// of a content ID. Callers merge before writing.
	UpdateReferences(ctx context.Context, contentID string, refs []domain.Reference) error

	// Delete physically removes all chunks for a content ID.
	Delete(ctx context.Context, contentID string) error

	// Close releases resources.
	Close() error
}

// QueryOptions filters and bounds a similarity query.
type QueryOptions struct {
	// TopK is the maximum number of matches to return.
	TopK int

	// UserID restricts matches to one owner when non-empty.
	UserID string

	// Kind restricts matches to one content kind when non-empty.
	Kind domain.ContentKind
}

// VectorMatch is a similarity query result.
type VectorMatch struct {
	// Chunk is the matched chunk with metadata reconstructed.
	Chunk domain.EmbeddedChunk

	// Score is the cosine similarity to the query vector.
	Score float64
}
