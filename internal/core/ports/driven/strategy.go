package driven

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// IngestionStrategy implements the kind-specific stages of the ingestion
// pipeline. The orchestrator calls the stages in a fixed order:
// Preprocess, Validate, Chunk, Embed, Store, ProcessReferences.
// Strategies never reorder or skip stages themselves.
type IngestionStrategy interface {
	// Kind returns the content kind this strategy handles.
	Kind() domain.ContentKind

	// Preprocess normalises the raw request into a base content record:
	// cleaned text, derived summary and searchable text, analyzed
	// language and topic keywords.
	Preprocess(ctx context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error)

	// Validate checks the preprocessed record against kind-specific rules.
	// A failed check is reported in the result, not as an error; the error
	// return is for infrastructure failures only.
	Validate(ctx context.Context, rec *domain.ContentRecord) (*domain.ValidationResult, error)

	// Chunk splits the record into ordered chunks, each carrying a full
	// copy of the metadata with its own index.
	Chunk(ctx context.Context, rec *domain.ContentRecord) ([]domain.Chunk, error)

	// Embed generates an embedding for every chunk's searchable text.
	Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error)

	// Store writes the embedded chunks to the vector store in batches.
	Store(ctx context.Context, chunks []domain.EmbeddedChunk) (*domain.StorageResult, error)

	// ProcessReferences extracts references from the stored content and
	// merges them into every stored chunk. Best-effort.
	ProcessReferences(ctx context.Context, rec *domain.ContentRecord) error

	// LinkRelated connects the record to explicitly related content IDs.
	LinkRelated(ctx context.Context, rec *domain.ContentRecord) error
}

// StrategyRegistry resolves ingestion strategies by content kind.
type StrategyRegistry interface {
	// Strategy returns the strategy for a kind. Returns
	// domain.ErrUnsupportedContentType when no strategy is registered.
	Strategy(kind domain.ContentKind) (IngestionStrategy, error)

	// Kinds returns the registered kinds in a stable order.
	Kinds() []domain.ContentKind
}
