package strategies

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/chunker"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure DocumentStrategy implements the interface.
var _ driven.IngestionStrategy = (*DocumentStrategy)(nil)

// Document ingestion policy.
const (
	documentChunkSize = 1000
	documentOverlap   = 200
	documentBatchSize = 50
)

// DocumentStrategy ingests full documents: the largest inputs, chunked
// with generous overlap and stored in large batches. Documents carry no
// explicit length ceiling; size constraints are enforced upstream at
// upload time.
type DocumentStrategy struct {
	base
}

// NewDocumentStrategy creates the document ingestion strategy.
func NewDocumentStrategy(deps Deps) *DocumentStrategy {
	s := &DocumentStrategy{
		base: newBase(deps, domain.KindDocument,
			chunker.New(
				chunker.WithChunkSize(documentChunkSize),
				chunker.WithOverlap(documentOverlap),
			),
			documentBatchSize),
	}
	s.salient = documentSalient
	return s
}

// Kind returns the content kind this strategy handles.
func (s *DocumentStrategy) Kind() domain.ContentKind { return domain.KindDocument }

// Preprocess normalises the request into a document record.
func (s *DocumentStrategy) Preprocess(ctx context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error) {
	return s.preprocess(ctx, req)
}

// Validate checks document-specific rules.
func (s *DocumentStrategy) Validate(_ context.Context, rec *domain.ContentRecord) (*domain.ValidationResult, error) {
	var errs []string
	if rec.UserID == "" {
		errs = append(errs, "user id is required")
	}
	if rec.Text == "" {
		errs = append(errs, "document text must not be empty")
	}
	return &domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

// Chunk splits the document on semantic boundaries.
func (s *DocumentStrategy) Chunk(_ context.Context, rec *domain.ContentRecord) ([]domain.Chunk, error) {
	return s.chunk(rec), nil
}

// Embed generates one embedding per chunk.
func (s *DocumentStrategy) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	return s.embed(ctx, chunks)
}

// Store writes chunks in batches of 50.
func (s *DocumentStrategy) Store(ctx context.Context, chunks []domain.EmbeddedChunk) (*domain.StorageResult, error) {
	return s.store(ctx, chunks)
}

// ProcessReferences extracts and merges outbound references.
func (s *DocumentStrategy) ProcessReferences(ctx context.Context, rec *domain.ContentRecord) error {
	return s.processReferences(ctx, rec)
}

// LinkRelated connects explicitly related content.
func (s *DocumentStrategy) LinkRelated(ctx context.Context, rec *domain.ContentRecord) error {
	return s.linkRelated(ctx, rec)
}

// documentSalient injects file metadata into the searchable text.
func documentSalient(rec *domain.ContentRecord) []string {
	if rec.Document == nil {
		return nil
	}

	var parts []string
	if rec.Document.FileName != "" {
		parts = append(parts, rec.Document.FileName)
	}
	if rec.Document.Author != "" {
		parts = append(parts, rec.Document.Author)
	}
	return parts
}
