package driving

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// ContentIngestor runs the full ingestion pipeline for one piece of content.
type ContentIngestor interface {
	// Process ingests synchronously and returns the storage result.
	// Returns domain.ErrUnsupportedContentType for unknown kinds and
	// domain.ErrValidation when the content fails validation.
	Process(ctx context.Context, req *domain.IngestRequest) (*domain.StorageResult, error)

	// StartAsync begins ingestion in the background and returns a
	// processing ID immediately. Progress is polled via Status.
	StartAsync(ctx context.Context, req *domain.IngestRequest) (string, error)

	// Status returns the state of an async ingestion.
	// Returns domain.ErrNotFound for unknown processing IDs.
	Status(processingID string) (*domain.ProcessingStatus, error)
}
