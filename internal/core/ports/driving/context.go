package driving

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// ContextProvider retrieves the most relevant stored chunks for a query,
// ranked by similarity and bounded by a token budget.
type ContextProvider interface {
	// BuildContext returns ranked chunks for the query, best first.
	BuildContext(ctx context.Context, userID string, req *domain.ContextRequest) ([]domain.ContextChunk, error)
}
