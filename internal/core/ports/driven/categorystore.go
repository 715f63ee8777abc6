package driven

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// CategoryStore persists per-user category weights and usage counters.
type CategoryStore interface {
	// Get returns one category. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, userID, name string) (*domain.Category, error)

	// Save inserts or updates a category.
	Save(ctx context.Context, cat *domain.Category) error

	// List returns all categories for a user, heaviest first.
	List(ctx context.Context, userID string) ([]domain.Category, error)

	// Close releases resources.
	Close() error
}
