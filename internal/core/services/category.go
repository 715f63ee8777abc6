package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// DefaultCategoryWeight is assigned to categories on first use.
const DefaultCategoryWeight = 1.0

// CategoryService tracks per-user category weights and usage.
// Weights bias future ranking; usage counts record how often each
// category appears in ingested content.
type CategoryService struct {
	store driven.CategoryStore
}

// NewCategoryService creates a new category service.
func NewCategoryService(store driven.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// List returns all categories for a user, heaviest first.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	cats, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// SetWeight sets the ranking weight for a category, creating it if absent.
func (s *CategoryService) SetWeight(ctx context.Context, userID, name string, weight float64) error {
	if name == "" {
		return fmt.Errorf("%w: category name must not be empty", domain.ErrValidation)
	}
	if weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", domain.ErrValidation)
	}

	cat, err := s.store.Get(ctx, userID, name)
	if errors.Is(err, domain.ErrNotFound) {
		cat = &domain.Category{UserID: userID, Name: name}
	} else if err != nil {
		return fmt.Errorf("get category: %w", err)
	}

	cat.Weight = weight
	cat.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, cat); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// RecordUsage increments the usage count of each named category,
// creating missing ones with the default weight.
func (s *CategoryService) RecordUsage(ctx context.Context, userID string, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}

		cat, err := s.store.Get(ctx, userID, name)
		if errors.Is(err, domain.ErrNotFound) {
			cat = &domain.Category{UserID: userID, Name: name, Weight: DefaultCategoryWeight}
		} else if err != nil {
			return fmt.Errorf("get category %q: %w", name, err)
		}

		cat.UsageCount++
		cat.UpdatedAt = time.Now().UTC()

		if err := s.store.Save(ctx, cat); err != nil {
			return fmt.Errorf("save category %q: %w", name, err)
		}
	}
	return nil
}
