// Package memory provides an in-memory category store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure CategoryStore implements the interface.
var _ driven.CategoryStore = (*CategoryStore)(nil)

// CategoryStore is an in-memory driven.CategoryStore.
type CategoryStore struct {
	mu   sync.RWMutex
	cats map[string]map[string]domain.Category
}

// NewCategoryStore creates an empty in-memory category store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{cats: make(map[string]map[string]domain.Category)}
}

// Get returns one category.
func (s *CategoryStore) Get(_ context.Context, userID, name string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.cats[userID][name]
	if !ok {
		return nil, fmt.Errorf("%w: category %s", domain.ErrNotFound, name)
	}
	cp := cat
	return &cp, nil
}

// Save inserts or updates a category.
func (s *CategoryStore) Save(_ context.Context, cat *domain.Category) error {
	if cat.UserID == "" || cat.Name == "" {
		return domain.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cats[cat.UserID] == nil {
		s.cats[cat.UserID] = make(map[string]domain.Category)
	}
	s.cats[cat.UserID][cat.Name] = *cat
	return nil
}

// List returns all categories for a user, heaviest first.
func (s *CategoryStore) List(_ context.Context, userID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cats := make([]domain.Category, 0, len(s.cats[userID]))
	for _, cat := range s.cats[userID] {
		cats = append(cats, cat)
	}

	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Weight != cats[j].Weight {
			return cats[i].Weight > cats[j].Weight
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

// Close releases resources.
func (s *CategoryStore) Close() error {
	return nil
}
