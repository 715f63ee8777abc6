package strategies

import (
	"fmt"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.StrategyRegistry = (*Registry)(nil)

// Registry maps content kinds to their ingestion strategies.
// Registration happens once at construction; lookups are read-only.
type Registry struct {
	strategies map[domain.ContentKind]driven.IngestionStrategy
	order      []domain.ContentKind
}

// NewRegistry creates a registry with all built-in strategies registered.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{strategies: make(map[domain.ContentKind]driven.IngestionStrategy)}
	r.register(NewDocumentStrategy(deps))
	r.register(NewNoteStrategy(deps))
	r.register(NewActivityStrategy(deps))
	return r
}

func (r *Registry) register(s driven.IngestionStrategy) {
	r.strategies[s.Kind()] = s
	r.order = append(r.order, s.Kind())
}

// Strategy returns the strategy for a kind.
func (r *Registry) Strategy(kind domain.ContentKind) (driven.IngestionStrategy, error) {
	s, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, kind)
	}
	return s, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []domain.ContentKind {
	kinds := make([]domain.ContentKind, len(r.order))
	copy(kinds, r.order)
	return kinds
}
