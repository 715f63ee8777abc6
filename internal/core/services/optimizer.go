package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// Ensure ContextOptimizer implements the interface.
var _ driving.ContextProvider = (*ContextOptimizer)(nil)

// candidateHeadroom over-fetches from the vector store so relevance
// filtering still leaves enough chunks to fill the budget.
const candidateHeadroom = 2

// ContextOptimizer selects the most relevant stored chunks for a query.
// Candidates come from the vector store, are re-scored against the query
// embedding, ranked, filtered by a relevance floor, and packed into a
// token budget greedily in rank order.
type ContextOptimizer struct {
	embedder  driven.EmbeddingService
	store     driven.VectorStore
	estimator driven.TokenEstimator
}

// NewContextOptimizer creates a new context optimizer.
func NewContextOptimizer(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	estimator driven.TokenEstimator,
) *ContextOptimizer {
	return &ContextOptimizer{
		embedder:  embedder,
		store:     store,
		estimator: estimator,
	}
}

// BuildContext returns ranked chunks for the query, best first.
func (o *ContextOptimizer) BuildContext(
	ctx context.Context, userID string, req *domain.ContextRequest,
) ([]domain.ContextChunk, error) {
	logger.Section("Context Retrieval")

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}

	maxChunks := req.MaxChunks
	if maxChunks <= 0 {
		maxChunks = domain.DefaultMaxChunks
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	logger.Debug("Query: %q, maxChunks=%d, maxTokens=%d, minRelevance=%.2f",
		query, maxChunks, maxTokens, req.MinRelevance)

	// The query is embedded exactly once per request.
	queryVec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(queryVec))

	matches, err := o.store.Query(ctx, queryVec, driven.QueryOptions{
		TopK:   maxChunks * candidateHeadroom,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}
	logger.Debug("Candidates: %d", len(matches))

	candidates, err := o.score(ctx, queryVec, matches)
	if err != nil {
		return nil, err
	}

	selected := o.selectWithinBudget(candidates, req.MinRelevance, maxChunks, maxTokens)
	logger.Info("Selected %d of %d candidates", len(selected), len(candidates))

	return selected, nil
}

// score re-scores every candidate against the query embedding. Chunks
// that come back without a vector are embedded lazily from their content.
func (o *ContextOptimizer) score(
	ctx context.Context, queryVec []float32, matches []driven.VectorMatch,
) ([]domain.ContextChunk, error) {
	candidates := make([]domain.ContextChunk, 0, len(matches))

	for _, m := range matches {
		content := m.Chunk.Metadata.SearchableText
		if content == "" {
			content = m.Chunk.Metadata.Text
		}

		vec := m.Chunk.Vector
		if len(vec) == 0 {
			lazy, err := o.embedder.Embed(ctx, content)
			if err != nil {
				return nil, fmt.Errorf("embed candidate: %w", err)
			}
			vec = lazy
		}

		score, err := CosineSimilarity(queryVec, vec)
		if err != nil {
			// Dimension mismatch means the stored vector came from a
			// different model; fall back to the store's own score.
			logger.Warn("Candidate scoring failed: %v (using store score)", err)
			score = m.Score
		}

		candidates = append(candidates, domain.ContextChunk{
			Content:        content,
			Embedding:      vec,
			RelevanceScore: score,
		})
	}

	return candidates, nil
}

// selectWithinBudget ranks candidates and packs them into the token
// budget. Sorting is stable so equal scores keep their store order.
// Packing stops at the first chunk that would overflow the budget,
// even if a later, smaller chunk would still fit: lower-ranked chunks
// must never displace higher-ranked ones.
func (o *ContextOptimizer) selectWithinBudget(
	candidates []domain.ContextChunk, minRelevance float64, maxChunks, maxTokens int,
) []domain.ContextChunk {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})

	selected := make([]domain.ContextChunk, 0, maxChunks)
	usedTokens := 0

	for _, c := range candidates {
		if len(selected) >= maxChunks {
			break
		}
		if c.RelevanceScore < minRelevance {
			// Candidates are sorted, everything after is below the floor too.
			break
		}

		tokens := o.estimator.EstimateTokens(c.Content)
		if usedTokens+tokens > maxTokens {
			logger.Debug("Token budget reached at %d/%d tokens", usedTokens, maxTokens)
			break
		}

		usedTokens += tokens
		selected = append(selected, c)
	}

	return selected
}
