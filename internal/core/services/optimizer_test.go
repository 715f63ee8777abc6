package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

func match(text string, vec []float32, score float64) driven.VectorMatch {
	return driven.VectorMatch{
		Chunk: domain.EmbeddedChunk{
			Vector:   vec,
			Metadata: domain.ContentRecord{SearchableText: text},
		},
		Score: score,
	}
}

func TestContextOptimizer_RanksBySimilarity(t *testing.T) {
	queryVec := []float32{1, 0}
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("far", []float32{0, 1}, 0),
		match("near", []float32{1, 0}, 0),
		match("mid", []float32{1, 1}, 0),
	}}
	embedder := &mockEmbeddingService{embedding: queryVec}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{
		Query: "what happened",
	})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "near", chunks[0].Content)
	assert.Equal(t, "mid", chunks[1].Content)
	assert.Equal(t, "far", chunks[2].Content)

	// Scores are monotonically non-increasing.
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i-1].RelevanceScore, chunks[i].RelevanceScore)
	}
}

func TestContextOptimizer_QueryEmbeddedOnce(t *testing.T) {
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("a", []float32{1, 0}, 0),
		match("b", []float32{0, 1}, 0),
	}}
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	_, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.NoError(t, err)
	// Both candidates carry vectors, so only the query is embedded.
	assert.Equal(t, 1, embedder.embedCalls)
}

func TestContextOptimizer_LazyCandidateEmbedding(t *testing.T) {
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("has vector", []float32{1, 0}, 0),
		match("no vector", nil, 0),
	}}
	embedder := &mockEmbeddingService{
		embedding: []float32{1, 0},
		embeddings: map[string][]float32{
			"no vector": {0, 1},
		},
	}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	// Query plus the one missing vector.
	assert.Equal(t, 2, embedder.embedCalls)
	assert.Equal(t, "has vector", chunks[0].Content)
}

func TestContextOptimizer_MinRelevanceFilters(t *testing.T) {
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("relevant", []float32{1, 0}, 0),
		match("irrelevant", []float32{0, 1}, 0),
	}}
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{
		Query:        "q",
		MinRelevance: 0.5,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "relevant", chunks[0].Content)
}

func TestContextOptimizer_TokenBudgetBreaksAtFirstOverflow(t *testing.T) {
	// c1 fits, c2 overflows, c3 would fit but must not be selected:
	// packing stops at the first overflow to preserve rank order.
	queryVec := []float32{1, 0}
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("c1", []float32{1, 0}, 0),
		match("c2", []float32{0.99, 0.1}, 0),
		match("c3", []float32{0.9, 0.2}, 0),
	}}
	embedder := &mockEmbeddingService{embedding: queryVec}
	estimator := &mockTokenEstimator{overrides: map[string]int{
		"c1": 60,
		"c2": 50,
		"c3": 10,
	}}
	opt := NewContextOptimizer(embedder, store, estimator)

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{
		Query:     "q",
		MaxTokens: 100,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].Content)
}

func TestContextOptimizer_MaxChunksCapsSelection(t *testing.T) {
	var matches []driven.VectorMatch
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		matches = append(matches, match(text, []float32{1, 0}, 0))
	}
	store := &mockVectorStore{matches: matches}
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{
		Query:     "q",
		MaxChunks: 2,
	})

	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestContextOptimizer_StableOrderOnTies(t *testing.T) {
	// Identical vectors produce identical scores; store order must hold.
	vec := []float32{1, 0}
	store := &mockVectorStore{matches: []driven.VectorMatch{
		match("first", vec, 0),
		match("second", vec, 0),
		match("third", vec, 0),
	}}
	embedder := &mockEmbeddingService{embedding: vec}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "first", chunks[0].Content)
	assert.Equal(t, "second", chunks[1].Content)
	assert.Equal(t, "third", chunks[2].Content)
}

func TestContextOptimizer_EmptyQuery(t *testing.T) {
	opt := NewContextOptimizer(&mockEmbeddingService{}, &mockVectorStore{}, &mockTokenEstimator{})

	_, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "   "})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestContextOptimizer_EmbedError(t *testing.T) {
	embedder := &mockEmbeddingService{embedErr: errors.New("service down")}
	opt := NewContextOptimizer(embedder, &mockVectorStore{}, &mockTokenEstimator{})

	_, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}

func TestContextOptimizer_StoreError(t *testing.T) {
	store := &mockVectorStore{queryErr: errors.New("unreachable")}
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	opt := NewContextOptimizer(embedder, store, &mockTokenEstimator{})

	_, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query vector store")
}

func TestContextOptimizer_NoCandidates(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	opt := NewContextOptimizer(embedder, &mockVectorStore{}, &mockTokenEstimator{})

	chunks, err := opt.BuildContext(context.Background(), "user-1", &domain.ContextRequest{Query: "q"})

	require.NoError(t, err)
	assert.Empty(t, chunks)
}
