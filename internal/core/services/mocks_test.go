package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding  []float32            // default vector
	embeddings map[string][]float32 // per-text override
	embedErr   error
	dims       int
	embedCalls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.embeddings[text]; ok {
		return v, nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embedder" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu          sync.Mutex
	matches     []driven.VectorMatch
	queryErr    error
	upsertErr   error
	upserted    [][]domain.EmbeddedChunk
	fetched     map[string][]domain.EmbeddedChunk
	updatedRefs map[string][]domain.Reference
}

func (m *mockVectorStore) Upsert(_ context.Context, chunks []domain.EmbeddedChunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, chunks)
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, _ []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if opts.TopK > 0 && opts.TopK < len(m.matches) {
		return m.matches[:opts.TopK], nil
	}
	return m.matches, nil
}

func (m *mockVectorStore) FetchByContentID(_ context.Context, contentID string) ([]domain.EmbeddedChunk, error) {
	chunks, ok := m.fetched[contentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return chunks, nil
}

func (m *mockVectorStore) UpdateReferences(_ context.Context, contentID string, refs []domain.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updatedRefs == nil {
		m.updatedRefs = make(map[string][]domain.Reference)
	}
	m.updatedRefs[contentID] = refs
	return nil
}

func (m *mockVectorStore) Delete(_ context.Context, _ string) error { return nil }

func (m *mockVectorStore) Close() error { return nil }

// mockTokenEstimator implements driven.TokenEstimator for testing.
// Counts tokens per text via the overrides map, falling back to one
// token per character so tests control sizes precisely.
type mockTokenEstimator struct {
	overrides map[string]int
}

func (m *mockTokenEstimator) EstimateTokens(text string) int {
	if n, ok := m.overrides[text]; ok {
		return n
	}
	return len(text)
}

func (m *mockTokenEstimator) Method() string { return "mock" }

// mockStrategy implements driven.IngestionStrategy for testing.
// It records which stages ran, in order.
type mockStrategy struct {
	kind domain.ContentKind

	stages []string

	preprocessErr error
	validation    *domain.ValidationResult
	chunks        []domain.Chunk
	chunkErr      error
	embedded      []domain.EmbeddedChunk
	embedErr      error
	storeResult   *domain.StorageResult
	storeErr      error
	refsErr       error
}

func (m *mockStrategy) Kind() domain.ContentKind { return m.kind }

func (m *mockStrategy) Preprocess(_ context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error) {
	m.stages = append(m.stages, "preprocess")
	if m.preprocessErr != nil {
		return nil, m.preprocessErr
	}
	return &domain.ContentRecord{
		ContentType: m.kind,
		ContentID:   "content-1",
		UserID:      req.UserID,
		Text:        req.Text,
		Categories:  req.Categories,
	}, nil
}

func (m *mockStrategy) Validate(_ context.Context, _ *domain.ContentRecord) (*domain.ValidationResult, error) {
	m.stages = append(m.stages, "validate")
	if m.validation != nil {
		return m.validation, nil
	}
	return &domain.ValidationResult{IsValid: true}, nil
}

func (m *mockStrategy) Chunk(_ context.Context, _ *domain.ContentRecord) ([]domain.Chunk, error) {
	m.stages = append(m.stages, "chunk")
	if m.chunkErr != nil {
		return nil, m.chunkErr
	}
	return m.chunks, nil
}

func (m *mockStrategy) Embed(_ context.Context, _ []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	m.stages = append(m.stages, "embed")
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedded, nil
}

func (m *mockStrategy) Store(_ context.Context, _ []domain.EmbeddedChunk) (*domain.StorageResult, error) {
	m.stages = append(m.stages, "store")
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	if m.storeResult != nil {
		return m.storeResult, nil
	}
	return &domain.StorageResult{ContentID: "content-1", ChunkCount: len(m.embedded)}, nil
}

func (m *mockStrategy) ProcessReferences(_ context.Context, _ *domain.ContentRecord) error {
	m.stages = append(m.stages, "references")
	return m.refsErr
}

func (m *mockStrategy) LinkRelated(_ context.Context, _ *domain.ContentRecord) error {
	m.stages = append(m.stages, "link")
	return nil
}

// mockCategoryStore implements driven.CategoryStore for testing.
type mockCategoryStore struct {
	mu      sync.Mutex
	cats    map[string]*domain.Category // keyed by userID + "/" + name
	saveErr error
	getErr  error
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{cats: make(map[string]*domain.Category)}
}

func (m *mockCategoryStore) Get(_ context.Context, userID, name string) (*domain.Category, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, ok := m.cats[userID+"/"+name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cat
	return &cp, nil
}

func (m *mockCategoryStore) Save(_ context.Context, cat *domain.Category) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cat
	m.cats[cat.UserID+"/"+cat.Name] = &cp
	return nil
}

func (m *mockCategoryStore) List(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, cat := range m.cats {
		if cat.UserID == userID {
			out = append(out, *cat)
		}
	}
	return out, nil
}

func (m *mockCategoryStore) Close() error { return nil }
