package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// mockRegistry implements driven.StrategyRegistry for testing.
type mockRegistry struct {
	strategies map[domain.ContentKind]driven.IngestionStrategy
}

func (m *mockRegistry) Strategy(kind domain.ContentKind) (driven.IngestionStrategy, error) {
	s, ok := m.strategies[kind]
	if !ok {
		return nil, domain.ErrUnsupportedContentType
	}
	return s, nil
}

func (m *mockRegistry) Kinds() []domain.ContentKind {
	kinds := make([]domain.ContentKind, 0, len(m.strategies))
	for k := range m.strategies {
		kinds = append(kinds, k)
	}
	return kinds
}

func registryWith(s *mockStrategy) *mockRegistry {
	return &mockRegistry{strategies: map[domain.ContentKind]driven.IngestionStrategy{s.kind: s}}
}

func noteRequest() *domain.IngestRequest {
	return &domain.IngestRequest{
		ContentType: domain.KindNote,
		UserID:      "user-1",
		Text:        "a quick note",
		Categories:  []string{"work"},
	}
}

func TestContentOrchestrator_Process_RunsStagesInOrder(t *testing.T) {
	strategy := &mockStrategy{
		kind:     domain.KindNote,
		chunks:   []domain.Chunk{{Text: "a quick note"}},
		embedded: []domain.EmbeddedChunk{{ID: "content-1_chunk_0"}},
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	result, err := orch.Process(context.Background(), noteRequest())

	require.NoError(t, err)
	assert.Equal(t, "content-1", result.ContentID)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t,
		[]string{"preprocess", "validate", "chunk", "embed", "store", "references", "link"},
		strategy.stages)
}

func TestContentOrchestrator_Process_UnsupportedKind(t *testing.T) {
	orch := NewContentOrchestrator(&mockRegistry{}, nil)

	_, err := orch.Process(context.Background(), &domain.IngestRequest{
		ContentType: domain.ContentKind("image"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedContentType)
}

func TestContentOrchestrator_Process_ValidationFailureStopsPipeline(t *testing.T) {
	strategy := &mockStrategy{
		kind: domain.KindNote,
		validation: &domain.ValidationResult{
			IsValid: false,
			Errors:  []string{"text exceeds maximum length"},
		},
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	_, err := orch.Process(context.Background(), noteRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "text exceeds maximum length")
	// Nothing after validate runs.
	assert.Equal(t, []string{"preprocess", "validate"}, strategy.stages)
}

func TestContentOrchestrator_Process_StoreFailure(t *testing.T) {
	strategy := &mockStrategy{
		kind:     domain.KindNote,
		chunks:   []domain.Chunk{{Text: "a quick note"}},
		storeErr: errors.New("vector store unreachable"),
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	_, err := orch.Process(context.Background(), noteRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store:")
	assert.NotContains(t, strategy.stages, "references")
}

func TestContentOrchestrator_Process_ReferenceFailureIsBestEffort(t *testing.T) {
	strategy := &mockStrategy{
		kind:    domain.KindNote,
		chunks:  []domain.Chunk{{Text: "a quick note"}},
		refsErr: errors.New("reference extraction broke"),
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	result, err := orch.Process(context.Background(), noteRequest())

	// Stored content survives a reference processing failure.
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestContentOrchestrator_Process_RecordsCategoryUsage(t *testing.T) {
	strategy := &mockStrategy{
		kind:   domain.KindNote,
		chunks: []domain.Chunk{{Text: "a quick note"}},
	}
	catStore := newMockCategoryStore()
	orch := NewContentOrchestrator(registryWith(strategy), NewCategoryService(catStore))

	_, err := orch.Process(context.Background(), noteRequest())

	require.NoError(t, err)
	cat, err := catStore.Get(context.Background(), "user-1", "work")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.UsageCount)
}

func TestContentOrchestrator_Process_CategoryFailureIsBestEffort(t *testing.T) {
	strategy := &mockStrategy{
		kind:   domain.KindNote,
		chunks: []domain.Chunk{{Text: "a quick note"}},
	}
	catStore := newMockCategoryStore()
	catStore.getErr = errors.New("db locked")
	orch := NewContentOrchestrator(registryWith(strategy), NewCategoryService(catStore))

	_, err := orch.Process(context.Background(), noteRequest())

	assert.NoError(t, err)
}

func TestContentOrchestrator_StartAsync_CompletesAndIsPollable(t *testing.T) {
	strategy := &mockStrategy{
		kind:     domain.KindNote,
		chunks:   []domain.Chunk{{Text: "a quick note"}},
		embedded: []domain.EmbeddedChunk{{ID: "content-1_chunk_0"}},
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	id, err := orch.StartAsync(context.Background(), noteRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Poll until the background run finishes.
	deadline := time.Now().Add(5 * time.Second)
	var st *domain.ProcessingStatus
	for time.Now().Before(deadline) {
		st, err = orch.Status(id)
		require.NoError(t, err)
		if st.State == domain.ProcessingCompleted || st.State == domain.ProcessingFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NotNil(t, st)
	assert.Equal(t, domain.ProcessingCompleted, st.State)
	assert.Equal(t, "content-1", st.ContentID)
	require.NotNil(t, st.Result)
	assert.Equal(t, 1, st.Result.ChunkCount)
	assert.False(t, st.FinishedAt.IsZero())
}

func TestContentOrchestrator_StartAsync_FailureIsRecorded(t *testing.T) {
	strategy := &mockStrategy{
		kind:          domain.KindNote,
		preprocessErr: errors.New("analyzer exploded"),
	}
	orch := NewContentOrchestrator(registryWith(strategy), nil)

	id, err := orch.StartAsync(context.Background(), noteRequest())
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	var st *domain.ProcessingStatus
	for time.Now().Before(deadline) {
		st, err = orch.Status(id)
		require.NoError(t, err)
		if st.State == domain.ProcessingFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NotNil(t, st)
	assert.Equal(t, domain.ProcessingFailed, st.State)
	assert.Contains(t, st.Error, "analyzer exploded")
}

func TestContentOrchestrator_StartAsync_UnsupportedKindFailsFast(t *testing.T) {
	orch := NewContentOrchestrator(&mockRegistry{}, nil)

	_, err := orch.StartAsync(context.Background(), &domain.IngestRequest{
		ContentType: domain.ContentKind("video"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedContentType)
}

func TestContentOrchestrator_Status_Unknown(t *testing.T) {
	orch := NewContentOrchestrator(&mockRegistry{}, nil)

	_, err := orch.Status("no-such-id")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
