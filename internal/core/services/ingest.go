package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
	"github.com/custodia-labs/recall-cli/internal/logger"
)

// Ensure ContentOrchestrator implements the interface.
var _ driving.ContentIngestor = (*ContentOrchestrator)(nil)

// ContentOrchestrator runs the ingestion pipeline. It dispatches to the
// kind-specific strategy and drives the stages in a fixed order:
// preprocess, validate, chunk, embed, store, then reference processing.
// Async runs are tracked in memory and polled by processing ID.
type ContentOrchestrator struct {
	registry   driven.StrategyRegistry
	categories *CategoryService

	mu       sync.RWMutex
	statuses map[string]*domain.ProcessingStatus
}

// NewContentOrchestrator creates a new orchestrator.
// The categories service is optional (can be nil).
func NewContentOrchestrator(registry driven.StrategyRegistry, categories *CategoryService) *ContentOrchestrator {
	return &ContentOrchestrator{
		registry:   registry,
		categories: categories,
		statuses:   make(map[string]*domain.ProcessingStatus),
	}
}

// Process ingests synchronously and returns the storage result.
func (o *ContentOrchestrator) Process(ctx context.Context, req *domain.IngestRequest) (*domain.StorageResult, error) {
	logger.Section("Content Ingestion")
	logger.Debug("Kind: %s, user: %s", req.ContentType, req.UserID)

	strategy, err := o.registry.Strategy(req.ContentType)
	if err != nil {
		return nil, err
	}

	rec, err := strategy.Preprocess(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	logger.Debug("Preprocessed: contentID=%s, language=%s", rec.ContentID, rec.Language)

	validation, err := strategy.Validate(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if !validation.IsValid {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(validation.Errors, "; "))
	}

	chunks, err := strategy.Chunk(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	logger.Debug("Chunks: %d", len(chunks))

	embedded, err := strategy.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	result, err := strategy.Store(ctx, embedded)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	logger.Info("Stored %d chunks for %s", result.ChunkCount, result.ContentID)

	// Reference processing runs after a successful store and never
	// fails the ingestion.
	if err := strategy.ProcessReferences(ctx, rec); err != nil {
		logger.Warn("Reference processing failed for %s: %v", rec.ContentID, err)
	}
	if err := strategy.LinkRelated(ctx, rec); err != nil {
		logger.Warn("Related-content linking failed for %s: %v", rec.ContentID, err)
	}

	o.recordCategoryUsage(ctx, req.UserID, rec.Categories)

	return result, nil
}

// StartAsync begins ingestion in the background and returns a processing ID.
func (o *ContentOrchestrator) StartAsync(ctx context.Context, req *domain.IngestRequest) (string, error) {
	// Fail fast on unknown kinds so callers get the error synchronously.
	if _, err := o.registry.Strategy(req.ContentType); err != nil {
		return "", err
	}

	processingID := uuid.NewString()
	now := time.Now().UTC()

	o.mu.Lock()
	o.statuses[processingID] = &domain.ProcessingStatus{
		ProcessingID: processingID,
		State:        domain.ProcessingPending,
		StartedAt:    now,
	}
	o.mu.Unlock()

	// The pipeline outlives the caller's context; only its values carry over.
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		o.setState(processingID, func(st *domain.ProcessingStatus) {
			st.State = domain.ProcessingRunning
		})

		result, err := o.Process(bgCtx, req)

		o.setState(processingID, func(st *domain.ProcessingStatus) {
			st.FinishedAt = time.Now().UTC()
			if err != nil {
				st.State = domain.ProcessingFailed
				st.Error = err.Error()
				return
			}
			st.State = domain.ProcessingCompleted
			st.ContentID = result.ContentID
			st.Result = result
		})
	}()

	logger.Debug("Async ingestion started: %s", processingID)
	return processingID, nil
}

// Status returns the state of an async ingestion.
func (o *ContentOrchestrator) Status(processingID string) (*domain.ProcessingStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st, ok := o.statuses[processingID]
	if !ok {
		return nil, fmt.Errorf("%w: processing id %s", domain.ErrNotFound, processingID)
	}

	cp := *st
	return &cp, nil
}

// setState mutates one status under the write lock.
func (o *ContentOrchestrator) setState(processingID string, mutate func(*domain.ProcessingStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.statuses[processingID]; ok {
		mutate(st)
	}
}

// recordCategoryUsage bumps usage counters. Best-effort: a category
// store failure never fails an ingestion that already stored chunks.
func (o *ContentOrchestrator) recordCategoryUsage(ctx context.Context, userID string, categories []string) {
	if o.categories == nil || len(categories) == 0 {
		return
	}
	if err := o.categories.RecordUsage(ctx, userID, categories); err != nil {
		logger.Warn("Category usage recording failed: %v", err)
	}
}
