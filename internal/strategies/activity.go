package strategies

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recall-cli/internal/chunker"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure ActivityStrategy implements the interface.
var _ driven.IngestionStrategy = (*ActivityStrategy)(nil)

// Activity ingestion policy. Activities are short structured summaries,
// never split, and stored in small batches.
const (
	activityBatchSize = 5
	activityMaxChars  = 5000
)

// ActivityStrategy ingests logged activities. The payload is a short
// structured summary, so every activity is exactly one chunk.
type ActivityStrategy struct {
	base
}

// NewActivityStrategy creates the activity ingestion strategy.
func NewActivityStrategy(deps Deps) *ActivityStrategy {
	s := &ActivityStrategy{
		base: newBase(deps, domain.KindActivity, chunker.New(), activityBatchSize),
	}
	s.salient = activitySalient
	return s
}

// Kind returns the content kind this strategy handles.
func (s *ActivityStrategy) Kind() domain.ContentKind { return domain.KindActivity }

// Preprocess normalises the request into an activity record.
func (s *ActivityStrategy) Preprocess(ctx context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error) {
	rec, err := s.preprocess(ctx, req)
	if err != nil {
		return nil, err
	}

	if rec.Activity == nil {
		rec.Activity = &domain.ActivityPayload{}
	}
	return rec, nil
}

// Validate enforces the activity description ceiling.
func (s *ActivityStrategy) Validate(_ context.Context, rec *domain.ContentRecord) (*domain.ValidationResult, error) {
	var errs []string
	if rec.UserID == "" {
		errs = append(errs, "user id is required")
	}
	if rec.Text == "" {
		errs = append(errs, "activity description must not be empty")
	}
	if len([]rune(rec.Text)) > activityMaxChars {
		errs = append(errs, fmt.Sprintf("activity description exceeds maximum length of %d characters", activityMaxChars))
	}
	return &domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

// Chunk always produces exactly one chunk.
func (s *ActivityStrategy) Chunk(_ context.Context, rec *domain.ContentRecord) ([]domain.Chunk, error) {
	return s.singleChunk(rec), nil
}

// Embed generates the single activity embedding.
func (s *ActivityStrategy) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	return s.embed(ctx, chunks)
}

// Store writes chunks in batches of 5.
func (s *ActivityStrategy) Store(ctx context.Context, chunks []domain.EmbeddedChunk) (*domain.StorageResult, error) {
	return s.store(ctx, chunks)
}

// ProcessReferences extracts and merges outbound references.
func (s *ActivityStrategy) ProcessReferences(ctx context.Context, rec *domain.ContentRecord) error {
	return s.processReferences(ctx, rec)
}

// LinkRelated connects explicitly related content.
func (s *ActivityStrategy) LinkRelated(ctx context.Context, rec *domain.ContentRecord) error {
	return s.linkRelated(ctx, rec)
}

// activitySalient injects the activity type and location into the
// searchable text.
func activitySalient(rec *domain.ContentRecord) []string {
	if rec.Activity == nil {
		return nil
	}

	var parts []string
	if rec.Activity.ActivityType != "" {
		parts = append(parts, rec.Activity.ActivityType)
	}
	if rec.Activity.Location != "" {
		parts = append(parts, rec.Activity.Location)
	}
	return parts
}
