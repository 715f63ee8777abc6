package strategies

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recall-cli/internal/chunker"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure NoteStrategy implements the interface.
var _ driven.IngestionStrategy = (*NoteStrategy)(nil)

// Note ingestion policy. Notes are shorter than documents, so the
// overlap is smaller and batches are smaller.
const (
	noteChunkSize = 1000
	noteOverlap   = 100
	noteBatchSize = 20
	noteMaxChars  = 50000
)

// NoteStrategy ingests user notes. Hashtags and @mentions are extracted
// into the note payload and keyword set so they carry structured signal
// into the embedding.
type NoteStrategy struct {
	base
}

// NewNoteStrategy creates the note ingestion strategy.
func NewNoteStrategy(deps Deps) *NoteStrategy {
	s := &NoteStrategy{
		base: newBase(deps, domain.KindNote,
			chunker.New(
				chunker.WithChunkSize(noteChunkSize),
				chunker.WithOverlap(noteOverlap),
			),
			noteBatchSize),
	}
	s.salient = noteSalient
	return s
}

// Kind returns the content kind this strategy handles.
func (s *NoteStrategy) Kind() domain.ContentKind { return domain.KindNote }

// Preprocess normalises the request and extracts hashtags and mentions.
func (s *NoteStrategy) Preprocess(ctx context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error) {
	rec, err := s.preprocess(ctx, req)
	if err != nil {
		return nil, err
	}

	hashtags := ExtractHashtags(rec.Text)
	mentions := ExtractMentions(rec.Text)

	if rec.Note == nil {
		rec.Note = &domain.NotePayload{}
	}
	if len(rec.Note.Hashtags) == 0 {
		rec.Note.Hashtags = hashtags
	}
	if len(rec.Note.Mentions) == 0 {
		rec.Note.Mentions = mentions
	}

	// Mentions and hashtags double as keywords.
	rec.Keywords = normaliseList(append(append(rec.Keywords, mentions...), hashtags...))

	return rec, nil
}

// Validate enforces the note length ceiling.
func (s *NoteStrategy) Validate(_ context.Context, rec *domain.ContentRecord) (*domain.ValidationResult, error) {
	var errs []string
	if rec.UserID == "" {
		errs = append(errs, "user id is required")
	}
	if rec.Text == "" {
		errs = append(errs, "note text must not be empty")
	}
	if len([]rune(rec.Text)) > noteMaxChars {
		errs = append(errs, fmt.Sprintf("note exceeds maximum length of %d characters", noteMaxChars))
	}
	return &domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

// Chunk splits the note on semantic boundaries.
func (s *NoteStrategy) Chunk(_ context.Context, rec *domain.ContentRecord) ([]domain.Chunk, error) {
	return s.chunk(rec), nil
}

// Embed generates one embedding per chunk.
func (s *NoteStrategy) Embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	return s.embed(ctx, chunks)
}

// Store writes chunks in batches of 20.
func (s *NoteStrategy) Store(ctx context.Context, chunks []domain.EmbeddedChunk) (*domain.StorageResult, error) {
	return s.store(ctx, chunks)
}

// ProcessReferences extracts and merges outbound references.
func (s *NoteStrategy) ProcessReferences(ctx context.Context, rec *domain.ContentRecord) error {
	return s.processReferences(ctx, rec)
}

// LinkRelated connects explicitly related content.
func (s *NoteStrategy) LinkRelated(ctx context.Context, rec *domain.ContentRecord) error {
	return s.linkRelated(ctx, rec)
}

// noteSalient injects hashtags and mentions into the searchable text.
func noteSalient(rec *domain.ContentRecord) []string {
	if rec.Note == nil {
		return nil
	}

	parts := make([]string, 0, len(rec.Note.Hashtags)+len(rec.Note.Mentions))
	parts = append(parts, rec.Note.Hashtags...)
	parts = append(parts, rec.Note.Mentions...)
	return parts
}
