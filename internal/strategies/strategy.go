package strategies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall-cli/internal/chunker"
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
	"github.com/custodia-labs/recall-cli/internal/logger"
	"github.com/custodia-labs/recall-cli/internal/textproc"
)

// analyzerSampleSize bounds how much text is sent to the analyzer.
const analyzerSampleSize = 2000

// interBatchDelay spaces out vector store batch writes to respect
// external rate limits.
const interBatchDelay = time.Second

// Deps are the external services every strategy needs.
// Analyzer is optional (can be nil); Embedder and Store are not.
type Deps struct {
	Analyzer driven.ContentAnalyzer
	Embedder driven.EmbeddingService
	Store    driven.VectorStore
}

// base carries the shared pipeline machinery. Each kind-specific
// strategy embeds it and supplies its own policy knobs.
type base struct {
	deps      Deps
	kind      domain.ContentKind
	chunker   *chunker.Chunker
	batchSize int
	limiter   *rate.Limiter

	// salient returns the kind-specific fields injected into the
	// searchable text ahead of the chunk body.
	salient func(rec *domain.ContentRecord) []string
}

func newBase(deps Deps, kind domain.ContentKind, c *chunker.Chunker, batchSize int) base {
	return base{
		deps:      deps,
		kind:      kind,
		chunker:   c,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(interBatchDelay), 1),
	}
}

// preprocess normalises the request into a base content record.
func (b *base) preprocess(ctx context.Context, req *domain.IngestRequest) (*domain.ContentRecord, error) {
	text := textproc.Normalise(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", domain.ErrValidation)
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	contentID := req.ContentID
	if contentID == "" {
		contentID = fmt.Sprintf("%s-%s-%s", b.kind, req.UserID, uuid.NewString())
	}

	language, topics := b.analyze(ctx, text)

	categories := normaliseList(req.Categories)
	if len(categories) == 0 {
		categories = []string{"general"}
	}

	access := req.Access
	if access == "" {
		access = domain.AccessPersonal
	}

	now := time.Now().UTC()

	return &domain.ContentRecord{
		ContentType:    b.kind,
		ContentID:      contentID,
		UserID:         req.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
		Status:         domain.StatusActive,
		TotalChunks:    1,
		Access:         access,
		SharedWith:     normaliseList(req.SharedWith),
		Categories:     categories,
		Tags:           normaliseList(req.Tags),
		Keywords:       topics,
		Title:          strings.TrimSpace(req.Title),
		Source:         req.Source,
		Language:       language,
		Text:           text,
		Summary:        domain.Summarise(text),
		SearchableText: textproc.CollapseWhitespace(text),
		RelatedIDs:     normaliseList(req.RelatedIDs),
		Document:       req.Document,
		Note:           req.Note,
		Activity:       req.Activity,
	}, nil
}

// analyze runs the content analyzer on a bounded sample. Analyzer
// failures degrade to defaults; they never abort ingestion.
func (b *base) analyze(ctx context.Context, text string) (language string, topics []string) {
	language = "en"

	if b.deps.Analyzer == nil {
		return language, nil
	}

	sample := text
	if runes := []rune(sample); len(runes) > analyzerSampleSize {
		sample = string(runes[:analyzerSampleSize])
	}

	analysis, err := b.deps.Analyzer.Analyze(ctx, sample)
	if err != nil {
		logger.Warn("Content analysis failed: %v (using defaults)", err)
		return language, nil
	}

	if analysis.Language != "" {
		language = analysis.Language
	}
	return language, analysis.Topics
}

// chunk splits the record text and stamps per-chunk metadata.
func (b *base) chunk(rec *domain.ContentRecord) []domain.Chunk {
	parts := b.chunker.Split(rec.Text)

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		meta := *rec
		meta.Text = part
		meta.ChunkIndex = i
		meta.TotalChunks = len(parts)
		chunks[i] = domain.Chunk{Text: part, Metadata: meta}
	}
	return chunks
}

// singleChunk wraps the whole record as one chunk, for kinds that
// never split.
func (b *base) singleChunk(rec *domain.ContentRecord) []domain.Chunk {
	meta := *rec
	meta.ChunkIndex = 0
	meta.TotalChunks = 1
	return []domain.Chunk{{Text: rec.Text, Metadata: meta}}
}

// embed builds each chunk's searchable text and embeds it, one call per
// chunk, in chunk order.
func (b *base) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	embedded := make([]domain.EmbeddedChunk, 0, len(chunks))

	for i := range chunks {
		meta := chunks[i].Metadata
		searchable := b.searchableText(&meta, chunks[i].Text)
		meta.SearchableText = searchable

		vector, err := b.deps.Embedder.Embed(ctx, searchable)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", domain.ErrEmbedding, meta.ChunkIndex, err)
		}

		embedded = append(embedded, domain.EmbeddedChunk{
			ID:       domain.ChunkID(b.kind, meta.ContentID, meta.ChunkIndex),
			Vector:   vector,
			Metadata: meta,
		})
	}

	return embedded, nil
}

// searchableText concatenates structured signal with the chunk body.
// This synthesized string is what gets embedded, never displayed.
func (b *base) searchableText(rec *domain.ContentRecord, body string) string {
	parts := make([]string, 0, 8)
	if rec.Title != "" {
		parts = append(parts, rec.Title)
	}
	if c := rec.PrimaryCategory(); c != "" {
		parts = append(parts, c)
	}
	parts = append(parts, rec.Tags...)
	if b.salient != nil {
		parts = append(parts, b.salient(rec)...)
	}
	parts = append(parts, body)

	return textproc.CollapseWhitespace(strings.Join(parts, " "))
}

// store writes embedded chunks in fixed-size batches, in order, with an
// inter-batch delay. A batch failure aborts the remaining batches.
func (b *base) store(ctx context.Context, chunks []domain.EmbeddedChunk) (*domain.StorageResult, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to store", domain.ErrValidation)
	}

	for start := 0; start < len(chunks); start += b.batchSize {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}

		end := start + b.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := b.deps.Store.Upsert(ctx, chunks[start:end]); err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", domain.ErrStore, start, end-1, err)
		}
		logger.Debug("Stored batch %d-%d of %d chunks", start, end-1, len(chunks))
	}

	return &domain.StorageResult{
		ContentID:  chunks[0].Metadata.ContentID,
		ChunkCount: len(chunks),
		Metadata:   chunks[0].Metadata,
	}, nil
}

// processReferences extracts outbound references from the record text
// and merges them (set union) with whatever the record already carries.
func (b *base) processReferences(ctx context.Context, rec *domain.ContentRecord) error {
	extracted := ExtractReferences(rec.Text)
	extracted = append(extracted, b.payloadReferences(rec)...)
	if len(extracted) == 0 && len(rec.References) == 0 {
		return nil
	}

	merged := domain.MergeReferences(rec.References, extracted)
	if err := b.deps.Store.UpdateReferences(ctx, rec.ContentID, merged); err != nil {
		return fmt.Errorf("update references for %s: %w", rec.ContentID, err)
	}

	rec.References = merged
	return nil
}

// payloadReferences pulls explicit goal/parent ids from the kind payload.
func (b *base) payloadReferences(rec *domain.ContentRecord) []domain.Reference {
	if rec.Note == nil {
		return nil
	}

	var refs []domain.Reference
	if rec.Note.GoalID != "" {
		refs = append(refs, domain.Reference{Type: domain.ReferenceGoal, ID: rec.Note.GoalID})
	}
	if rec.Note.ParentNoteID != "" {
		refs = append(refs, domain.Reference{Type: domain.ReferenceParent, ID: rec.Note.ParentNoteID})
	}
	return refs
}

// linkRelated connects the record to explicitly related content IDs by
// writing the updated reference list back to every stored chunk.
func (b *base) linkRelated(ctx context.Context, rec *domain.ContentRecord) error {
	if len(rec.RelatedIDs) == 0 {
		return nil
	}

	extra := make([]domain.Reference, 0, len(rec.RelatedIDs))
	for _, id := range rec.RelatedIDs {
		extra = append(extra, domain.Reference{Type: domain.ReferenceRelated, ID: id})
	}

	merged := domain.MergeReferences(rec.References, extra)
	if err := b.deps.Store.UpdateReferences(ctx, rec.ContentID, merged); err != nil {
		return fmt.Errorf("link related content for %s: %w", rec.ContentID, err)
	}

	rec.References = merged
	return nil
}

// normaliseList trims entries and drops empties, preserving order and
// removing duplicates.
func normaliseList(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
