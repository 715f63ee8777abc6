package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ContentKind identifies the kind of content being ingested.
// Each kind has its own ingestion strategy.
type ContentKind string

// Supported content kinds.
const (
	KindDocument ContentKind = "document"
	KindNote     ContentKind = "note"
	KindActivity ContentKind = "activity"
)

// Valid returns true if the kind is one of the supported content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindDocument, KindNote, KindActivity:
		return true
	}
	return false
}

// ContentStatus is the lifecycle state of a content record.
// Deletion is logical at this layer; physical removal is a store concern.
type ContentStatus string

// Content lifecycle states.
const (
	StatusActive   ContentStatus = "active"
	StatusArchived ContentStatus = "archived"
	StatusDeleted  ContentStatus = "deleted"
)

// AccessLevel controls who may retrieve a record.
type AccessLevel string

// Access levels.
const (
	AccessPublic   AccessLevel = "public"
	AccessPersonal AccessLevel = "personal"
	AccessShared   AccessLevel = "shared"
)

// SummaryMaxLength is the maximum length of a derived summary in characters.
const SummaryMaxLength = 200

// ContentRecord is the canonical representation of one unit of ingested
// content. Exactly one kind-specific payload is set, matching ContentType.
// All chunks derived from one logical input share a ContentID.
type ContentRecord struct {
	// ContentType tags which variant this record is.
	ContentType ContentKind

	// ContentID is globally unique and immutable once assigned.
	ContentID string

	// UserID is the owning user. Every record has exactly one.
	UserID string

	// CreatedAt and UpdatedAt are maintained by the pipeline.
	// UpdatedAt is never before CreatedAt.
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is >= 1 and non-decreasing per ContentID.
	Version int

	// Status is the lifecycle state.
	Status ContentStatus

	// ChunkIndex and TotalChunks locate this record among the chunks
	// produced from one input: 0 <= ChunkIndex < TotalChunks.
	ChunkIndex  int
	TotalChunks int

	// Access controls visibility. SharedWith is meaningful only when
	// Access is AccessShared.
	Access     AccessLevel
	SharedWith []string

	// Categories is ordered and non-empty after normalisation.
	// The first entry is the primary category.
	Categories []string

	// Tags and Keywords are free-form; either may be empty.
	Tags     []string
	Keywords []string

	// Title is the human-readable title.
	Title string

	// Source describes where the content came from (file path, app name).
	Source string

	// Language is a 2-letter code inferred by the content analyzer.
	Language string

	// Text is the normalised content. Summary is derived from it.
	// SearchableText is used only as embedding input, never displayed.
	Text           string
	Summary        string
	SearchableText string

	// RelatedIDs and References are outbound links to other content,
	// populated by the reference-linking stage after storage.
	RelatedIDs []string
	References []Reference

	// Kind-specific payload. Exactly one is non-nil.
	Document *DocumentPayload
	Note     *NotePayload
	Activity *ActivityPayload
}

// PrimaryCategory returns the first category, or empty if none.
func (r *ContentRecord) PrimaryCategory() string {
	if len(r.Categories) == 0 {
		return ""
	}
	return r.Categories[0]
}

// SecondaryCategories returns all categories after the primary.
func (r *ContentRecord) SecondaryCategories() []string {
	if len(r.Categories) < 2 {
		return nil
	}
	return r.Categories[1:]
}

// IsFirstChunk reports whether this record is the first chunk of its input.
func (r *ContentRecord) IsFirstChunk() bool {
	return r.ChunkIndex == 0
}

// DocumentPayload carries document-specific fields.
type DocumentPayload struct {
	FileName  string `json:"fileName,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
	PageCount int    `json:"pageCount,omitempty"`
	Author    string `json:"author,omitempty"`
}

// NotePayload carries note-specific fields.
type NotePayload struct {
	Hashtags     []string `json:"hashtags,omitempty"`
	Mentions     []string `json:"mentions,omitempty"`
	GoalID       string   `json:"goalId,omitempty"`
	ParentNoteID string   `json:"parentNoteId,omitempty"`
	Pinned       bool     `json:"pinned,omitempty"`
}

// ActivityPayload carries activity-specific fields.
type ActivityPayload struct {
	ActivityType    string   `json:"activityType,omitempty"`
	Location        string   `json:"location,omitempty"`
	DurationMinutes int      `json:"durationMinutes,omitempty"`
	Participants    []string `json:"participants,omitempty"`
	Mood            string   `json:"mood,omitempty"`
}

// ReferenceType classifies an outbound reference.
type ReferenceType string

// Reference types extracted from content text.
const (
	ReferenceUser    ReferenceType = "user"
	ReferenceLink    ReferenceType = "link"
	ReferenceGoal    ReferenceType = "goal"
	ReferenceParent  ReferenceType = "parent"
	ReferenceRelated ReferenceType = "related"
)

// Reference is an outbound link from a record to another entity.
type Reference struct {
	Type ReferenceType
	ID   string
}

// MergeReferences unions extra into existing, preserving order and
// dropping duplicates. The stored reference list is merged, never replaced.
func MergeReferences(existing, extra []Reference) []Reference {
	seen := make(map[Reference]bool, len(existing)+len(extra))
	merged := make([]Reference, 0, len(existing)+len(extra))
	for _, ref := range existing {
		if !seen[ref] {
			seen[ref] = true
			merged = append(merged, ref)
		}
	}
	for _, ref := range extra {
		if !seen[ref] {
			seen[ref] = true
			merged = append(merged, ref)
		}
	}
	return merged
}

// Chunk is a bounded segment of a record's text. Metadata is the parent
// envelope with ChunkIndex, TotalChunks and timestamps overridden per chunk.
type Chunk struct {
	Text     string
	Metadata ContentRecord
}

// EmbeddedChunk is a chunk with its embedding vector and a deterministic,
// stable ID derived from (ContentID, ChunkIndex). Re-ingesting the same
// content overwrites rather than duplicates.
type EmbeddedChunk struct {
	ID       string
	Vector   []float32
	Metadata ContentRecord
}

// ChunkID derives the deterministic vector record ID for one chunk.
// Notes historically use a "_chunk_" separator while documents and
// activities use a plain dash; both styles must be preserved so
// re-ingestion overwrites existing records instead of duplicating them.
func ChunkID(kind ContentKind, contentID string, chunkIndex int) string {
	if kind == KindNote {
		return fmt.Sprintf("%s_chunk_%d", contentID, chunkIndex)
	}
	return fmt.Sprintf("%s-%d", contentID, chunkIndex)
}

// ContextChunk is a retrieval-side candidate. Embedding is computed lazily
// when absent; RelevanceScore is set by the context optimizer.
type ContextChunk struct {
	Content        string
	Embedding      []float32
	RelevanceScore float64
}

// ValidationResult is the outcome of the validate stage.
// Validation never fails with an error; it always returns a result.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// StorageResult describes a completed ingestion run.
type StorageResult struct {
	ContentID  string
	ChunkCount int
	Metadata   ContentRecord
}

// Summarise derives a display summary from text, truncating on a rune
// boundary with an ellipsis when the text exceeds SummaryMaxLength.
func Summarise(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= SummaryMaxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:SummaryMaxLength-3])) + "..."
}
