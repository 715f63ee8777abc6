// Package codec translates between the structured ContentRecord and the
// vector store's flat, string-valued metadata schema. The flattening is
// a versioned, lossless round-trip: lists are comma-joined, kind-specific
// payloads are JSON-encoded into a single field, and a decoder pairs
// every encoder. Nothing outside the vector store adapters sees the flat
// form.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// IndexVersion marks the metadata encoding; bump when the schema changes.
const IndexVersion = 1

// listSeparator joins list-valued fields.
const listSeparator = ","

// systemMetadata is bookkeeping the store keeps per record, opaque to
// the core model.
type systemMetadata struct {
	LastIndexed   string  `json:"lastIndexed"`
	IndexVersion  int     `json:"indexVersion"`
	VectorQuality float64 `json:"vectorQuality"`
}

// Flatten encodes a chunk's metadata into the store's flat schema.
func Flatten(chunk domain.EmbeddedChunk) (map[string]string, error) {
	rec := chunk.Metadata

	meta := map[string]string{
		"contentType":         string(rec.ContentType),
		"contentId":           rec.ContentID,
		"userId":              rec.UserID,
		"createdAt":           rec.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":           rec.UpdatedAt.UTC().Format(time.RFC3339),
		"version":             strconv.Itoa(rec.Version),
		"status":              string(rec.Status),
		"chunkIndex":          strconv.Itoa(rec.ChunkIndex),
		"totalChunks":         strconv.Itoa(rec.TotalChunks),
		"isFirstChunk":        strconv.FormatBool(rec.IsFirstChunk()),
		"access":              string(rec.Access),
		"sharedWith":          joinList(rec.SharedWith),
		"categories":          joinList(rec.Categories),
		"primaryCategory":     rec.PrimaryCategory(),
		"secondaryCategories": joinList(rec.SecondaryCategories()),
		"tags":                joinList(rec.Tags),
		"language":            rec.Language,
		"source":              rec.Source,
		"title":               rec.Title,
		"text":                rec.Text,
		"summary":             rec.Summary,
		"searchableText":      rec.SearchableText,
		"keywords":            joinList(rec.Keywords),
		"relatedIds":          joinList(rec.RelatedIDs),
		"references":          EncodeReferences(rec.References),
	}

	if err := flattenPayload(meta, &rec); err != nil {
		return nil, err
	}

	system, err := json.Marshal(systemMetadata{
		LastIndexed:   time.Now().UTC().Format(time.RFC3339),
		IndexVersion:  IndexVersion,
		VectorQuality: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("encode system metadata: %w", err)
	}
	meta["_system"] = string(system)

	return meta, nil
}

// Unflatten decodes the flat schema back into a structured chunk.
func Unflatten(id string, vector []float32, meta map[string]string) (domain.EmbeddedChunk, error) {
	rec := domain.ContentRecord{
		ContentType:    domain.ContentKind(meta["contentType"]),
		ContentID:      meta["contentId"],
		UserID:         meta["userId"],
		Status:         domain.ContentStatus(meta["status"]),
		Access:         domain.AccessLevel(meta["access"]),
		SharedWith:     splitList(meta["sharedWith"]),
		Categories:     splitList(meta["categories"]),
		Tags:           splitList(meta["tags"]),
		Language:       meta["language"],
		Source:         meta["source"],
		Title:          meta["title"],
		Text:           meta["text"],
		Summary:        meta["summary"],
		SearchableText: meta["searchableText"],
		Keywords:       splitList(meta["keywords"]),
		RelatedIDs:     splitList(meta["relatedIds"]),
		References:     splitReferences(meta["references"]),
	}

	var err error
	if rec.CreatedAt, err = parseTime(meta["createdAt"]); err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("decode createdAt: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(meta["updatedAt"]); err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("decode updatedAt: %w", err)
	}
	if rec.Version, err = parseInt(meta["version"]); err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("decode version: %w", err)
	}
	if rec.ChunkIndex, err = parseInt(meta["chunkIndex"]); err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("decode chunkIndex: %w", err)
	}
	if rec.TotalChunks, err = parseInt(meta["totalChunks"]); err != nil {
		return domain.EmbeddedChunk{}, fmt.Errorf("decode totalChunks: %w", err)
	}

	if err := unflattenPayload(meta, &rec); err != nil {
		return domain.EmbeddedChunk{}, err
	}

	return domain.EmbeddedChunk{ID: id, Vector: vector, Metadata: rec}, nil
}

// flattenPayload JSON-encodes the kind-specific payload into its field.
func flattenPayload(meta map[string]string, rec *domain.ContentRecord) error {
	encode := func(key string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", key, err)
		}
		meta[key] = string(data)
		return nil
	}

	switch {
	case rec.Document != nil:
		return encode("document", rec.Document)
	case rec.Note != nil:
		return encode("note", rec.Note)
	case rec.Activity != nil:
		return encode("activity", rec.Activity)
	}
	return nil
}

// unflattenPayload decodes the kind-specific payload field.
func unflattenPayload(meta map[string]string, rec *domain.ContentRecord) error {
	if raw, ok := meta["document"]; ok && raw != "" {
		rec.Document = &domain.DocumentPayload{}
		if err := json.Unmarshal([]byte(raw), rec.Document); err != nil {
			return fmt.Errorf("decode document payload: %w", err)
		}
	}
	if raw, ok := meta["note"]; ok && raw != "" {
		rec.Note = &domain.NotePayload{}
		if err := json.Unmarshal([]byte(raw), rec.Note); err != nil {
			return fmt.Errorf("decode note payload: %w", err)
		}
	}
	if raw, ok := meta["activity"]; ok && raw != "" {
		rec.Activity = &domain.ActivityPayload{}
		if err := json.Unmarshal([]byte(raw), rec.Activity); err != nil {
			return fmt.Errorf("decode activity payload: %w", err)
		}
	}
	return nil
}

func joinList(items []string) string {
	return strings.Join(items, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

// EncodeReferences encodes references as "type:id" pairs, comma-joined.
// Reference ids may themselves contain colons (URLs), so decoding splits
// on the first colon only.
func EncodeReferences(refs []domain.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = string(r.Type) + ":" + r.ID
	}
	return strings.Join(parts, listSeparator)
}

func splitReferences(s string) []domain.Reference {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	refs := make([]domain.Reference, 0, len(parts))
	for _, p := range parts {
		typ, id, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		refs = append(refs, domain.Reference{Type: domain.ReferenceType(typ), ID: id})
	}
	return refs
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
