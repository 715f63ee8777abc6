package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

func sampleRecord() domain.ContentRecord {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return domain.ContentRecord{
		ContentType:    domain.KindNote,
		ContentID:      "note-user-1-abc",
		UserID:         "user-1",
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Hour),
		Version:        2,
		Status:         domain.StatusActive,
		ChunkIndex:     0,
		TotalChunks:    3,
		Access:         domain.AccessShared,
		SharedWith:     []string{"user-2", "user-3"},
		Categories:     []string{"work", "meetings", "planning"},
		Tags:           []string{"q3", "roadmap"},
		Language:       "en",
		Source:         "cli",
		Title:          "Planning notes",
		Text:           "Discussed the Q3 roadmap.",
		Summary:        "Discussed the Q3 roadmap.",
		SearchableText: "Planning notes work q3 roadmap Discussed the Q3 roadmap.",
		Keywords:       []string{"roadmap", "planning"},
		RelatedIDs:     []string{"doc-7"},
		References: []domain.Reference{
			{Type: domain.ReferenceUser, ID: "alice"},
			{Type: domain.ReferenceLink, ID: "http://x"},
		},
	}
}

func TestFlatten_WireSchema(t *testing.T) {
	rec := sampleRecord()
	chunk := domain.EmbeddedChunk{
		ID:       "note-user-1-abc_chunk_0",
		Vector:   []float32{0.1, 0.2},
		Metadata: rec,
	}

	meta, err := Flatten(chunk)
	require.NoError(t, err)

	assert.Equal(t, "note", meta["contentType"])
	assert.Equal(t, "note-user-1-abc", meta["contentId"])
	assert.Equal(t, "user-1", meta["userId"])
	assert.Equal(t, "2025-03-14T09:26:53Z", meta["createdAt"])
	assert.Equal(t, "2025-03-14T10:26:53Z", meta["updatedAt"])
	assert.Equal(t, "2", meta["version"])
	assert.Equal(t, "0", meta["chunkIndex"])
	assert.Equal(t, "3", meta["totalChunks"])
	assert.Equal(t, "true", meta["isFirstChunk"])
	assert.Equal(t, "user-2,user-3", meta["sharedWith"])
	assert.Equal(t, "work,meetings,planning", meta["categories"])
	assert.Equal(t, "work", meta["primaryCategory"])
	assert.Equal(t, "meetings,planning", meta["secondaryCategories"])
	assert.Equal(t, "q3,roadmap", meta["tags"])
	assert.Equal(t, "roadmap,planning", meta["keywords"])
	assert.Equal(t, "doc-7", meta["relatedIds"])
	assert.Equal(t, "user:alice,link:http://x", meta["references"])

	// System bookkeeping is valid JSON with the current index version.
	var system map[string]any
	require.NoError(t, json.Unmarshal([]byte(meta["_system"]), &system))
	assert.Equal(t, float64(IndexVersion), system["indexVersion"])
	assert.NotEmpty(t, system["lastIndexed"])
}

func TestRoundTrip_NotePayload(t *testing.T) {
	rec := sampleRecord()
	rec.Note = &domain.NotePayload{
		Hashtags:     []string{"q3"},
		Mentions:     []string{"alice"},
		GoalID:       "goal-1",
		ParentNoteID: "note-0",
		Pinned:       true,
	}
	chunk := domain.EmbeddedChunk{ID: "note-user-1-abc_chunk_0", Vector: []float32{0.5}, Metadata: rec}

	meta, err := Flatten(chunk)
	require.NoError(t, err)

	decoded, err := Unflatten(chunk.ID, chunk.Vector, meta)
	require.NoError(t, err)

	assert.Equal(t, chunk.ID, decoded.ID)
	assert.Equal(t, chunk.Vector, decoded.Vector)
	assert.Equal(t, rec, decoded.Metadata)
}

func TestRoundTrip_DocumentPayload(t *testing.T) {
	rec := sampleRecord()
	rec.ContentType = domain.KindDocument
	rec.Document = &domain.DocumentPayload{
		FileName:  "report.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 123456,
		PageCount: 12,
		Author:    "Alice",
	}
	chunk := domain.EmbeddedChunk{ID: "doc-1-0", Vector: []float32{1}, Metadata: rec}

	meta, err := Flatten(chunk)
	require.NoError(t, err)

	decoded, err := Unflatten(chunk.ID, chunk.Vector, meta)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded.Metadata)
}

func TestRoundTrip_ActivityPayload(t *testing.T) {
	rec := sampleRecord()
	rec.ContentType = domain.KindActivity
	rec.Activity = &domain.ActivityPayload{
		ActivityType:    "run",
		Location:        "riverside park",
		DurationMinutes: 45,
		Participants:    []string{"bob"},
		Mood:            "energised",
	}
	chunk := domain.EmbeddedChunk{ID: "act-1-0", Vector: []float32{1}, Metadata: rec}

	meta, err := Flatten(chunk)
	require.NoError(t, err)

	decoded, err := Unflatten(chunk.ID, chunk.Vector, meta)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded.Metadata)
}

func TestRoundTrip_EmptyLists(t *testing.T) {
	rec := domain.ContentRecord{
		ContentType: domain.KindNote,
		ContentID:   "note-1",
		UserID:      "user-1",
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Version:     1,
		Status:      domain.StatusActive,
		TotalChunks: 1,
		Access:      domain.AccessPersonal,
		Categories:  []string{"general"},
		Text:        "x",
	}
	chunk := domain.EmbeddedChunk{ID: "note-1_chunk_0", Metadata: rec}

	meta, err := Flatten(chunk)
	require.NoError(t, err)

	decoded, err := Unflatten(chunk.ID, nil, meta)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded.Metadata)
	assert.Nil(t, decoded.Metadata.Tags)
	assert.Nil(t, decoded.Metadata.References)
}

func TestUnflatten_ReferenceWithColonInID(t *testing.T) {
	meta := map[string]string{
		"references": "link:https://example.com:8080/page",
	}

	decoded, err := Unflatten("id", nil, meta)

	require.NoError(t, err)
	require.Len(t, decoded.Metadata.References, 1)
	assert.Equal(t, domain.ReferenceLink, decoded.Metadata.References[0].Type)
	assert.Equal(t, "https://example.com:8080/page", decoded.Metadata.References[0].ID)
}

func TestUnflatten_BadNumbers(t *testing.T) {
	meta := map[string]string{"version": "not-a-number"}

	_, err := Unflatten("id", nil, meta)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}
