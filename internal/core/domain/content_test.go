package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentKind_Valid(t *testing.T) {
	tests := []struct {
		kind  ContentKind
		valid bool
	}{
		{KindDocument, true},
		{KindNote, true},
		{KindActivity, true},
		{ContentKind("image"), false},
		{ContentKind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.kind.Valid())
		})
	}
}

func TestContentRecord_PrimaryCategory(t *testing.T) {
	r := &ContentRecord{Categories: []string{"work", "meetings", "planning"}}
	assert.Equal(t, "work", r.PrimaryCategory())
	assert.Equal(t, []string{"meetings", "planning"}, r.SecondaryCategories())

	empty := &ContentRecord{}
	assert.Equal(t, "", empty.PrimaryCategory())
	assert.Nil(t, empty.SecondaryCategories())

	single := &ContentRecord{Categories: []string{"personal"}}
	assert.Equal(t, "personal", single.PrimaryCategory())
	assert.Nil(t, single.SecondaryCategories())
}

func TestContentRecord_IsFirstChunk(t *testing.T) {
	first := &ContentRecord{ChunkIndex: 0, TotalChunks: 3}
	assert.True(t, first.IsFirstChunk())

	later := &ContentRecord{ChunkIndex: 2, TotalChunks: 3}
	assert.False(t, later.IsFirstChunk())
}

func TestMergeReferences(t *testing.T) {
	existing := []Reference{
		{Type: ReferenceUser, ID: "alice"},
		{Type: ReferenceLink, ID: "http://x"},
	}
	extra := []Reference{
		{Type: ReferenceLink, ID: "http://x"}, // duplicate
		{Type: ReferenceGoal, ID: "goal-1"},
	}

	merged := MergeReferences(existing, extra)

	assert.Len(t, merged, 3)
	// Existing order preserved, new entries appended.
	assert.Equal(t, Reference{Type: ReferenceUser, ID: "alice"}, merged[0])
	assert.Equal(t, Reference{Type: ReferenceLink, ID: "http://x"}, merged[1])
	assert.Equal(t, Reference{Type: ReferenceGoal, ID: "goal-1"}, merged[2])
}

func TestMergeReferences_Empty(t *testing.T) {
	assert.Empty(t, MergeReferences(nil, nil))

	refs := []Reference{{Type: ReferenceUser, ID: "bob"}}
	assert.Equal(t, refs, MergeReferences(nil, refs))
	assert.Equal(t, refs, MergeReferences(refs, nil))
}

func TestSummarise(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short note", Summarise("  short note  "))
	})

	t.Run("long text truncated with ellipsis", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		summary := Summarise(long)

		assert.LessOrEqual(t, len([]rune(summary)), SummaryMaxLength)
		assert.True(t, strings.HasSuffix(summary, "..."))
	})

	t.Run("truncation respects rune boundaries", func(t *testing.T) {
		long := strings.Repeat("日本語テキスト", 50)
		summary := Summarise(long)

		assert.LessOrEqual(t, len([]rune(summary)), SummaryMaxLength)
		assert.True(t, strings.HasSuffix(summary, "..."))
	})
}
