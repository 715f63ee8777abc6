// Package chunker provides boundary-aware text chunking with overlap.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// Chunker splits text into overlapping chunks, preferring to break at
// natural boundaries (paragraphs, lines, sentences, words) rather than
// mid-word. Sizes are measured in runes so multi-byte text never splits
// inside a character.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress
	if c.overlap >= c.chunkSize/2 {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split divides text into chunks. Every rune of the input appears in at
// least one chunk, and each chunk after the first starts with overlap
// from its predecessor. Empty or whitespace-only text produces no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)

	if total <= c.chunkSize {
		return []string{text}
	}

	estimated := total/(c.chunkSize-c.overlap) + 1
	chunks := make([]string, 0, estimated)

	start := 0
	for start < total {
		end := start + c.chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:total]))
			break
		}

		end = c.boundary(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))

		// Step back by the overlap, but always move forward.
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// boundary searches backwards from end for a natural break point. The
// break is never placed before the midpoint of the chunk, so pathological
// text (no whitespace at all) still makes progress with a hard cut.
func (c *Chunker) boundary(runes []rune, start, end int) int {
	floor := start + c.chunkSize/2

	// Paragraph break
	if i := lastParagraphBreak(runes, floor, end); i > 0 {
		return i
	}
	// Line break
	if i := lastIndexFunc(runes, floor, end, func(r rune) bool { return r == '\n' }); i > 0 {
		return i + 1
	}
	// Sentence end
	if i := lastIndexFunc(runes, floor, end, isSentenceEnd); i > 0 {
		return i + 1
	}
	// Word boundary
	if i := lastIndexFunc(runes, floor, end, unicode.IsSpace); i > 0 {
		return i + 1
	}

	// Hard cut
	return end
}

// lastIndexFunc returns the highest index in [floor, end) whose rune
// satisfies match, or -1.
func lastIndexFunc(runes []rune, floor, end int, match func(rune) bool) int {
	for i := end - 1; i >= floor; i-- {
		if match(runes[i]) {
			return i
		}
	}
	return -1
}

// lastParagraphBreak returns the index just past the highest "\n\n"
// sequence in [floor, end), or -1.
func lastParagraphBreak(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
