// Package textproc provides text cleaning shared by the ingestion
// strategies: UTF-8 repair, line ending normalisation, control character
// stripping, and whitespace collapsing.
package textproc

import (
	"strings"
	"unicode"
)

// Normalise cleans raw text for ingestion:
//   - invalid UTF-8 sequences are dropped
//   - Windows and old-Mac line endings become "\n"
//   - control characters other than newline and tab are removed
//   - runs of three or more newlines collapse to a paragraph break
//   - trailing whitespace is trimmed from every line
func Normalise(text string) string {
	text = strings.ToValidUTF8(text, "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' {
			sb.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		sb.WriteRune(r)
	}
	text = sb.String()

	text = trimLineTrailing(text)
	text = collapseBlankLines(text)

	return strings.TrimSpace(text)
}

// CollapseWhitespace replaces every run of whitespace with a single
// space. Used for searchable text where layout carries no meaning.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// trimLineTrailing removes trailing spaces and tabs from each line.
func trimLineTrailing(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// collapseBlankLines reduces runs of blank lines to a single blank line.
func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
