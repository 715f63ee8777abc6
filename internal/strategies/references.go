package strategies

import (
	"regexp"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

var (
	// [label](http://target) markdown links; the target is the reference.
	markdownLinkRe = regexp.MustCompile(`\[[^\]]*\]\((https?://[^\s)]+)\)`)

	// @handle mentions; handles are word characters and dashes, with
	// interior dots allowed but not a trailing one.
	mentionRe = regexp.MustCompile(`(^|[^\w@])@([\w][\w-]*(?:\.[\w-]+)*)`)
)

// ExtractReferences pulls outbound references from raw text:
// markdown link targets and @mentions, in order of appearance,
// deduplicated.
func ExtractReferences(text string) []domain.Reference {
	var refs []domain.Reference

	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, domain.Reference{Type: domain.ReferenceUser, ID: m[2]})
	}
	for _, m := range markdownLinkRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, domain.Reference{Type: domain.ReferenceLink, ID: m[1]})
	}

	return domain.MergeReferences(nil, refs)
}

// ExtractMentions returns the @mention handles in the text.
func ExtractMentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[2]] {
			seen[m[2]] = true
			out = append(out, m[2])
		}
	}
	return out
}

// ExtractHashtags returns the #hashtag names in the text.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[2]] {
			seen[m[2]] = true
			out = append(out, m[2])
		}
	}
	return out
}

// #hashtag markers; same handle charset as mentions.
var hashtagRe = regexp.MustCompile(`(^|[^\w#])#([\w][\w-]*)`)
