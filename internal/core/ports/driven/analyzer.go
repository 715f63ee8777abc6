package driven

import "context"

// ContentAnalyzer infers advisory metadata from a text sample using a
// generative model. It is best-effort: callers substitute safe defaults
// (language "en", no topics) on failure rather than aborting ingestion.
type ContentAnalyzer interface {
	// Analyze returns the inferred language and topic keywords for a sample.
	Analyze(ctx context.Context, sample string) (*Analysis, error)

	// Close releases resources.
	Close() error
}

// Analysis is the content analyzer's output.
type Analysis struct {
	// Language is a 2-letter ISO 639-1 code.
	Language string

	// Topics holds 3-5 extracted topic keywords.
	Topics []string
}
