package domain

// Default context selection limits applied when a request leaves them unset.
const (
	DefaultMaxChunks = 10
	DefaultMaxTokens = 4000
)

// ContextRequest configures context selection for a query.
type ContextRequest struct {
	// Query is the question the selected context should support.
	Query string

	// MaxChunks caps the number of returned chunks (default: 10).
	MaxChunks int

	// MinRelevance drops chunks scoring below this cosine similarity.
	MinRelevance float64

	// MaxTokens caps the estimated token total of the returned context
	// (default: 4000).
	MaxTokens int
}
