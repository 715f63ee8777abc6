package driven

// TokenEstimator approximates how many model tokens a text consumes.
// Estimates drive the retrieval token budget; they need to be cheap and
// roughly right, not exact.
type TokenEstimator interface {
	// EstimateTokens returns the approximate token count for text.
	EstimateTokens(text string) int

	// Method names the estimation approach, e.g. "heuristic" or "cl100k_base".
	Method() string
}
