package tokens

import (
	"strings"

	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// tokensPerWord approximates subword splitting for English text.
const tokensPerWord = 1.3

var _ driven.TokenEstimator = (*HeuristicEstimator)(nil)

// HeuristicEstimator approximates token counts from word counts. Used
// as a fallback when the exact encoding is unavailable.
type HeuristicEstimator struct{}

// NewHeuristicEstimator creates a word-count based estimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// EstimateTokens approximates the token count for the text.
func (e *HeuristicEstimator) EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(float64(words) * tokensPerWord)
}

// Method returns the estimation method identifier.
func (e *HeuristicEstimator) Method() string {
	return "heuristic"
}
