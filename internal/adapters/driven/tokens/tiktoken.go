// Package tokens provides token estimators for context budgeting. The
// tiktoken estimator counts exactly with the cl100k_base encoding; the
// heuristic estimator approximates from word counts when the encoding
// cannot be loaded.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Offline loader avoids fetching encoding files at runtime.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

var _ driven.TokenEstimator = (*TiktokenEstimator)(nil)

// TiktokenEstimator counts tokens with the cl100k_base encoding.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// Singleton: the encoding tables are expensive to load.
var (
	tiktokenInstance *TiktokenEstimator
	tiktokenOnce     sync.Once
	tiktokenErr      error
)

// NewTiktokenEstimator returns the shared tiktoken estimator, loading
// the encoding on first use.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	tiktokenOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tiktokenErr = err
			return
		}
		tiktokenInstance = &TiktokenEstimator{encoding: enc}
	})

	if tiktokenErr != nil {
		return nil, tiktokenErr
	}
	return tiktokenInstance, nil
}

// EstimateTokens returns the exact token count for the text.
func (e *TiktokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}

// Method returns the estimation method identifier.
func (e *TiktokenEstimator) Method() string {
	return "tiktoken"
}
