package response

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// charsPerToken is the fixed heuristic used for snapshot truncation:
// roughly four characters of text per token.
const charsPerToken = 4

// Estimator estimates how many tokens a string costs a downstream consumer.
type Estimator interface {
	Estimate(text string) int
}

// HeuristicEstimator estimates tokens as len(text)/4. Cheap, deterministic,
// and the estimator the truncation budget is defined against.
type HeuristicEstimator struct{}

// Estimate implements Estimator.
func (HeuristicEstimator) Estimate(text string) int {
	return len(text) / charsPerToken
}

// encodingEstimator counts tokens with a real BPE encoding.
type encodingEstimator struct {
	enc *tiktoken.Tiktoken
}

func (e *encodingEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

var (
	defaultEstimatorOnce sync.Once
	defaultEstimator     Estimator
)

// DefaultEstimator returns a cl100k_base token counter when the encoding is
// available, falling back to the character heuristic otherwise. Used by the
// pagination helper for its response-size budget.
func DefaultEstimator() Estimator {
	defaultEstimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			defaultEstimator = HeuristicEstimator{}
			return
		}
		defaultEstimator = &encodingEstimator{enc: enc}
	})
	return defaultEstimator
}
