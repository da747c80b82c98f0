package matching

import (
	"fmt"
	"math"
)

const weightTolerance = 1e-9

// Weights is the convex combination applied to the keyword and semantic scores.
type Weights struct {
	Keyword  float64 `json:"keyword" mapstructure:"keyword" validate:"gte=0,lte=1"`
	Semantic float64 `json:"semantic" mapstructure:"semantic" validate:"gte=0,lte=1"`
}

// DefaultWeights favours the semantic signal to tolerate vocabulary mismatch.
func DefaultWeights() Weights {
	return Weights{Keyword: 0.4, Semantic: 0.6}
}

// Validate checks that both weights are non-negative and sum to one.
func (w Weights) Validate() error {
	if w.Keyword < 0 || w.Semantic < 0 {
		return fmt.Errorf("weights must be non-negative, got keyword=%v semantic=%v", w.Keyword, w.Semantic)
	}
	if sum := w.Keyword + w.Semantic; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// Combine returns w.Keyword*keyword + w.Semantic*semantic.
func Combine(keyword, semantic float64, w Weights) float64 {
	return w.Keyword*keyword + w.Semantic*semantic
}
