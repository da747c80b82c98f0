package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-matcher/internal/embedding"
)

// ErrModelUnavailable is returned when the embedding model cannot be loaded or
// fails while encoding. Callers decide whether to continue keyword-only.
var ErrModelUnavailable = embedding.ErrModelUnavailable

// SemanticScorer compares two texts through a shared embedding model.
type SemanticScorer struct {
	model *embedding.Lazy
}

func NewSemanticScorer(model *embedding.Lazy) *SemanticScorer {
	return &SemanticScorer{model: model}
}

// Score maps the cosine similarity of the two texts from [-1, 1] onto [0, 1].
func (s *SemanticScorer) Score(ctx context.Context, resume, job string) (float64, error) {
	if s == nil || s.model == nil {
		return 0, fmt.Errorf("%w: no embedding model configured", ErrModelUnavailable)
	}

	model, err := s.model.Get(ctx)
	if err != nil {
		return 0, err
	}

	jobVec, err := embed(ctx, model, job)
	if err != nil {
		return 0, err
	}
	resumeVec, err := embed(ctx, model, resume)
	if err != nil {
		return 0, err
	}

	index := embedding.NewFlatIndex(model.Dimension())
	if err := index.Add("job", jobVec); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	hits, err := index.Search(resumeVec, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	if len(hits) == 0 {
		return 0, errors.New("similarity index returned no candidates")
	}

	return clamp01((hits[0].Similarity + 1) / 2), nil
}

func embed(ctx context.Context, model embedding.Embedder, text string) ([]float32, error) {
	vec, err := model.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, model.Name(), err)
	}
	return vec, nil
}
