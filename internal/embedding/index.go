package embedding

import (
	"fmt"
	"math"
	"sort"
)

// Normalize returns an L2-normalized copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Dot is the inner product of two equally sized vectors.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Hit is a single search result. Similarity is the cosine similarity in [-1, 1].
type Hit struct {
	ID         string
	Similarity float64
}

// FlatIndex is an exhaustive inner-product index over normalized vectors.
type FlatIndex struct {
	dim     int
	ids     []string
	vectors [][]float32
}

func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (x *FlatIndex) Len() int {
	return len(x.ids)
}

// Add normalizes v and stores it under id.
func (x *FlatIndex) Add(id string, v []float32) error {
	if len(v) != x.dim {
		return fmt.Errorf("vector %q has dimension %d, index expects %d", id, len(v), x.dim)
	}
	x.ids = append(x.ids, id)
	x.vectors = append(x.vectors, Normalize(v))
	return nil
}

// Search returns up to k entries ordered by descending similarity to query.
func (x *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), x.dim)
	}

	q := Normalize(query)
	hits := make([]Hit, 0, len(x.ids))
	for i, id := range x.ids {
		sim := Dot(q, x.vectors[i])
		// float32 rounding can push identical vectors slightly past 1.
		sim = math.Max(-1, math.Min(1, sim))
		hits = append(hits, Hit{ID: id, Similarity: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
