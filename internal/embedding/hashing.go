package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	// HashingModelName identifies the local embedder in configuration.
	HashingModelName = "hashing"
	// DefaultHashingDimension matches the width of common MiniLM sentence encoders.
	DefaultHashingDimension = 384

	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.25
)

// Hashing is a deterministic bag-of-features sentence embedder. Word unigrams,
// word bigrams and character trigrams are hashed into a fixed number of signed
// buckets, with sublinear term frequency.
type Hashing struct {
	dim int
}

// NewHashing returns a hashing embedder. Non-positive dimensions fall back to the default.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	return &Hashing{dim: dim}
}

// LoadHashing adapts NewHashing to a Loader.
func LoadHashing(dim int) Loader {
	return func(context.Context) (Embedder, error) {
		return NewHashing(dim), nil
	}
}

func (h *Hashing) Name() string { return HashingModelName }

func (h *Hashing) Dimension() int { return h.dim }

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]float64)
	words := wordsOf(text)
	for i, w := range words {
		counts["w:"+w] += unigramWeight
		if i > 0 {
			counts["b:"+words[i-1]+" "+w] += bigramWeight
		}
		padded := []rune("#" + w + "#")
		for j := 0; j+3 <= len(padded); j++ {
			counts["c:"+string(padded[j:j+3])] += trigramWeight
		}
	}

	vec := make([]float32, h.dim)
	for feature, tf := range counts {
		sum := fnv.New64a()
		_, _ = sum.Write([]byte(feature))
		v := sum.Sum64()

		bucket := int(v % uint64(h.dim))
		weight := 1 + math.Log(1+tf)
		if v&(1<<63) != 0 {
			weight = -weight
		}
		vec[bucket] += float32(weight)
	}

	return Normalize(vec), nil
}

func wordsOf(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
