package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	lazy := NewLazy("hashing-test", func(context.Context) (Embedder, error) {
		loads.Add(1)
		return NewHashing(32), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			model, err := lazy.Get(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, model)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
}

func TestLazyRemembersFailure(t *testing.T) {
	var loads atomic.Int32
	cause := errors.New("weights missing")
	lazy := NewLazy("broken", func(context.Context) (Embedder, error) {
		loads.Add(1)
		return nil, cause
	})

	for i := 0; i < 3; i++ {
		model, err := lazy.Get(context.Background())
		require.Error(t, err)
		assert.Nil(t, model)
		assert.ErrorIs(t, err, ErrModelUnavailable)
		assert.ErrorIs(t, err, cause)
	}

	assert.Equal(t, int32(1), loads.Load())
}

func TestLazyWithoutLoader(t *testing.T) {
	_, err := NewLazy("nil", nil).Get(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestSharedReturnsSameHandle(t *testing.T) {
	first := Shared("shared-test", LoadHashing(16))
	second := Shared("shared-test", func(context.Context) (Embedder, error) {
		return nil, errors.New("must not be used")
	})

	assert.Same(t, first, second)

	model, err := second.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, model.Dimension())
}

func TestHashingIdenticalTextsAreIdentical(t *testing.T) {
	h := NewHashing(0)
	require.Equal(t, DefaultHashingDimension, h.Dimension())

	text := "Senior Go engineer building Kubernetes operators and PostgreSQL tooling"
	a, err := h.Embed(context.Background(), text)
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), text)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, Dot(a, b), 1e-5)
}

func TestHashingRelatedTextsScoreHigherThanUnrelated(t *testing.T) {
	h := NewHashing(256)
	ctx := context.Background()

	job, _ := h.Embed(ctx, "python developer with sql and aws experience")
	near, _ := h.Embed(ctx, "experienced python developer, strong sql, some aws")
	far, _ := h.Embed(ctx, "pastry chef specialising in french desserts")

	assert.Greater(t, Dot(job, near), Dot(job, far))
}

func TestHashingHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashing(8).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalize(t *testing.T) {
	out := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, out[0], 1e-6)
	assert.InDelta(t, 0.8, out[1], 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestFlatIndexSearch(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add("east", []float32{1, 0}))
	require.NoError(t, idx.Add("north", []float32{0, 5}))
	require.NoError(t, idx.Add("west", []float32{-2, 0}))
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search([]float32{10, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "north", hits[1].ID)
	assert.InDelta(t, 0.0, hits[1].Similarity, 1e-9)

	all, err := idx.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, all[2].Similarity, 1e-9)
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)
	assert.Error(t, idx.Add("short", []float32{1}))

	_, err := idx.Search([]float32{1, 2}, 1)
	assert.Error(t, err)
}
