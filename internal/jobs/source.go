package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source loads raw job rows.
type Source interface {
	Fetch(ctx context.Context) ([]Row, error)
}

// DefaultCacheTTL matches how often the scraper refreshes the table.
const DefaultCacheTTL = time.Hour

// CachedSource keeps the last fetch for a TTL. Concurrent misses share one
// upstream call. Errors other than ErrNoData are not cached.
type CachedSource struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	rows    []Row
	err     error
	expires time.Time
}

func NewCachedSource(source Source, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{source: source, ttl: ttl, logger: logger, now: time.Now}
}

func (c *CachedSource) Fetch(ctx context.Context) ([]Row, error) {
	c.mu.RLock()
	if c.now().Before(c.expires) {
		rows, err := c.rows, c.err
		c.mu.RUnlock()
		return rows, err
	}
	c.mu.RUnlock()

	// The shared fetch outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("rows", func() (any, error) {
		rows, err := c.source.Fetch(shared)
		// ErrNoData is cached like rows.
		if err != nil && !errors.Is(err, ErrNoData) {
			return nil, err
		}

		c.mu.Lock()
		c.rows, c.err, c.expires = rows, err, c.now().Add(c.ttl)
		c.mu.Unlock()

		c.logger.Debug("job rows cached", zap.Int("rows", len(rows)), zap.Duration("ttl", c.ttl))
		return rows, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Row), nil
	}
}

// Invalidate drops the cached rows.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	c.rows, c.err, c.expires = nil, nil, time.Time{}
	c.mu.Unlock()
}
