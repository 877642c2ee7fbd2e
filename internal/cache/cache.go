package cache

import (
	"context"
	"time"

	"github.com/saadjs/points-cli/internal/cachekey"
	"github.com/saadjs/points-cli/internal/model"
	"github.com/saadjs/points-cli/internal/store"
	"go.uber.org/zap"
)

const MaxAge = 7 * 24 * time.Hour

type Recorder interface {
	CacheHit()
	CacheMiss()
	CacheSweep(removed int)
}

type noopRecorder struct{}

func (noopRecorder) CacheHit()      {}
func (noopRecorder) CacheMiss()     {}
func (noopRecorder) CacheSweep(int) {}

// Cache memoizes estimator responses by normalized text. Get and Put never
// return errors; storage failures degrade to a miss or a skipped write.
type Cache struct {
	entries  *store.Collection[model.CacheEntry]
	now      func() time.Time
	maxAge   time.Duration
	recorder Recorder
	logger   *zap.Logger
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		if r != nil {
			c.recorder = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

func New(entries *store.Collection[model.CacheEntry], opts ...Option) *Cache {
	c := &Cache{
		entries:  entries,
		now:      time.Now,
		maxAge:   MaxAge,
		recorder: noopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, text, locale string) (model.FoodResponse, bool) {
	key := cachekey.Normalize(text, locale)
	entry, ok, err := c.entries.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		c.recorder.CacheMiss()
		return model.FoodResponse{}, false
	}
	if !ok || c.expired(entry) {
		c.recorder.CacheMiss()
		return model.FoodResponse{}, false
	}
	c.recorder.CacheHit()
	return entry.Result, true
}

func (c *Cache) Put(ctx context.Context, text string, resp model.FoodResponse, locale string) {
	key := cachekey.Normalize(text, locale)
	entry := model.CacheEntry{Key: key, Result: resp, Timestamp: c.now().UnixMilli()}
	if err := c.entries.Put(ctx, key, entry); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Sweep deletes entries older than maxAge and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	recs, err := c.entries.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := c.now().UnixMilli() - maxAge.Milliseconds()
	removed := 0
	for _, r := range recs {
		if r.Value.Timestamp >= cutoff {
			continue
		}
		deleted, err := c.entries.Delete(ctx, r.Key)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	c.recorder.CacheSweep(removed)
	c.logger.Debug("cache swept", zap.Int("removed", removed), zap.Duration("max_age", maxAge))
	return removed, nil
}

type Entry struct {
	model.CacheEntry
	Age     time.Duration
	Expired bool
}

func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	recs, err := c.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, Entry{
			CacheEntry: r.Value,
			Age:        now.Sub(r.Value.WrittenAt()),
			Expired:    c.expired(r.Value),
		})
	}
	return out, nil
}

func (c *Cache) Purge(ctx context.Context) (int, error) {
	n, err := c.entries.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.entries.Clear(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Cache) expired(entry model.CacheEntry) bool {
	return c.now().UnixMilli()-entry.Timestamp > c.maxAge.Milliseconds()
}
