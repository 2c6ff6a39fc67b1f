// Package assets fetches, decodes and memoizes the images a poster draws:
// the event logo, the hero backdrop and the attendee photo.
package assets

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Image is a decoded image owned by a Cache and shared by every render that
// references the same URL.
type Image struct {
	image.Image
	URL    string
	Format string
}

// Stats are the cache's lifetime counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Failures int64
}

// Cache maps exact URL strings to decoded images. Entries live as long as
// the cache: there is no TTL, no eviction and no size bound.
//
// Concurrent loads of the same uncached URL each fetch independently and the
// last one to finish owns the slot.
type Cache struct {
	fetcher Fetcher
	logger  *zap.Logger
	maxDim  int
	loads   metric.Int64Counter

	mu      sync.RWMutex
	entries map[string]*Image

	hits, misses, failures atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithFetcher replaces the default scheme-dispatching fetcher.
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMeter records load outcomes on meter instead of the global provider.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) {
		if m != nil {
			c.loads = newLoadCounter(m)
		}
	}
}

// MaxDimension sets the longest side kept for cached images; 0 disables
// downscaling.
func MaxDimension(n int) Option {
	return func(c *Cache) { c.maxDim = n }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		fetcher: NewSchemeFetcher(nil, ""),
		logger:  zap.NewNop(),
		maxDim:  DefaultMaxDimension,
		entries: make(map[string]*Image),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loads == nil {
		c.loads = newLoadCounter(otel.Meter("github.com/xob0t/GoPoster/pkg/assets"))
	}
	return c
}

func newLoadCounter(m metric.Meter) metric.Int64Counter {
	counter, err := m.Int64Counter("gopostr.assets.loads",
		metric.WithDescription("Image loads by outcome"))
	if err != nil {
		otel.Handle(err)
	}
	return counter
}

// Load returns the image for url, fetching and decoding it on a miss.
// An empty url returns nil without touching the network. Fetch and decode
// failures are logged and also return nil; they never propagate.
func (c *Cache) Load(ctx context.Context, url string) *Image {
	if url == "" {
		return nil
	}
	if img := c.Peek(url); img != nil {
		c.hits.Add(1)
		c.record(ctx, "hit")
		return img
	}
	c.misses.Add(1)
	c.record(ctx, "miss")

	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		c.fail(ctx, url, "fetch", err)
		return nil
	}
	decoded, format, err := Decode(data, c.maxDim)
	if err != nil {
		c.fail(ctx, url, "decode", err)
		return nil
	}

	img := &Image{Image: decoded, URL: url, Format: format}
	c.mu.Lock()
	c.entries[url] = img
	c.mu.Unlock()

	c.logger.Debug("image cached",
		zap.String("url", redact(url)),
		zap.String("format", format),
		zap.Int("width", decoded.Bounds().Dx()),
		zap.Int("height", decoded.Bounds().Dy()),
		zap.Duration("took", time.Since(start)))
	return img
}

// LoadMany loads every url concurrently. The result preserves input order;
// a failed or empty url leaves nil at its index.
func (c *Cache) LoadMany(ctx context.Context, urls []string) []*Image {
	out := make([]*Image, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = c.Load(ctx, u)
		}()
	}
	wg.Wait()
	return out
}

// Peek returns the cached image for url without fetching.
func (c *Cache) Peek(url string) *Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[url]
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
	}
}

func (c *Cache) fail(ctx context.Context, url, stage string, err error) {
	c.failures.Add(1)
	c.record(ctx, "failure")
	c.logger.Warn("image load failed, layer will be omitted",
		zap.String("url", redact(url)),
		zap.String("stage", stage),
		zap.Error(err))
}

func (c *Cache) record(ctx context.Context, result string) {
	if c.loads == nil {
		return
	}
	c.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// redact keeps data URLs out of logs.
func redact(url string) string {
	const keep = 32
	if len(url) > 5 && url[:5] == "data:" && len(url) > keep {
		return url[:keep] + "..."
	}
	return url
}
