// Package cache holds the single-entry result cache used to avoid
// re-assembling the same segment for consecutive queries.
package cache

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/logging"
)

// Option configures a Single.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *Metrics
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetricsSet attaches already registered metrics.
func WithMetricsSet(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Single caches at most one value. It is either Empty or Holding a key and
// its value; asking for another key replaces the entry.
//
// GetOrCompute runs under one mutex, so concurrent callers for the same key
// compute once and callers for different keys are serialised.
type Single[K comparable, V any] struct {
	mu      sync.Mutex
	holding bool
	key     K
	value   V

	logger  *zap.Logger
	metrics *Metrics
}

// New returns an empty cache.
func New[K comparable, V any](opts ...Option) *Single[K, V] {
	o := options{logger: logging.Get(logging.CategoryCache)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Single[K, V]{logger: o.logger, metrics: o.metrics}
}

// GetOrCompute returns the cached value when key matches the held entry.
// Otherwise the entry is dropped, compute runs, and its value is stored on
// success. When compute fails the cache stays empty and the error is
// returned unchanged.
func (c *Single[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.holding && c.key == key {
		c.metrics.hit()
		c.logger.Debug("cache hit", zap.Any("key", key))
		return c.value, nil
	}

	c.metrics.miss()
	if c.holding {
		c.metrics.evict()
		c.logger.Debug("evicting entry", zap.Any("key", c.key))
	}
	c.clearLocked()

	value, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.holding = true
	c.key = key
	c.value = value
	return value, nil
}

// Peek returns the held value for key without computing.
func (c *Single[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holding && c.key == key {
		return c.value, true
	}
	var zero V
	return zero, false
}

// Key returns the held key, if any.
func (c *Single[K, V]) Key() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key, c.holding
}

// Reset empties the cache.
func (c *Single[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holding {
		c.metrics.evict()
	}
	c.clearLocked()
}

func (c *Single[K, V]) clearLocked() {
	var (
		zeroK K
		zeroV V
	)
	c.holding = false
	c.key = zeroK
	c.value = zeroV
}
