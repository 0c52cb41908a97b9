package temporal

import (
	"context"

	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/cache"
	"github.com/lu-w/stars-logic-mtcq/internal/convert"
)

// Source is a segment of recorded instants that can be assembled.
// Key must change whenever the instants do.
type Source interface {
	Key() string
	Instants(types convert.TypeSet) []Instant
}

// Cache remembers the store of the most recently assembled segment.
type Cache struct {
	cfg   Config
	entry *cache.Single[string, *Store]
}

// NewCache returns an empty cache that assembles with cfg.
func NewCache(cfg Config, opts ...cache.Option) *Cache {
	return &Cache{cfg: cfg, entry: cache.New[string, *Store](opts...)}
}

// GetOrAssemble returns the store for src, assembling it only when src is not
// the segment currently held. Assembly errors leave the cache empty.
func (c *Cache) GetOrAssemble(ctx context.Context, src Source) (*Store, error) {
	key := src.Key()
	return c.entry.GetOrCompute(key, func() (*Store, error) {
		c.cfg.logger().Info("assembling segment", zap.String("segment", key))
		return Assemble(ctx, c.cfg, src.Instants(c.cfg.Types))
	})
}

// Config returns the assembly configuration.
func (c *Cache) Config() Config { return c.cfg }

// Reset drops the held store.
func (c *Cache) Reset() { c.entry.Reset() }
