// Package parsecache memoizes parsed revision units by source content.
package parsecache

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"mdiff/internal/unit"
)

type entry struct {
	unit *unit.RevisionUnit
	ok   bool
}

// Cache wraps a Parser with an LRU keyed by the source digest. Units are
// immutable, so a cached unit may be shared across workers.
type Cache struct {
	parser unit.Parser
	units  *lru.Cache[xxh3.Uint128, entry]

	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps parser. size <= 0 disables caching and returns the parser's own
// results directly.
func New(parser unit.Parser, size int) (*Cache, error) {
	c := &Cache{parser: parser}
	if size <= 0 {
		return c, nil
	}
	units, err := lru.New[xxh3.Uint128, entry](size)
	if err != nil {
		return nil, err
	}
	c.units = units
	return c, nil
}

// Parse implements unit.Parser.
func (c *Cache) Parse(ctx context.Context, src []byte) (*unit.RevisionUnit, bool) {
	if c.units == nil {
		return c.parser.Parse(ctx, src)
	}

	key := xxh3.Hash128(src)
	if e, found := c.units.Get(key); found {
		c.hits.Add(1)
		return e.unit, e.ok
	}
	c.misses.Add(1)

	u, ok := c.parser.Parse(ctx, src)
	// a cancelled parse is not a property of the source
	if ctx.Err() == nil {
		c.units.Add(key, entry{unit: u, ok: ok})
	}
	return u, ok
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	if c.units == nil {
		return 0
	}
	return c.units.Len()
}
