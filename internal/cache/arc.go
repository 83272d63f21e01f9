package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// NewARC returns a cache of at most size records. Records that are loaded
// repeatedly survive a scan of many records loaded once.
func NewARC(size int) (*ARC, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("new arc cache of %d: %w", size, err)
	}

	return &ARC{records: c}, nil
}

var _ Cache = (*ARC)(nil)

type ARC struct {
	records *lru.ARCCache

	hits   uint64
	misses uint64
}

// Get returns the cached record. The slice is shared with the cache and
// must not be modified.
func (c *ARC) Get(id string) ([]byte, bool) {
	v, ok := c.records.Get(id)
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	atomic.AddUint64(&c.hits, 1)
	return v.([]byte), true
}

func (c *ARC) Add(id string, raw []byte) {
	c.records.Add(id, append([]byte(nil), raw...))
}

func (c *ARC) Delete(id string) {
	c.records.Remove(id)
}

func (c *ARC) Purge() {
	c.records.Purge()
}

func (c *ARC) Len() int {
	return c.records.Len()
}

// Stats reports lookups since the cache was created.
func (c *ARC) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}
