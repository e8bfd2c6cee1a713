package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

func NewLRU(size int) (*LRU, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}

	return &LRU{cache: c}, nil
}

var _ Cache = (*LRU)(nil)

type LRU struct {
	cache *lru.ARCCache
}

func (c *LRU) Get(key int64) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *LRU) Add(key int64, value interface{}) {
	c.cache.Add(key, value)
}

func (c *LRU) Keys() []int64 {
	raw := c.cache.Keys()
	keys := make([]int64, 0, len(raw))
	for _, k := range raw {
		if key, ok := k.(int64); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *LRU) Delete(key int64) {
	c.cache.Remove(key)
}
