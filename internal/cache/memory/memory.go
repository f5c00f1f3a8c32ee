// Package memory is the in-process chunk cache tier: an LRU bounded by the
// total number of payload bytes rather than entry count.
package memory

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cci-tools/odpstore/internal/core/observability"
)

const tierName = "memory"

type Cache struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, []byte]
	maxBytes int64
	curBytes int64
}

// New creates a cache holding at most maxBytes of chunk data. Single payloads
// larger than the budget are rejected silently on Set.
func New(maxBytes int64) (*Cache, error) {
	if maxBytes <= 0 {
		return nil, errors.New("memory cache needs a positive byte budget")
	}
	c := &Cache{maxBytes: maxBytes}
	// entry count is unbounded in practice; eviction is driven by bytes
	l, err := lru.NewWithEvict[string, []byte](1<<30, func(_ string, val []byte) {
		c.curBytes -= int64(len(val))
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.lru.Get(key)
	if ok {
		observability.IncChunkCacheHit(tierName)
	} else {
		observability.IncChunkCacheMiss(tierName)
	}
	return val, ok, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte) error {
	if int64(len(val)) > c.maxBytes {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(key); ok {
		c.curBytes -= int64(len(old))
	}
	c.lru.Add(key, val)
	c.curBytes += int64(len(val))
	for c.curBytes > c.maxBytes {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	return nil
}

// Bytes reports the current payload volume. Used by tests.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	return nil
}
