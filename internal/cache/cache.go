// Package cache provides the chunk cache tiers: a byte-bounded in-memory LRU
// and an optional Redis store behind it.
package cache

import "context"

// ChunkCache stores raw chunk payloads under opaque string keys.
type ChunkCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// Tiered reads through a fast tier into a slow tier, promoting slow-tier hits.
type Tiered struct {
	fast ChunkCache
	slow ChunkCache
}

func NewTiered(fast, slow ChunkCache) *Tiered {
	return &Tiered{fast: fast, slow: slow}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, ok, err := t.fast.Get(ctx, key); err != nil || ok {
		return val, ok, err
	}
	val, ok, err := t.slow.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := t.fast.Set(ctx, key, val); err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, val []byte) error {
	if err := t.fast.Set(ctx, key, val); err != nil {
		return err
	}
	return t.slow.Set(ctx, key, val)
}

func (t *Tiered) Close() error {
	errFast := t.fast.Close()
	if err := t.slow.Close(); err != nil {
		return err
	}
	return errFast
}
