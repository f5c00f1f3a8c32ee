package redisstore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), mr.Addr(), ttl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetSetDel(t *testing.T) {
	c, _ := newTestClient(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing = %v, %v", ok, err)
	}
	if err := c.Set(ctx, "chunk:a", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "chunk:a")
	if err != nil || !ok || !bytes.Equal(val, []byte{1, 2, 3}) {
		t.Fatalf("Get = %v, %v, %v", val, ok, err)
	}
	if err := c.Del(ctx, "chunk:a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "chunk:a"); ok {
		t.Fatal("key survived Del")
	}
}

func TestEntriesCarryTTL(t *testing.T) {
	c, mr := newTestClient(t, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "chunk:a", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("chunk:a"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "chunk:a"); ok {
		t.Fatal("entry survived its TTL")
	}
}

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(context.Background(), "", time.Minute); err == nil {
		t.Fatal("expected error for empty address")
	}
}
