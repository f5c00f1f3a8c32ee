package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/cci-tools/odpstore/internal/cache/memory"
	"github.com/cci-tools/odpstore/internal/cache/redisstore"
)

func newTiered(t *testing.T) (*Tiered, *memory.Cache, *redisstore.Client) {
	t.Helper()
	mem, err := memory.New(1 << 20)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	mr := miniredis.RunT(t)
	rc, err := redisstore.New(context.Background(), mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	tiered := NewTiered(mem, rc)
	t.Cleanup(func() { _ = tiered.Close() })
	return tiered, mem, rc
}

func TestTieredSetWritesBothTiers(t *testing.T) {
	tiered, mem, rc := newTiered(t)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := mem.Get(ctx, "k"); !ok {
		t.Fatal("fast tier missing entry")
	}
	if _, ok, _ := rc.Get(ctx, "k"); !ok {
		t.Fatal("slow tier missing entry")
	}
}

func TestTieredPromotesSlowTierHits(t *testing.T) {
	tiered, mem, rc := newTiered(t)
	ctx := context.Background()

	// entry only in the slow tier
	if err := rc.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	val, ok, err := tiered.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}
	if _, ok, _ := mem.Get(ctx, "k"); !ok {
		t.Fatal("hit was not promoted to the fast tier")
	}
}

func TestTieredMiss(t *testing.T) {
	tiered, _, _ := newTiered(t)
	if _, ok, err := tiered.Get(context.Background(), "absent"); err != nil || ok {
		t.Fatalf("Get absent = %v, %v", ok, err)
	}
}
