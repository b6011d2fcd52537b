package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "gas"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "gas", 42, time.Minute)
	got, ok := c.Get(ctx, "gas")
	if !ok || got != 42 {
		t.Errorf("Get = (%d, %v), want (42, true)", got, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set(ctx, "gas", 1, 10*time.Second)
	c.Set(ctx, "forever", 2, 0)

	now = now.Add(11 * time.Second)

	if _, ok := c.Get(ctx, "gas"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl should not expire")
	}

	c.evictExpired()
	if c.Len() != 1 {
		t.Errorf("Len after eviction = %d, want 1", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[int, string](time.Hour)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, 1, "a", 0)
	c.Delete(ctx, 1)
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("expected miss after Delete")
	}
	c.Close()
}
