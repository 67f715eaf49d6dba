package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 42, time.Minute)

	got, ok := c.Get("a")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected hit for zero-ttl entry")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Minute)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c NoopCache[string, int]
	c.Set("a", 1, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected noop cache to miss")
	}
}
