package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	t.Parallel()
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	c := New(45*time.Second, 100, clock)

	c.Set("k", "v")
	if got := c.Get("k"); got != "v" {
		t.Fatalf("Get = %v, want v", got)
	}

	now = now.Add(44 * time.Second)
	if got := c.Get("k"); got != "v" {
		t.Fatalf("entry expired too early")
	}

	now = now.Add(2 * time.Second)
	if got := c.Get("k"); got != nil {
		t.Fatalf("entry should have expired, got %v", got)
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 100, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate()
	if c.Get("a") != nil || c.Get("b") != nil {
		t.Fatalf("Invalidate left entries behind")
	}
}

func TestTTLCacheDisabled(t *testing.T) {
	t.Parallel()
	c := New(0, 100, nil)
	c.Set("k", "v")
	if got := c.Get("k"); got != nil {
		t.Fatalf("disabled cache returned %v", got)
	}
}

func TestTTLCacheOverflowTrim(t *testing.T) {
	t.Parallel()
	c := New(time.Minute, 10, nil)
	for i := 0; i < 30; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	if n > 10 {
		t.Fatalf("cache holds %d entries, want <= 10", n)
	}
}
