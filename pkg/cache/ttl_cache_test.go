package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kalp9197/luxe-ecommerce-site/pkg/clock"
)

func TestTTLCache_ExpiresOnInjectedClock(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New[string, int](30*time.Second, 0, clk)
	defer c.Close()

	c.Set("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(29 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok, "entry should survive until the ttl elapses")

	clk.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry must not be served once the ttl has elapsed")
}

func TestTTLCache_SetRefreshesExpiry(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New[string, string](10*time.Second, 0, clk)
	defer c.Close()

	c.Set("k", "old")
	clk.Advance(8 * time.Second)
	c.Set("k", "new")
	clk.Advance(8 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestTTLCache_DeleteAndDeleteFunc(t *testing.T) {
	c := New[string, int](time.Minute, 0, nil)
	defer c.Close()

	c.Set("product:1", 1)
	c.Set("product:2", 2)
	c.Set("categories", 3)

	c.Delete("categories")
	_, ok := c.Get("categories")
	assert.False(t, ok)

	c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "product:") })
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_EvictExpired(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := New[int, int](time.Second, 0, clk)
	defer c.Close()

	c.Set(1, 1)
	c.Set(2, 2)
	clk.Advance(2 * time.Second)
	c.Set(3, 3)

	c.evictExpired()
	assert.Equal(t, 1, c.Len())

	c.Close()
	c.Close()
}
