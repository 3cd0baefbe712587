package ratecache_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"VentaCommSaas/internal/ratecache"
)

func TestCacheEmpty(t *testing.T) {
	c := ratecache.New(0)
	_, ok := c.Get(time.Now())
	assert.False(t, ok)
}

func TestCacheFreshThenStale(t *testing.T) {
	c := ratecache.New(10 * time.Minute)
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	c.Set(decimal.RequireFromString("36.42"), "bcv", now)

	got, ok := c.Get(now.Add(5 * time.Minute))
	assert.True(t, ok)
	assert.False(t, got.Stale)
	assert.Equal(t, "bcv", got.Source)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("36.42")))
	assert.Equal(t, now, got.FetchedAt)

	got, ok = c.Get(now.Add(11 * time.Minute))
	assert.True(t, ok, "stale entries are still served")
	assert.True(t, got.Stale)
}

func TestCacheSetReplaces(t *testing.T) {
	c := ratecache.New(10 * time.Minute)
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	c.Set(decimal.RequireFromString("36.42"), "bcv", now)
	c.Set(decimal.RequireFromString("36.55"), "mirror-2", now.Add(time.Hour))

	got, ok := c.Get(now.Add(time.Hour))
	assert.True(t, ok)
	assert.False(t, got.Stale)
	assert.Equal(t, "mirror-2", got.Source)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("36.55")))
}
