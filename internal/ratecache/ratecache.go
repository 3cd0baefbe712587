// Package ratecache holds the last BCV exchange rate fetched by the refresh
// job. Reports keep working off a stale rate when the mirrors are down; the
// Stale flag tells callers what they are getting.
package ratecache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTTL matches the refresh cadence. An entry older than the TTL is
// still served, flagged stale.
const DefaultTTL = 10 * time.Minute

type Entry struct {
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`
}

type Cache struct {
	mu    sync.Mutex
	entry Entry
	set   bool
	ttl   time.Duration
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl}
}

// Set stores a freshly fetched rate. now is injected so the refresh job and
// tests share one clock.
func (c *Cache) Set(rate decimal.Decimal, source string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = Entry{Rate: rate, Source: source, FetchedAt: now}
	c.set = true
}

// Get returns the stored entry with Stale computed against now. ok is false
// only before the first Set.
func (c *Cache) Get(now time.Time) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.set {
		return Entry{}, false
	}
	e := c.entry
	e.Stale = now.Sub(e.FetchedAt) > c.ttl
	return e, true
}
