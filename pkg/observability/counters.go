package observability

import (
	"context"
	"sync"
	"time"
)

// ProviderStats holds the totals for one provider.
type ProviderStats struct {
	Live        int64 `json:"live"`
	Fallback    int64 `json:"fallback"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	CacheWrites int64 `json:"cache_writes"`
}

// Snapshot is a point-in-time copy of [Counters].
type Snapshot struct {
	Providers      map[string]ProviderStats `json:"providers"`
	Requests       int64                    `json:"upstream_requests"`
	RequestErrors  int64                    `json:"upstream_errors"`
	StatusCodes    map[int]int64            `json:"status_codes"`
	UpstreamMillis int64                    `json:"upstream_millis"`
}

// Counters keeps in-process totals for all hook categories.
// It implements [ProviderHooks], [CacheHooks] and [HTTPHooks].
type Counters struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{snap: Snapshot{
		Providers:   make(map[string]ProviderStats),
		StatusCodes: make(map[int]int64),
	}}
}

func (c *Counters) update(provider string, fn func(*ProviderStats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap.Providers[provider]
	fn(&s)
	c.snap.Providers[provider] = s
}

func (c *Counters) OnLive(_ context.Context, provider string, _ bool, _ time.Duration) {
	c.update(provider, func(s *ProviderStats) { s.Live++ })
}

func (c *Counters) OnFallback(_ context.Context, provider string, _ error) {
	c.update(provider, func(s *ProviderStats) { s.Fallback++ })
}

func (c *Counters) OnCacheHit(_ context.Context, provider string) {
	c.update(provider, func(s *ProviderStats) { s.CacheHits++ })
}

func (c *Counters) OnCacheMiss(_ context.Context, provider string) {
	c.update(provider, func(s *ProviderStats) { s.CacheMisses++ })
}

func (c *Counters) OnCacheSet(_ context.Context, provider string, _ int) {
	c.update(provider, func(s *ProviderStats) { s.CacheWrites++ })
}

func (c *Counters) OnRequest(context.Context, string, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Requests++
}

func (c *Counters) OnResponse(_ context.Context, _, _, _ string, statusCode int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.StatusCodes[statusCode]++
	c.snap.UpstreamMillis += duration.Milliseconds()
}

func (c *Counters) OnError(context.Context, string, string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.RequestErrors++
}

// Snapshot returns a copy of the current totals.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.snap
	out.Providers = make(map[string]ProviderStats, len(c.snap.Providers))
	for k, v := range c.snap.Providers {
		out.Providers[k] = v
	}
	out.StatusCodes = make(map[int]int64, len(c.snap.StatusCodes))
	for k, v := range c.snap.StatusCodes {
		out.StatusCodes[k] = v
	}
	return out
}

var _ Observer = (*Counters)(nil)
