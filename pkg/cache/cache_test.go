package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get(key) = %v, %v; want hit", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("Get(key) = %q, want %q", data, "value")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(WithClock(clock.Now))

	if err := c.Set(ctx, "key", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Fatal("entry should be fresh before its TTL")
	}

	// now == expiresAt is already stale
	clock.Advance(time.Minute)
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Fatal("entry should be stale at expiresAt")
	}
	if c.Len() != 0 {
		t.Errorf("stale entry should be evicted on read, Len() = %d", c.Len())
	}
}

func TestMemoryCacheNoExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(WithClock(clock.Now))

	_ = c.Set(ctx, "key", []byte("forever"), 0)
	clock.Advance(365 * 24 * time.Hour)
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Error("ttl <= 0 should never expire")
	}
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(WithClock(clock.Now))

	_ = c.Set(ctx, "key", []byte("old"), time.Hour)
	clock.Advance(50 * time.Minute)
	_ = c.Set(ctx, "key", []byte("new"), time.Hour)

	// The refreshed entry gets a fresh expiry.
	clock.Advance(30 * time.Minute)
	data, hit, _ := c.Get(ctx, "key")
	if !hit {
		t.Fatal("overwritten entry should use the new expiry")
	}
	if string(data) != "new" {
		t.Errorf("Get = %q, want %q", data, "new")
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	buf := []byte("abc")
	_ = c.Set(ctx, "key", buf, time.Hour)
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "key")
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", got)
	}
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "key")
	if string(again) != "abc" {
		t.Errorf("stored value changed through returned slice: %q", again)
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	values := [][]byte{[]byte("aaaa"), []byte("bbbb")}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "key", values[i%2], time.Hour)
		}(i)
		go func() {
			defer wg.Done()
			if data, hit, _ := c.Get(ctx, "key"); hit {
				if s := string(data); s != "aaaa" && s != "bbbb" {
					t.Errorf("observed partial write %q", s)
				}
			}
		}()
	}
	wg.Wait()
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, "key", []byte("v"), time.Hour)

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "provider:news:Acme", []byte(`[{"title":"x"}]`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "provider:news:Acme")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v; want hit", hit, err)
	}
	if string(data) != `[{"title":"x"}]` {
		t.Errorf("Get = %s", data)
	}

	if _, hit, _ := c.Get(ctx, "provider:news:acme"); hit {
		t.Error("keys differing only in case must be distinct")
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Errorf("Get after expiry = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), time.Hour)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared key should miss")
	}
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Fatalf("Get(empty) = %v, %v; want miss", hit, err)
	}

	_ = c.Set(ctx, "key", []byte("v1"), time.Hour)
	if err := c.Set(ctx, "key", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("Set (overwrite) error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "v2" {
		t.Errorf("Get = %q, %v, %v; want v2, true, nil", data, hit, err)
	}

	_ = c.Set(ctx, "short", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired row should miss")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted row should miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-redis-url"); err == nil {
		t.Error("NewRedisCache should reject an invalid URL")
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestSeed(t *testing.T) {
	if Seed("Acme Corporation") != Seed("Acme Corporation") {
		t.Error("Seed should be deterministic")
	}
	if Seed("Acme Corporation") == Seed("acme corporation") {
		t.Error("Seed should distinguish case")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.ProviderKey("news", "Acme Corporation"); got != "provider:news:Acme Corporation" {
		t.Errorf("ProviderKey unexpected: %s", got)
	}
	if k.ProviderKey("news", "Acme") == k.ProviderKey("news", " Acme") {
		t.Error("queries differing in whitespace should produce different keys")
	}
	if k.ProviderKey("news", "Acme") == k.ProviderKey("openai", "Acme") {
		t.Error("providers should not share keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "env:production:")

	if got := scoped.ProviderKey("builtwith", "acme.com"); got != "env:production:provider:builtwith:acme.com" {
		t.Errorf("ScopedKeyer ProviderKey unexpected: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ProviderKey("test", "key")
	if key != "prefix:provider:test:key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
