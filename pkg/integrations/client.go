package integrations

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/dealprep/pkg/cache"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/proxy"
)

// CredentialHeader carries the provider credential on proxy requests.
const CredentialHeader = "X-API-Key"

// Kind tells a caller whether a payload came from the upstream or was synthesized.
type Kind string

const (
	KindLive     Kind = "live"
	KindFallback Kind = "fallback"
)

// Result is the outcome of an adapter fetch. Payload always has the
// provider's canonical shape, whatever the Kind.
type Result[T any] struct {
	Kind    Kind `json:"kind"`
	Payload T    `json:"payload"`

	// Cached is true when a live payload was served from the cache.
	Cached bool `json:"cached,omitempty"`

	// Reason is the failure that caused a fallback. Nil for live results.
	Reason error `json:"-"`
}

// Live reports whether r came from the upstream (directly or via the cache).
func (r Result[T]) Live() bool { return r.Kind == KindLive }

// Requester performs proxy requests. [*proxy.Client] implements it; tests
// substitute call-counting stubs.
type Requester interface {
	Request(ctx context.Context, method, endpoint string, params proxy.Params) (*proxy.Response, error)
}

// Config holds what every adapter needs.
type Config struct {
	Proxy Requester
	Cache cache.Cache // nil means no caching
	Keyer cache.Keyer // nil means cache.DefaultKeyer

	// TTL for cached live payloads. Zero selects the provider default,
	// a negative value disables caching.
	TTL time.Duration

	// Credential is sent as the X-API-Key header. Providers that require
	// one answer with fallback data without a network call when it is empty.
	Credential string

	// ProviderHooks and CacheHooks receive this client's events. Nil
	// selects the process-wide hooks registered with observability.
	ProviderHooks observability.ProviderHooks
	CacheHooks    observability.CacheHooks

	Logger *log.Logger
}

// Client provides the shared fetch machinery for all provider adapters:
// cache lookup, credential gating, coalescing of concurrent misses and
// fallback on failure.
//
// All methods are safe for concurrent use.
type Client struct {
	provider    string
	requiresKey bool
	proxy       Requester
	cache       cache.Cache
	keyer       cache.Keyer
	ttl         time.Duration
	credential  string
	provHooks   observability.ProviderHooks
	cacheHooks  observability.CacheHooks
	logger      *log.Logger
	inflight    singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context shared by the callers of one coalesced upstream
// call. It is cancelled when the last of them leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// flightResult carries a payload and its JSON encoding out of a shared call.
type flightResult[T any] struct {
	payload T
	data    []byte
}

// NewClient creates the shared client for provider. defaultTTL applies when
// cfg.TTL is zero.
func NewClient(provider string, requiresKey bool, defaultTTL time.Duration, cfg Config) *Client {
	c := &Client{
		provider:    provider,
		requiresKey: requiresKey,
		proxy:       cfg.Proxy,
		cache:       cfg.Cache,
		keyer:       cfg.Keyer,
		ttl:         cfg.TTL,
		credential:  cfg.Credential,
		provHooks:   cfg.ProviderHooks,
		cacheHooks:  cfg.CacheHooks,
		logger:      cfg.Logger,
		flights:     make(map[string]*flight),
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.ttl == 0 {
		c.ttl = defaultTTL
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Provider returns the provider name used in cache keys and logs.
func (c *Client) Provider() string { return c.provider }

// TTL returns the effective cache TTL. Values <= 0 mean caching is off.
func (c *Client) TTL() time.Duration { return c.ttl }

// Request forwards to the proxy, adding the credential header when set.
func (c *Client) Request(ctx context.Context, method, endpoint string, params proxy.Params) (*proxy.Response, error) {
	if c.proxy == nil {
		return nil, errs.New(errs.ErrCodeConfiguration, "%s adapter has no proxy client", c.provider)
	}
	if c.credential != "" {
		h := make(map[string]string, len(params.Headers)+1)
		for k, v := range params.Headers {
			h[k] = v
		}
		h[CredentialHeader] = c.credential
		params.Headers = h
	}
	return c.proxy.Request(ctx, method, endpoint, params)
}

// Fetch runs the adapter algorithm for query:
//
//  1. A fresh cache entry is returned as a live result.
//  2. A missing required credential yields fallback(query) without a network call.
//  3. Otherwise call runs; its payload is cached and returned as live.
//  4. Any recoverable failure yields fallback(query). Fallbacks are never cached.
//
// Concurrent misses for the same key share one call. Each caller waits on
// its own ctx: a caller that gives up gets a fallback while the others keep
// waiting, and the shared call is cancelled only when nobody waits for it.
// Callers of a shared call get independent copies of the payload.
//
// The error is non-nil only for programming errors (unknown endpoint,
// missing proxy) that no fallback should hide.
func Fetch[T any](ctx context.Context, c *Client, query string, call func(context.Context) (T, error), fallback func(string) T) (Result[T], error) {
	start := time.Now()
	key := c.keyer.ProviderKey(c.provider, query)

	if c.ttl > 0 {
		if v, ok := lookup[T](ctx, c, key); ok {
			c.cacheEvents().OnCacheHit(ctx, c.provider)
			c.providerEvents().OnLive(ctx, c.provider, true, time.Since(start))
			c.logger.Debug("cache hit", "provider", c.provider, "query", query)
			return Result[T]{Kind: KindLive, Payload: v, Cached: true}, nil
		}
		c.cacheEvents().OnCacheMiss(ctx, c.provider)
	}

	if c.requiresKey && c.credential == "" {
		reason := errs.New(errs.ErrCodeMissingCredential, "no credential configured for %s", c.provider)
		return fallbackResult(ctx, c, query, reason, fallback)
	}

	fctx := c.join(ctx, key)
	defer c.leave(key)

	ch := c.inflight.DoChan(key, func() (any, error) {
		payload, err := call(fctx)
		if err != nil {
			return nil, err
		}
		return flightResult[T]{payload: payload, data: c.store(fctx, key, payload)}, nil
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return fallbackResult(ctx, c, query, ctx.Err(), fallback)
	}
	if r.Err != nil {
		if isFatal(r.Err) {
			return Result[T]{}, r.Err
		}
		return fallbackResult(ctx, c, query, r.Err, fallback)
	}

	out := r.Val.(flightResult[T])
	payload := out.payload
	if r.Shared {
		c.logger.Debug("coalesced fetch", "provider", c.provider, "query", query)
		if out.data != nil {
			var own T
			if err := json.Unmarshal(out.data, &own); err == nil {
				payload = own
			}
		}
	}
	c.providerEvents().OnLive(ctx, c.provider, false, time.Since(start))
	return Result[T]{Kind: KindLive, Payload: payload}, nil
}

// join registers a caller for key and returns the context the shared call
// runs with. It keeps ctx's values but not its cancellation.
func (c *Client) join(ctx context.Context, key string) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f.ctx
}

// leave unregisters a caller. The last one out cancels the shared call and
// makes the next caller for key start a new one.
func (c *Client) leave(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.flights[key]
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(c.flights, key)
	c.inflight.Forget(key)
}

func (c *Client) providerEvents() observability.ProviderHooks {
	if c.provHooks != nil {
		return c.provHooks
	}
	return observability.Provider()
}

func (c *Client) cacheEvents() observability.CacheHooks {
	if c.cacheHooks != nil {
		return c.cacheHooks
	}
	return observability.Cache()
}

func lookup[T any](ctx context.Context, c *Client, key string) (T, bool) {
	var v T
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "provider", c.provider, "err", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("dropping unreadable cache entry", "provider", c.provider, "err", err)
		_ = c.cache.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return v, true
}

// store encodes payload, caches it when caching is on and returns the
// encoding. It returns nil when payload cannot be encoded.
func (c *Client) store(ctx context.Context, key string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("cannot encode payload", "provider", c.provider, "err", err)
		return nil
	}
	if c.ttl <= 0 {
		return data
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "provider", c.provider, "err", err)
		return data
	}
	c.cacheEvents().OnCacheSet(ctx, c.provider, len(data))
	return data
}

func fallbackResult[T any](ctx context.Context, c *Client, query string, reason error, generate func(string) T) (Result[T], error) {
	c.providerEvents().OnFallback(ctx, c.provider, reason)
	c.logger.Warn("serving fallback data", "provider", c.provider, "query", query, "err", reason)
	return Result[T]{Kind: KindFallback, Payload: generate(query), Reason: reason}, nil
}

func isFatal(err error) bool {
	return errs.Is(err, errs.ErrCodeUnknownEndpoint) || errs.Is(err, errs.ErrCodeConfiguration)
}
