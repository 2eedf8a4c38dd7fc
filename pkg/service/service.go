// Package service wires the environment profile, proxy client, cache and
// provider adapters into one explicitly constructed object.
//
// # Overview
//
// A [Service] owns everything a request needs. There is no package-level
// state: two services with different environments can live in the same
// process, and tests build their own.
//
//	svc, err := service.New(service.Options{
//	    Environment: "production",
//	    Cache:       cache.NewMemoryCache(),
//	    Credentials: map[string]string{"news": key},
//	})
//	if err != nil {
//	    return err // CONFIGURATION_ERROR for an unknown environment
//	}
//	res, _ := svc.News(ctx, "Acme Corporation")
//
// # Environment Switching
//
// [Service.SwitchEnvironment] resolves the new profile first and then
// replaces the profile, proxy client and all adapters in a single atomic
// swap. A request already in flight finishes against the set it started
// with. Cache keys are scoped by environment name, so entries fetched from
// one backend are never served for another.
package service

import (
	"context"
	"maps"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dealprep/pkg/cache"
	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/integrations/builtwith"
	"github.com/matzehuels/dealprep/pkg/integrations/news"
	"github.com/matzehuels/dealprep/pkg/integrations/openai"
	"github.com/matzehuels/dealprep/pkg/integrations/scrape"
	"github.com/matzehuels/dealprep/pkg/observability"
	"github.com/matzehuels/dealprep/pkg/proxy"
)

// Options configure a [Service].
type Options struct {
	// Environment names the profile to start with. Required.
	Environment string

	// BaseURL, if set, replaces the base URL of the starting profile.
	// Profiles selected later through SwitchEnvironment keep their own.
	BaseURL string

	// Cache stores live payloads. Nil disables caching.
	Cache cache.Cache

	// HTTPClient, Timeout and Attempts configure the proxy client.
	HTTPClient *http.Client
	Timeout    time.Duration
	Attempts   int

	// TTL overrides the per-provider cache TTL. Missing providers use the
	// adapter default; a negative value disables caching for that provider.
	TTL map[string]time.Duration

	// Credentials holds the API key per provider name.
	Credentials map[string]string

	// Observer receives this service's provider, cache and HTTP events.
	// Nil selects the process-wide hooks.
	Observer observability.Observer

	Logger *log.Logger

	// Now stamps briefs. Defaults to time.Now.
	Now func() time.Time
}

// sources is one environment's complete adapter set. It is never mutated
// after construction.
type sources struct {
	profile   *env.Profile
	proxy     *proxy.Client
	openai    *openai.Client
	builtwith *builtwith.Client
	news      *news.Client
	scrape    *scrape.Client
}

// Service aggregates the provider adapters. All methods are safe for
// concurrent use.
type Service struct {
	opts    Options
	logger  *log.Logger
	now     func() time.Time
	current atomic.Pointer[sources]
}

// New builds a service for opts.Environment. An unknown environment is a
// CONFIGURATION_ERROR and no service is returned.
func New(opts Options) (*Service, error) {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Service{opts: opts, logger: opts.Logger, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}

	src, err := s.build(opts.Environment, opts.BaseURL)
	if err != nil {
		return nil, err
	}
	s.current.Store(src)
	return s, nil
}

func (s *Service) build(name, baseURL string) (*sources, error) {
	profile, err := env.Resolve(name)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		if err := errs.ValidateURL(baseURL); err != nil {
			return nil, errs.Wrap(errs.ErrCodeConfiguration, err, "invalid base URL override")
		}
		profile = profile.WithBaseURL(baseURL)
	}

	px := proxy.NewClient(profile, proxy.Options{
		HTTPClient: s.opts.HTTPClient,
		Timeout:    s.opts.Timeout,
		Attempts:   s.opts.Attempts,
		HTTPHooks:  s.opts.Observer,
		Logger:     s.logger,
	})
	keyer := cache.NewScopedKeyer(nil, "env:"+string(profile.Name)+":")
	config := func(provider string) integrations.Config {
		return integrations.Config{
			Proxy:      px,
			Cache:      s.opts.Cache,
			Keyer:      keyer,
			TTL:        s.opts.TTL[provider],
			Credential: s.opts.Credentials[provider],
			Logger:     s.logger.With("provider", provider),

			ProviderHooks: s.opts.Observer,
			CacheHooks:    s.opts.Observer,
		}
	}

	return &sources{
		profile:   profile,
		proxy:     px,
		openai:    openai.NewClient(config(openai.Provider)),
		builtwith: builtwith.NewClient(config(builtwith.Provider)),
		news:      news.NewClient(config(news.Provider)),
		scrape:    scrape.NewClient(config(scrape.Provider)),
	}, nil
}

// Profile returns a copy of the active environment profile.
func (s *Service) Profile() env.Profile {
	p := *s.current.Load().profile
	p.Endpoints = maps.Clone(p.Endpoints)
	return p
}

// SwitchEnvironment makes name the active environment. On error the
// previous environment stays active.
func (s *Service) SwitchEnvironment(name string) error {
	src, err := s.build(name, "")
	if err != nil {
		return err
	}
	old := s.current.Swap(src)
	s.logger.Info("switched environment", "from", old.profile.Name, "to", src.profile.Name,
		"base_url", src.profile.BaseURL)
	return nil
}

// Insight returns the AI-generated briefing for company.
func (s *Service) Insight(ctx context.Context, company string) (integrations.Result[openai.Insight], error) {
	return s.current.Load().openai.Fetch(ctx, company)
}

// TechStack returns the technology profile of domain.
func (s *Service) TechStack(ctx context.Context, domain string) (integrations.Result[builtwith.Stack], error) {
	return s.current.Load().builtwith.Fetch(ctx, domain)
}

// News returns recent headlines about company, newest first.
func (s *Service) News(ctx context.Context, company string) (integrations.Result[[]news.Item], error) {
	return s.current.Load().news.Fetch(ctx, company)
}

// Scrape returns a summary of the page at rawURL.
func (s *Service) Scrape(ctx context.Context, rawURL string) (integrations.Result[scrape.Summary], error) {
	return s.current.Load().scrape.Fetch(ctx, rawURL)
}

// Providers returns the provider names accepted by [Service.Fetch], sorted.
func Providers() []string {
	names := []string{openai.Provider, builtwith.Provider, news.Provider, scrape.Provider}
	sort.Strings(names)
	return names
}

// Fetch dispatches query to the named provider. An unknown provider yields
// an UNKNOWN_PROVIDER error; the payload type depends on the provider.
func (s *Service) Fetch(ctx context.Context, provider, query string) (integrations.Result[any], error) {
	switch provider {
	case openai.Provider:
		return erase(s.Insight(ctx, query))
	case builtwith.Provider:
		return erase(s.TechStack(ctx, query))
	case news.Provider:
		return erase(s.News(ctx, query))
	case scrape.Provider:
		return erase(s.Scrape(ctx, query))
	}
	return integrations.Result[any]{}, errs.New(errs.ErrCodeUnknownProvider, "unknown provider %q", provider)
}

func erase[T any](r integrations.Result[T], err error) (integrations.Result[any], error) {
	if err != nil {
		return integrations.Result[any]{}, err
	}
	return integrations.Result[any]{Kind: r.Kind, Payload: r.Payload, Cached: r.Cached, Reason: r.Reason}, nil
}

// Close releases the cache.
func (s *Service) Close() error {
	return s.opts.Cache.Close()
}
