// Package pkg provides the core libraries for dealprep, a sales meeting
// preparation tool.
//
// # Overview
//
// dealprep gathers four kinds of company data through one proxy and shows
// them together: an AI-generated company insight, the company's technology
// stack, recent news headlines and readable summaries of web pages. Every
// answer is tagged live or fallback; when a provider cannot answer, the
// caller still gets deterministic placeholder data and never an error.
//
// # Architecture
//
// The typical data flow:
//
//	caller (CLI, HTTP API)
//	         ↓
//	    [service] package (one Service per process, environment switching)
//	         ↓
//	    [integrations] adapters (cache lookup → proxy call → validate → store,
//	                              or fallback)
//	         ↓
//	    [proxy] package (endpoint resolution through the [env] profile)
//	         ↓
//	    dealprep proxy (development or production)
//
// # Quick Start
//
//	svc, err := service.New(service.Options{
//	    Environment: "development",
//	    Cache:       cache.NewMemoryCache(),
//	    Credentials: map[string]string{"news": key},
//	})
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	brief, _ := svc.Brief(ctx, "Acme Corporation", "acme.com")
//	if brief.Degraded() {
//	    fmt.Println("some sections are placeholders")
//	}
//
// # Main Packages
//
// [env] - The development and production profiles: base URL plus the
// logical endpoint map. An unknown environment is a configuration error.
//
// [proxy] - The single outbound HTTP client. Resolves endpoint names,
// fills path placeholders, retries transient failures and reports
// everything else as a transport error. It never falls back.
//
// [integrations] - The shared adapter engine and one subpackage per
// provider: openai, builtwith, news and scrape. Each subpackage owns its
// response schema and its deterministic fallback generator.
//
// [cache] - TTL cache backends with expire-on-read semantics: memory,
// file, Redis, MongoDB, SQLite and a null cache for --no-cache.
//
// [service] - Wires profile, proxy, cache and adapters into an explicitly
// constructed object; no package-level state.
//
// [server] - The HTTP API for the browser UI.
//
// [config] - TOML or YAML configuration with DEALPREP_* overrides.
//
// [observability] - Hooks for provider outcomes, cache decisions and
// upstream calls, plus in-process counters.
//
// [errors] - Structured error codes shared by every package.
//
// [env]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/env
// [proxy]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/proxy
// [integrations]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/cache
// [service]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/service
// [server]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/dealprep/pkg/errors
package pkg
