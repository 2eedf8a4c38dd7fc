// Package integrations provides the data-source adapters behind the
// aggregation service.
//
// # Overview
//
// Each upstream provider has its own subpackage that translates the
// provider's wire format into a canonical type:
//
//   - [openai]: AI-generated company insight (summary, executives, talking points)
//   - [builtwith]: technology stack of a domain
//   - [news]: recent headlines about a company
//   - [scrape]: title, description and text excerpt of a web page
//
// # Client Pattern
//
// All adapters follow a consistent pattern:
//
//	client := news.NewClient(integrations.Config{
//	    Proxy:      proxyClient,
//	    Cache:      store,
//	    Credential: key,
//	})
//	res, err := client.Fetch(ctx, "Acme Corporation")
//	fmt.Println(res.Kind, len(res.Payload))
//
// Adapters never fail on upstream problems. A network error, non-2xx
// status, invalid payload or missing credential yields the provider's
// deterministic fallback tagged [KindFallback]. The returned error is
// reserved for programming errors such as an endpoint the active profile
// does not define.
//
// # Shared Infrastructure
//
// The [Client] type carries the pieces every adapter shares: the proxy
// requester, the [cache.Cache] and its [cache.Keyer], the TTL, the
// credential and a singleflight group that coalesces concurrent misses.
// [Fetch] implements the cache → call → fallback algorithm once for all of
// them. Fallback payloads are never written to the cache.
//
// # Adding a New Provider
//
//  1. Add the logical endpoint to every profile in pkg/env
//  2. Create a subpackage: pkg/integrations/<provider>/
//  3. Define the canonical type and the wire response structs
//  4. Implement a deterministic Fallback(query) for the canonical type
//  5. Implement Client.Fetch on top of [Fetch]
//  6. Wire it into pkg/service
//
// [openai]: github.com/matzehuels/dealprep/pkg/integrations/openai
// [builtwith]: github.com/matzehuels/dealprep/pkg/integrations/builtwith
// [news]: github.com/matzehuels/dealprep/pkg/integrations/news
// [scrape]: github.com/matzehuels/dealprep/pkg/integrations/scrape
// [cache.Cache]: github.com/matzehuels/dealprep/pkg/cache.Cache
// [cache.Keyer]: github.com/matzehuels/dealprep/pkg/cache.Keyer
package integrations
