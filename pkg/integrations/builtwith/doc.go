// Package builtwith provides the technology-stack adapter.
//
// The proxy's builtwith endpoint (GET /api/builtwith/{domain}) forwards to
// the BuiltWith domain API. The adapter flattens every path of every
// result into one deduplicated [Stack], sorted by category and name.
//
//	client := builtwith.NewClient(integrations.Config{Proxy: px, Cache: store, Credential: key})
//	res, _ := client.Fetch(ctx, "acme.com")
//	for category, names := range res.Payload.Categories() {
//	    fmt.Println(category, names)
//	}
//
// A response carrying BuiltWith errors or no results is malformed and, like
// an invalid domain, answered with [Fallback].
package builtwith
