package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The aggregation service scopes keys by environment so that responses
// fetched from the development backend are never served in production.
//
// Example usage:
//
//	devKeyer := NewScopedKeyer(NewDefaultKeyer(), "env:development:")
//	devKeyer.ProviderKey("news", "Acme") // "env:development:provider:news:Acme"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProviderKey generates a prefixed key for a provider response.
func (k *ScopedKeyer) ProviderKey(provider, query string) string {
	return k.prefix + k.inner.ProviderKey(provider, query)
}
