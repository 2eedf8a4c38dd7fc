package cache

// Keyer builds cache keys for provider responses.
type Keyer interface {
	// ProviderKey returns the key for query against provider.
	// The query is used verbatim.
	ProviderKey(provider, query string) string
}

// DefaultKeyer produces keys of the form "provider:<name>:<query>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ProviderKey generates the key for a provider response.
func (DefaultKeyer) ProviderKey(provider, query string) string {
	return "provider:" + provider + ":" + query
}
