package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/dealprep/pkg/cache"
)

var sections = []string{"About us", "Products", "Customers", "Careers", "Pricing", "Contact", "Blog", "Partners"}

// Fallback returns a deterministic synthetic [Summary] for rawURL.
// The title is derived from the URL's host when it parses.
func Fallback(rawURL string) Summary {
	site := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		site = strings.TrimPrefix(u.Hostname(), "www.")
	}
	if strings.TrimSpace(site) == "" {
		site = "this site"
	}

	seed := cache.Seed(rawURL)
	headings := make([]string, 0, 4)
	for i := range 4 {
		headings = append(headings, sections[(int(seed%8)+i*3)%len(sections)])
	}

	excerpt := fmt.Sprintf("Welcome to %s. The page content could not be retrieved, so this is a placeholder outline covering %s.",
		site, strings.ToLower(strings.Join(headings, ", ")))
	return Summary{
		URL:         rawURL,
		Title:       site,
		Description: "Placeholder summary for " + site,
		Headings:    headings,
		Excerpt:     excerpt,
		WordCount:   len(strings.Fields(excerpt)),
	}
}
