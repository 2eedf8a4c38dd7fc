package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/proxy"
)

const (
	// Provider is the adapter's name in cache keys and the service registry.
	Provider = env.EndpointScrape

	// DefaultTTL is how long a page summary stays fresh.
	DefaultTTL = time.Hour

	// MaxHeadings caps the number of headings kept.
	MaxHeadings = 10

	// MaxExcerptRunes caps the length of the text excerpt.
	MaxExcerptRunes = 500
)

// Summary is the readable outline of a web page.
type Summary struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings"`
	Excerpt     string   `json:"excerpt"`
	WordCount   int      `json:"word_count"`
}

// Client fetches page HTML through the proxy and summarizes it.
// The scrape endpoint needs no credential.
type Client struct {
	*integrations.Client
}

// NewClient creates a scrape adapter. A zero cfg.TTL selects [DefaultTTL].
func NewClient(cfg integrations.Config) *Client {
	return &Client{Client: integrations.NewClient(Provider, false, DefaultTTL, cfg)}
}

// Fetch returns a [Summary] of the page at rawURL. Invalid URLs and upstream
// failures yield [Fallback](rawURL).
func (c *Client) Fetch(ctx context.Context, rawURL string) (integrations.Result[Summary], error) {
	return integrations.Fetch(ctx, c.Client, rawURL, func(ctx context.Context) (Summary, error) {
		return c.fetch(ctx, rawURL)
	}, Fallback)
}

func (c *Client) fetch(ctx context.Context, rawURL string) (Summary, error) {
	if err := errs.ValidateURL(rawURL); err != nil {
		return Summary{}, err
	}
	resp, err := c.Request(ctx, http.MethodGet, env.EndpointScrape, proxy.Params{
		Query: url.Values{"url": {rawURL}},
	})
	if err != nil {
		return Summary{}, err
	}

	var data pageResponse
	if err := resp.DecodeJSON(&data); err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(data.HTML) == "" {
		return Summary{}, errs.New(errs.ErrCodeMalformedResponse, "scrape returned no html for %s", rawURL)
	}
	return Summarize(rawURL, data.HTML)
}

type pageResponse struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Summarize extracts the title, meta description, h1-h3 headings and the
// visible text of an HTML document. A document with neither a title nor any
// visible text is rejected as malformed.
func Summarize(pageURL, doc string) (Summary, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return Summary{}, errs.Wrap(errs.ErrCodeMalformedResponse, err, "parse html")
	}

	s := Summary{URL: pageURL, Headings: []string{}}
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg:
				return
			case atom.Title:
				if s.Title == "" {
					s.Title = collapse(textOf(n))
				}
				return
			case atom.Meta:
				if s.Description == "" && isDescription(n) {
					s.Description = collapse(attr(n, "content"))
				}
			case atom.H1, atom.H2, atom.H3:
				if h := collapse(textOf(n)); h != "" && len(s.Headings) < MaxHeadings {
					s.Headings = append(s.Headings, h)
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	words := strings.Fields(text.String())
	s.WordCount = len(words)
	s.Excerpt = truncate(strings.Join(words, " "), MaxExcerptRunes)
	if s.Title == "" && s.WordCount == 0 {
		return Summary{}, errs.New(errs.ErrCodeMalformedResponse, "page has no readable content")
	}
	return s, nil
}

func isDescription(n *html.Node) bool {
	name := strings.ToLower(attr(n, "name"))
	prop := strings.ToLower(attr(n, "property"))
	return name == "description" || prop == "og:description"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes on a word boundary and marks the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
