package news

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/proxy"
)

const (
	// Provider is the adapter's name in cache keys and the service registry.
	Provider = env.EndpointNews

	// DefaultTTL is how long a headline list stays fresh.
	DefaultTTL = 6 * time.Hour

	// MaxItems caps the number of headlines returned.
	MaxItems = 10
)

// Item is one headline.
//
// Date is an RFC 3339 timestamp and may be empty when the upstream did not
// provide a parseable publication date.
type Item struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Date   string `json:"date,omitempty"`
}

// Client fetches recent headlines about a company through the proxy.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
}

// NewClient creates a news adapter. A zero cfg.TTL selects [DefaultTTL].
func NewClient(cfg integrations.Config) *Client {
	return &Client{Client: integrations.NewClient(Provider, true, DefaultTTL, cfg)}
}

// Fetch returns at most [MaxItems] headlines about company, newest first.
//
// Upstream failures yield [Fallback](company) tagged as fallback; the error
// is only set for programming errors.
func (c *Client) Fetch(ctx context.Context, company string) (integrations.Result[[]Item], error) {
	return integrations.Fetch(ctx, c.Client, company, func(ctx context.Context) ([]Item, error) {
		return c.fetch(ctx, company)
	}, Fallback)
}

func (c *Client) fetch(ctx context.Context, company string) ([]Item, error) {
	if err := errs.ValidateQuery(company); err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, http.MethodGet, env.EndpointNews, proxy.Params{
		Query: url.Values{"q": {company}},
	})
	if err != nil {
		return nil, err
	}

	var data searchResponse
	if err := resp.DecodeJSON(&data); err != nil {
		return nil, err
	}
	if data.Status != "ok" {
		return nil, errs.New(errs.ErrCodeMalformedResponse, "news search status %q: %s", data.Status, data.Message)
	}
	return normalize(data.Articles), nil
}

// normalize drops unusable articles, orders the rest by publication date
// (newest first, undated last) and caps the list at MaxItems.
func normalize(articles []article) []Item {
	type dated struct {
		item Item
		at   time.Time
	}
	rows := make([]dated, 0, len(articles))
	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		link := strings.TrimSpace(a.URL)
		if title == "" || link == "" || title == removedMarker {
			continue
		}
		if errs.ValidateURL(link) != nil {
			continue
		}
		row := dated{item: Item{Title: title, URL: link, Source: strings.TrimSpace(a.Source.Name)}}
		if t, ok := parseDate(a.PublishedAt); ok {
			row.at = t
			row.item.Date = t.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].at, rows[j].at
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})

	items := make([]Item, 0, min(len(rows), MaxItems))
	for _, r := range rows {
		if len(items) == MaxItems {
			break
		}
		items = append(items, r.item)
	}
	return items
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// removedMarker is how the news search API blanks out retracted articles.
const removedMarker = "[Removed]"

type searchResponse struct {
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}
