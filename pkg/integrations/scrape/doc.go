// Package scrape provides the page-summary adapter.
//
// The proxy's scrape endpoint (GET /api/scrape?url=<url>) fetches a page on
// the server side and returns {"url": ..., "html": ...}. The adapter parses
// the HTML with golang.org/x/net/html and keeps what a salesperson skims:
// the title, the meta description, up to [MaxHeadings] h1-h3 headings and a
// [MaxExcerptRunes] excerpt of the visible text. Scripts, styles and
// templates are ignored.
//
// Unlike the other adapters, scraping needs no credential. Summaries are
// cached for [DefaultTTL].
//
// [Summarize] is exported for callers that already hold the HTML.
package scrape
