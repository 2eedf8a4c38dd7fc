// Package news provides the headline adapter.
//
// # Overview
//
// The adapter calls the proxy's news endpoint (GET /api/news?q=<company>),
// which forwards to a NewsAPI-style search service, and normalizes the
// articles into [Item] values.
//
// # Usage
//
//	client := news.NewClient(integrations.Config{
//	    Proxy:      proxyClient,
//	    Cache:      store,
//	    Credential: os.Getenv("DEALPREP_NEWS_KEY"),
//	})
//	res, err := client.Fetch(ctx, "Acme Corporation")
//	for _, item := range res.Payload {
//	    fmt.Println(item.Date, item.Title)
//	}
//
// # Normalization
//
// Articles without a title or a valid http(s) URL, and articles the search
// service marks as "[Removed]", are dropped. The rest are sorted by
// publication date, newest first, with undated articles last, and capped
// at [MaxItems].
//
// # Caching
//
// Live lists are cached for [DefaultTTL] (6 hours) per company name. The
// name is used verbatim, so "Acme" and "acme" are separate entries.
package news
