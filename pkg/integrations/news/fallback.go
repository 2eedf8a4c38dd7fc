package news

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/dealprep/pkg/cache"
)

// fallbackEpoch anchors synthetic publication dates so output never depends
// on the clock.
var fallbackEpoch = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

var headlineTemplates = []string{
	"%s announces quarterly results ahead of expectations",
	"%s expands partnership program across Europe",
	"%s names new Chief Revenue Officer",
	"%s unveils roadmap for its enterprise platform",
	"Analysts weigh in on %s growth strategy",
	"%s opens new engineering hub",
	"%s completes acquisition of analytics startup",
	"Customers report strong adoption of %s's latest release",
	"%s commits to net-zero operations by 2030",
	"%s hosts annual customer summit",
	"%s launches developer community initiative",
	"Industry report ranks %s among top vendors",
}

var fallbackSources = []string{"Business Wire", "Reuters", "TechCrunch", "Bloomberg", "PR Newswire"}

// Fallback returns a deterministic list of synthetic headlines about company.
// Items satisfy the same invariants as live results: at most [MaxItems],
// sorted by date descending, all with title, URL and date.
func Fallback(company string) []Item {
	name := strings.TrimSpace(company)
	if name == "" {
		name = "The company"
	}
	seed := cache.Seed(company)
	n := 5 + int(seed%4)
	slug := url.PathEscape(strings.ToLower(strings.Join(strings.Fields(name), "-")))

	items := make([]Item, 0, n)
	for i := range n {
		tpl := headlineTemplates[(int(seed>>8)+i*5)%len(headlineTemplates)]
		date := fallbackEpoch.Add(-time.Duration(i*(2+int(seed>>16)%3)) * 24 * time.Hour)
		items = append(items, Item{
			Title:  fmt.Sprintf(tpl, name),
			URL:    fmt.Sprintf("https://news.example.com/%s/%d", slug, i+1),
			Source: fallbackSources[(int(seed>>24)+i)%len(fallbackSources)],
			Date:   date.Format(time.RFC3339),
		})
	}
	return items
}
