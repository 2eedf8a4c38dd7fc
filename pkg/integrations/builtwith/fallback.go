package builtwith

import (
	"sort"

	"github.com/matzehuels/dealprep/pkg/cache"
)

// catalog lists candidate technologies per category for synthetic stacks.
var catalog = []struct {
	category string
	names    []string
}{
	{"analytics", []string{"Google Analytics", "Segment", "Mixpanel", "Hotjar"}},
	{"cdn", []string{"Cloudflare", "Fastly", "Akamai", "Amazon CloudFront"}},
	{"cms", []string{"WordPress", "Contentful", "Drupal", "Webflow"}},
	{"crm", []string{"Salesforce", "HubSpot", "Pipedrive", "Zoho CRM"}},
	{"framework", []string{"React", "Next.js", "Vue.js", "Angular"}},
	{"hosting", []string{"Amazon Web Services", "Google Cloud", "Microsoft Azure", "Vercel"}},
	{"payments", []string{"Stripe", "Adyen", "Braintree", "PayPal"}},
}

// Fallback returns a deterministic synthetic [Stack] for domain with one
// technology per category.
func Fallback(domain string) Stack {
	seed := cache.Seed(domain)
	techs := make([]Technology, 0, len(catalog))
	for i, c := range catalog {
		pick := (seed >> uint(i*4)) % uint64(len(c.names))
		techs = append(techs, Technology{Name: c.names[pick], Category: c.category})
	}
	sort.Slice(techs, func(i, j int) bool {
		if techs[i].Category != techs[j].Category {
			return techs[i].Category < techs[j].Category
		}
		return techs[i].Name < techs[j].Name
	})
	return Stack{Domain: domain, Technologies: techs}
}
