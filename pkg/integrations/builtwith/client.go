package builtwith

import (
	"context"
	"net/http"
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
	Provider = env.EndpointBuiltWith

	// DefaultTTL is how long a technology profile stays fresh.
	DefaultTTL = 24 * time.Hour
)

// Technology is one detected product and its category.
type Technology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Stack is the technology profile of a domain.
type Stack struct {
	Domain       string       `json:"domain"`
	Technologies []Technology `json:"technologies"`
}

// Categories returns the technologies grouped by category, in stack order.
func (s Stack) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, t := range s.Technologies {
		out[t.Category] = append(out[t.Category], t.Name)
	}
	return out
}

// Client looks up technology profiles through the proxy.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
}

// NewClient creates a tech-stack adapter. A zero cfg.TTL selects [DefaultTTL].
func NewClient(cfg integrations.Config) *Client {
	return &Client{Client: integrations.NewClient(Provider, true, DefaultTTL, cfg)}
}

// Fetch returns the technology [Stack] of domain, a bare host name such as
// "acme.com". Invalid domains and upstream failures yield [Fallback](domain).
func (c *Client) Fetch(ctx context.Context, domain string) (integrations.Result[Stack], error) {
	return integrations.Fetch(ctx, c.Client, domain, func(ctx context.Context) (Stack, error) {
		return c.fetch(ctx, domain)
	}, Fallback)
}

func (c *Client) fetch(ctx context.Context, domain string) (Stack, error) {
	if err := errs.ValidateDomain(domain); err != nil {
		return Stack{}, err
	}
	resp, err := c.Request(ctx, http.MethodGet, env.EndpointBuiltWith, proxy.Params{
		Path: map[string]string{"domain": domain},
	})
	if err != nil {
		return Stack{}, err
	}

	var data lookupResponse
	if err := resp.DecodeJSON(&data); err != nil {
		return Stack{}, err
	}
	if len(data.Errors) > 0 {
		return Stack{}, errs.New(errs.ErrCodeMalformedResponse, "builtwith: %s", data.Errors[0].Message)
	}
	if len(data.Results) == 0 {
		return Stack{}, errs.New(errs.ErrCodeMalformedResponse, "builtwith returned no results for %s", domain)
	}
	return Stack{Domain: domain, Technologies: collect(data)}, nil
}

// collect flattens all paths of all results into a deduplicated list sorted
// by category, then name. The first category of a technology wins; its tag
// is the fallback.
func collect(data lookupResponse) []Technology {
	seen := make(map[string]bool)
	techs := []Technology{}
	for _, r := range data.Results {
		for _, p := range r.Result.Paths {
			for _, t := range p.Technologies {
				name := strings.TrimSpace(t.Name)
				key := strings.ToLower(name)
				if name == "" || seen[key] {
					continue
				}
				seen[key] = true
				category := strings.TrimSpace(t.Tag)
				if len(t.Categories) > 0 && strings.TrimSpace(t.Categories[0]) != "" {
					category = strings.TrimSpace(t.Categories[0])
				}
				if category == "" {
					category = "other"
				}
				techs = append(techs, Technology{Name: name, Category: category})
			}
		}
	}
	sort.Slice(techs, func(i, j int) bool {
		if techs[i].Category != techs[j].Category {
			return techs[i].Category < techs[j].Category
		}
		return techs[i].Name < techs[j].Name
	})
	return techs
}

type lookupResponse struct {
	Results []struct {
		Lookup string `json:"Lookup"`
		Result struct {
			Paths []struct {
				Domain       string `json:"Domain"`
				URL          string `json:"Url"`
				Technologies []struct {
					Name       string   `json:"Name"`
					Tag        string   `json:"Tag"`
					Categories []string `json:"Categories"`
				} `json:"Technologies"`
			} `json:"Paths"`
		} `json:"Result"`
	} `json:"Results"`
	Errors []struct {
		Lookup  string `json:"Lookup"`
		Message string `json:"Message"`
	} `json:"Errors"`
}
