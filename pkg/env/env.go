// Package env resolves the backend endpoint set for a deployment environment.
//
// # Overview
//
// A [Profile] pairs one base URL with the paths of the four provider
// endpoints. Profiles are fixed, declared data: there is exactly one per
// recognized environment name, and [Resolve] fails with a configuration
// error for anything else rather than defaulting.
//
//	p, err := env.Resolve("production")
//	if err != nil {
//	    log.Fatal(err) // CONFIGURATION_ERROR: unknown environment ...
//	}
//	fmt.Println(p.BaseURL, p.Endpoints[env.EndpointNews])
//
// Profiles are immutable once resolved. Switching environments means
// resolving a new profile and replacing the old one wholesale; see
// service.Service.SwitchEnvironment.
package env

import (
	"maps"
	"slices"
	"strings"

	errs "github.com/matzehuels/dealprep/pkg/errors"
)

// Name identifies a deployment environment.
type Name string

// Recognized environments.
const (
	Development Name = "development"
	Production  Name = "production"
)

// Logical endpoint names shared by every profile.
const (
	EndpointOpenAI    = "openai"
	EndpointBuiltWith = "builtwith"
	EndpointNews      = "news"
	EndpointScrape    = "scrape"
)

// Profile is the base URL and endpoint map of one environment.
// Paths may contain {name} placeholders that the proxy client fills in.
type Profile struct {
	Name      Name              `json:"name"`
	BaseURL   string            `json:"base_url"`
	Endpoints map[string]string `json:"endpoints"`
}

var endpoints = map[string]string{
	EndpointOpenAI:    "/api/openai",
	EndpointBuiltWith: "/api/builtwith/{domain}",
	EndpointNews:      "/api/news",
	EndpointScrape:    "/api/scrape",
}

var profiles = map[Name]Profile{
	Development: {
		Name:      Development,
		BaseURL:   "http://localhost:3001",
		Endpoints: endpoints,
	},
	Production: {
		Name:      Production,
		BaseURL:   "https://api.dealprep.io",
		Endpoints: endpoints,
	},
}

// Resolve returns a copy of the declared profile for name.
// An unknown name yields an error with code [errs.ErrCodeConfiguration].
func Resolve(name string) (*Profile, error) {
	p, ok := profiles[Name(name)]
	if !ok {
		return nil, errs.New(errs.ErrCodeConfiguration,
			"unknown environment %q (expected one of: %s)", name, strings.Join(Names(), ", "))
	}
	return p.clone(), nil
}

// Names returns the recognized environment names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, string(n))
	}
	slices.Sort(names)
	return names
}

// Path returns the path template for a logical endpoint.
func (p *Profile) Path(endpoint string) (string, bool) {
	path, ok := p.Endpoints[endpoint]
	return path, ok
}

// WithBaseURL returns a copy of p pointing at baseURL.
// A trailing slash is dropped so paths join cleanly.
func (p *Profile) WithBaseURL(baseURL string) *Profile {
	c := p.clone()
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (p Profile) clone() *Profile {
	p.Endpoints = maps.Clone(p.Endpoints)
	return &p
}
