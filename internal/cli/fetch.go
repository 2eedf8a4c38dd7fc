package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/integrations/builtwith"
	"github.com/matzehuels/dealprep/pkg/integrations/news"
	"github.com/matzehuels/dealprep/pkg/integrations/openai"
	"github.com/matzehuels/dealprep/pkg/integrations/scrape"
	"github.com/matzehuels/dealprep/pkg/service"
)

// fetchCommand creates the fetch command for querying a single provider.
func (c *CLI) fetchCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fetch <provider> <query>",
		Short: "Fetch one provider's data through the proxy",
		Long: `Fetch one provider's data through the proxy.

Providers and their queries:
  openai     company name      AI company summary, executives, talking points
  builtwith  domain            technology stack
  news       company name      up to 10 recent headlines, newest first
  scrape     URL               page title, headings and excerpt`,
		Example: `  dealprep fetch news "Acme Corporation"
  dealprep fetch builtwith acme.com --json
  dealprep fetch scrape https://acme.com/about --env production`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: service.Providers(),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return service.Providers(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, query := args[0], args[1]

			svc, _, err := c.newService(ctx, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			spin := newSpinner(ctx, fmt.Sprintf("Fetching %s for %s", provider, query))
			spin.Start()
			res, err := svc.Fetch(ctx, provider, query)
			if err := spin.interrupted(ctx); err != nil {
				return err
			}
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Could not fetch %s data", provider))
				return err
			}

			if asJSON {
				spin.Stop()
				return writeJSON(cmd.OutOrStdout(), res)
			}
			spin.StopWithSuccess(fmt.Sprintf("Fetched %s data for %s", provider, query))
			printSection(providerTitle(provider), res)
			printPayload(res.Payload)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func providerTitle(provider string) string {
	switch provider {
	case "openai":
		return "Insight"
	case "builtwith":
		return "Tech stack"
	case "news":
		return "News"
	case "scrape":
		return "Page"
	}
	return provider
}

// printPayload renders any provider payload for the terminal.
func printPayload(payload any) {
	switch p := payload.(type) {
	case openai.Insight:
		printInsight(p)
	case builtwith.Stack:
		printStack(p)
	case []news.Item:
		printNews(p)
	case scrape.Summary:
		printPage(p)
	default:
		printDetail("%v", p)
	}
}

func printInsight(in openai.Insight) {
	printKeyValue("Company", in.Company)
	if in.Industry != "" {
		printKeyValue("Industry", in.Industry)
	}
	printKeyValue("Summary", in.Summary)
	if len(in.Executives) > 0 {
		printKeyValue("Leadership", "")
		for _, e := range in.Executives {
			if e.Title != "" {
				printBullet("%s, %s", e.Name, e.Title)
			} else {
				printBullet("%s", e.Name)
			}
		}
	}
	if len(in.TalkingPoints) > 0 {
		printKeyValue("Talk about", "")
		for _, tp := range in.TalkingPoints {
			printBullet("%s", tp)
		}
	}
}

func printStack(s builtwith.Stack) {
	printKeyValue("Domain", s.Domain)
	cats := s.Categories()
	for _, t := range s.Technologies {
		names, ok := cats[t.Category]
		if !ok {
			continue
		}
		printKeyValue(t.Category, strings.Join(names, ", "))
		delete(cats, t.Category)
	}
}

func printNews(items []news.Item) {
	if len(items) == 0 {
		printDetail("No recent headlines")
		return
	}
	for _, it := range items {
		date := "undated"
		if len(it.Date) >= len("2006-01-02") {
			date = it.Date[:len("2006-01-02")]
		}
		printBullet("%s", it.Title)
		printDetail("%s · %s · %s", date, it.Source, it.URL)
	}
}

func printPage(p scrape.Summary) {
	printKeyValue("URL", p.URL)
	printKeyValue("Title", p.Title)
	if p.Description != "" {
		printKeyValue("About", p.Description)
	}
	printKeyValue("Words", fmt.Sprint(p.WordCount))
	for _, h := range p.Headings {
		printBullet("%s", h)
	}
	if p.Excerpt != "" {
		printNewline()
		printDetail("%s", p.Excerpt)
	}
}
