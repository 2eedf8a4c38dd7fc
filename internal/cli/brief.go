package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/service"
)

// briefCommand creates the brief command that combines every provider for one company.
func (c *CLI) briefCommand() *cobra.Command {
	var (
		domain string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "brief <company>",
		Short: "Prepare a meeting brief for a company",
		Long: `Prepare a meeting brief: AI insight and recent news for the company, plus the
technology stack when --domain is given. Providers are queried concurrently.`,
		Example: `  dealprep brief "Acme Corporation" --domain acme.com`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			svc, _, err := c.newService(ctx, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			prog := newProgress(logger)
			spin := newSpinner(ctx, "Preparing brief for "+args[0])
			spin.Start()
			brief, err := svc.Brief(ctx, args[0], domain)
			if err := spin.interrupted(ctx); err != nil {
				return err
			}
			if err != nil {
				spin.StopWithError("Could not prepare brief for " + args[0])
				return err
			}

			if asJSON {
				spin.Stop()
				prog.done(fmt.Sprintf("Prepared brief %s", brief.ID))
				return writeJSON(cmd.OutOrStdout(), brief)
			}
			spin.StopWithSuccess(fmt.Sprintf("Brief ready: %s", liveCount(briefKinds(brief))))
			prog.done(fmt.Sprintf("Prepared brief %s", brief.ID))
			printNewline()
			printBrief(brief)
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "company web domain for the tech stack section")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the brief as JSON")

	return cmd
}

func printBrief(b *service.Brief) {
	fmt.Fprintln(stdout, StyleTitle.Render(b.Company)+"  "+StyleDim.Render(b.Environment+" · "+b.GeneratedAt.Format("2006-01-02 15:04 MST")))
	printNewline()

	printSection("Insight", b.Insight)
	printInsight(b.Insight.Payload)
	printNewline()

	if b.Stack != nil {
		printSection("Tech stack", *b.Stack)
		printStack(b.Stack.Payload)
		printNewline()
	}

	printSection("News", b.News)
	printNews(b.News.Payload)
	printNewline()

	printResultKinds(briefKinds(b))
	if b.Degraded() {
		printNextStep("Check credentials and proxy health", "dealprep env show")
	}
}

// briefKinds maps each section of b to the kind of its data.
func briefKinds(b *service.Brief) map[string]integrations.Kind {
	kinds := map[string]integrations.Kind{
		"insight": b.Insight.Kind,
		"news":    b.News.Kind,
	}
	if b.Stack != nil {
		kinds["tech stack"] = b.Stack.Kind
	}
	return kinds
}

// liveCount summarizes kinds as "2 of 3 sections live".
func liveCount(kinds map[string]integrations.Kind) string {
	live := 0
	for _, k := range kinds {
		if k == integrations.KindLive {
			live++
		}
	}
	return fmt.Sprintf("%d of %d sections live", live, len(kinds))
}

// printResultKinds is the one-line summary at the end of a brief.
func printResultKinds(kinds map[string]integrations.Kind) {
	var fallback []string
	for name, kind := range kinds {
		if kind == integrations.KindFallback {
			fallback = append(fallback, name)
		}
	}
	if len(fallback) == 0 {
		printSuccess("All sections are live data")
		return
	}
	slices.Sort(fallback)
	printWarning("Placeholder data in: %s", strings.Join(fallback, ", "))
}
