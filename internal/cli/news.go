package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// newsCommand creates the news command with an optional interactive picker.
func (c *CLI) newsCommand() *cobra.Command {
	var (
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "news <company>",
		Short: "Show recent headlines about a company",
		Long: `Show up to 10 recent headlines about a company, newest first.

With --interactive, browse the headlines in the terminal and press enter to
print the link of the selected article.`,
		Example: `  dealprep news "Acme Corporation"
  dealprep news "Acme Corporation" -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, _, err := c.newService(ctx, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			spin := newSpinner(ctx, "Fetching headlines for "+args[0])
			spin.Start()
			res, err := svc.News(ctx, args[0])
			if err := spin.interrupted(ctx); err != nil {
				return err
			}
			if err != nil {
				spin.StopWithError("Could not fetch headlines for " + args[0])
				return err
			}

			switch {
			case asJSON:
				spin.Stop()
				return writeJSON(cmd.OutOrStdout(), res)
			case !interactive:
				spin.StopWithSuccess(fmt.Sprintf("Found %d headlines", len(res.Payload)))
				printSection("News", res)
				printNews(res.Payload)
				return nil
			}
			spin.Stop()

			model := NewNewsListModel(res.Payload, !res.Live())
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("headline picker: %w", err)
			}
			if picked := final.(NewsListModel).Selected; picked != nil {
				printSuccess("%s", picked.Title)
				fmt.Fprintln(stdout, "  "+StyleLink.Render(picked.URL))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse headlines interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the headlines as JSON")

	return cmd
}
