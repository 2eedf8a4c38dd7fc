package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dealprep/pkg/env"
)

// envCommand creates the environment inspection command.
func (c *CLI) envCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect environment profiles",
	}

	cmd.AddCommand(c.envListCommand())
	cmd.AddCommand(c.envShowCommand())

	return cmd
}

// envListCommand creates the "env list" subcommand.
func (c *CLI) envListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			for _, name := range env.Names() {
				marker := " "
				if name == cfg.Environment {
					marker = iconCurrent
				}
				p, _ := env.Resolve(name)
				fmt.Fprintf(stdout, "%s %-12s %s\n", StyleHighlight.Render(marker), name, StyleDim.Render(p.BaseURL))
			}
			return nil
		},
	}
}

// envShowCommand creates the "env show" subcommand.
func (c *CLI) envShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "show [name]",
		Short:     "Show the base URL, endpoints and credentials of an environment",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: env.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			name := cfg.Environment
			if len(args) == 1 {
				name = args[0]
			}
			p, err := env.Resolve(name)
			if err != nil {
				return err
			}
			if name == cfg.Environment && cfg.BaseURL != "" {
				p = p.WithBaseURL(cfg.BaseURL)
			}

			printKeyValue("Environment", string(p.Name))
			printKeyValue("Base URL", p.BaseURL)
			printNewline()

			endpoints := make([]string, 0, len(p.Endpoints))
			for e := range p.Endpoints {
				endpoints = append(endpoints, e)
			}
			slices.Sort(endpoints)
			for _, e := range endpoints {
				path, _ := p.Path(e)
				var cred string
				switch {
				case e == env.EndpointScrape:
					cred = StyleDim.Render("no key needed")
				case cfg.Credentials[e] == "":
					cred = StyleWarning.Render("no key, placeholder data")
				default:
					cred = StyleSuccess.Render("key set")
				}
				printKeyValue(e, path+"  "+cred)
			}
			return nil
		},
	}
}
