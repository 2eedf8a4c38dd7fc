package cli

import "github.com/spf13/cobra"

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for bash, zsh, fish or powershell.

Besides subcommands and flags, the script completes provider names after
"dealprep fetch" and environment names after "dealprep env show" and
"--env".

Try it in the current shell:
  source <(dealprep completion bash)
  dealprep completion fish | source

Install it for new shells:
  dealprep completion bash > ~/.local/share/bash-completion/completions/dealprep
  dealprep completion zsh > "${fpath[1]}/_dealprep"
  dealprep completion fish > ~/.config/fish/completions/dealprep.fish
  dealprep completion powershell >> $PROFILE`,
		Example: `  dealprep completion zsh > "${fpath[1]}/_dealprep"
  dealprep fetch <TAB>      # builtwith news openai scrape`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}

	return cmd
}
