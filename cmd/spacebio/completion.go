package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var completionGenerators = map[string]func(w io.Writer) error{
	"bash":       rootCmd.GenBashCompletion,
	"zsh":        rootCmd.GenZshCompletion,
	"fish":       func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
	"powershell": rootCmd.GenPowerShellCompletionWithDesc,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerChoices completes a flag from a fixed set. Call it after the flag is defined.
func registerChoices(cmd *cobra.Command, flag string, choices []string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(choices, cobra.ShellCompDirectiveNoFileComp))
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for the given shell.

  source <(spacebio completion bash)
  spacebio completion zsh > "${fpath[1]}/_spacebio"
  spacebio completion fish > ~/.config/fish/completions/spacebio.fish
  spacebio completion powershell | Out-String | Invoke-Expression

Flag values such as graph centrality --kind, graph find --type and viz --layout
complete too.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, ok := completionGenerators[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q", args[0])
		}
		return gen(os.Stdout)
	},
}
