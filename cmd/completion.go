package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for encore.

Besides command and flag names, the script completes setting names and
on/off for 'settings set', and event IDs for 'favorites toggle' from your
favourites and the saved listing (run 'encore refresh' to fill it).

  # bash, current session
  source <(encore completion bash)

  # zsh
  encore completion zsh > "${fpath[1]}/_encore"

  # fish
  encore completion fish > ~/.config/fish/completions/encore.fish`,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(cmd.OutOrStdout(), true)
		case "zsh":
			return root.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return root.GenFishCompletion(cmd.OutOrStdout(), true)
		default:
			return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
	},
}

// completeSettingArgs offers setting names, then on/off.
func completeSettingArgs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		var out []string
		for _, f := range settings.Flags {
			if strings.HasPrefix(string(f), toComplete) {
				out = append(out, string(f))
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	case 1:
		return []string{"on", "off"}, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// completeEventIDs offers IDs from the favourites and the saved listing,
// each described by its title. It never calls the venue.
func completeEventIDs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	deps, err := buildDeps()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer deps.Close()
	if err := deps.RequireStore(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var events []model.EventModel
	if favs, _, err := deps.Store.GetFavorites(); err == nil {
		events = append(events, favs...)
	}
	if snap, ok, err := deps.Store.GetLatestEvents(); err == nil && ok {
		events = append(events, snap.Events...)
	}
	return eventCompletions(events, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// eventCompletions formats "ID\tdate title" entries, first occurrence wins.
func eventCompletions(events []model.EventModel, prefix string) []string {
	seen := make(map[string]bool, len(events))
	var out []string
	for _, e := range events {
		if seen[e.ID] || !strings.HasPrefix(e.ID, prefix) {
			continue
		}
		seen[e.ID] = true
		out = append(out, e.ID+"\t"+e.Date+" "+e.Title)
	}
	return out
}

func init() {
	rootCmd.AddCommand(completionCmd)
	settingsSetCmd.ValidArgsFunction = completeSettingArgs
	favoritesToggleCmd.ValidArgsFunction = completeEventIDs
}
