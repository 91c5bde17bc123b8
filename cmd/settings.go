package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
	"github.com/derickschaefer/encore/internal/state"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change display preferences",
	Long: `Preferences are stored in the local database, one switch each:

  dark_mode            use the dark theme
  system_color_scheme  follow the system theme instead of dark_mode
  show_images          show event images
  hide_cancelled       leave cancelled events out of listings
  has_seen_onboarding  the introduction has been shown`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.RequireStore(); err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), deps, settingsResult("settings list", deps.Settings.Snapshot(), time.Now()))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <SETTING> <on|off>",
	Short: "Change one preference",
	Example: `  encore settings set hide_cancelled on
  encore settings set dark_mode off`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flag, err := settings.ParseFlag(args[0])
		if err != nil {
			return err
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		c, err := deps.NewContainer(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		c.Dispatch(settingAction(flag, on))
		if err := settle(ctx, c); err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), deps, settingsResult("settings set", deps.Settings.Snapshot(), start))
	},
}

// settingAction maps a flag to the action that changes it.
func settingAction(f settings.Flag, on bool) state.Action {
	switch f {
	case settings.DarkMode:
		return state.SetDarkMode{On: on}
	case settings.SystemColorScheme:
		return state.SetSystemColorScheme{On: on}
	case settings.ShowImages:
		return state.SetShowImages{On: on}
	case settings.HideCancelled:
		return state.SetHideCancelled{On: on}
	default:
		return state.SetHasSeenOnboarding{Seen: on}
	}
}

func settingsResult(command string, snap settings.Snapshot, start time.Time) *model.Result {
	rows := make([]model.SettingRow, len(settings.Flags))
	for i, f := range settings.Flags {
		rows[i] = model.SettingRow{Name: string(f), Value: snap.Value(f)}
	}
	return &model.Result{
		Kind:        model.KindSettings,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        rows,
		Stats: model.ResultStats{
			Items:      len(rows),
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
