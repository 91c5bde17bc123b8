package cmd

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/refresh"
)

var refreshFlags struct {
	Watch bool
	Cron  string
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch today's and the season's listings and save them for offline use",
	Long: `Fetch today's events and the listing from today to 31 December, and
save the season listing as the offline copy.

With --watch, keep running and refresh on a cron schedule until
interrupted. The schedule uses the configured timezone.`,
	Example: `  encore refresh
  encore refresh --watch
  encore refresh --watch --cron "@hourly"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		r, err := deps.Refresher()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if refreshFlags.Watch {
			spec := refreshFlags.Cron
			if spec == "" {
				spec = deps.Config.RefreshCron
			}
			return r.Schedule(ctx, spec)
		}

		start := time.Now()
		sum, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), deps, refreshResult(sum, start))
	},
}

func refreshResult(sum refresh.Summary, start time.Time) *model.Result {
	result := buildTableResult("refresh", []string{"RANGE", "FROM", "TO", "EVENTS"}, [][]string{
		{"today", sum.From, sum.From, strconv.Itoa(len(sum.Today))},
		{"season", sum.From, sum.To, strconv.Itoa(sum.Season)},
	})
	result.Stats.DurationMs = time.Since(start).Milliseconds()
	return result
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	f := refreshCmd.Flags()
	f.BoolVar(&refreshFlags.Watch, "watch", false, "keep running and refresh on a schedule")
	f.StringVar(&refreshFlags.Cron, "cron", "", "schedule for --watch (default: refresh_cron from config)")
}
