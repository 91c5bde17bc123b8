package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/app"
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/pipeline"
	"github.com/derickschaefer/encore/internal/render"
	"github.com/derickschaefer/encore/internal/state"
	"github.com/derickschaefer/encore/internal/util"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming events",
	Long: `Fetch the venue's event listing.

Every successful fetch is saved locally. When the venue cannot be reached,
the saved listing is shown instead, with a warning.`,
}

// ─── events list ──────────────────────────────────────────────────────────────

var eventsListFlags struct {
	From   string
	To     string
	Search string
	All    bool
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events from today to the end of the year",
	Example: `  encore events list
  encore events list --from 2024-03-01 --to 2024-03-31
  encore events list --search jazz
  encore events list --all --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		from, to, err := resolveRange(deps, eventsListFlags.From, eventsListFlags.To, time.Now())
		if err != nil {
			return err
		}
		return listEvents(cmd, deps, "events list", from, to, eventsListFlags.Search, eventsListFlags.All)
	},
}

// ─── events today ─────────────────────────────────────────────────────────────

var eventsTodayAll bool

var eventsTodayCmd = &cobra.Command{
	Use:     "today",
	Short:   "List today's events",
	Example: `  encore events today`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		today := util.VenueDate(util.Today(time.Now(), deps.Location))
		return listEvents(cmd, deps, "events today", today, today, "", eventsTodayAll)
	},
}

// listEvents drives a container through a fetch (and optional search) and
// renders the resulting list.
func listEvents(cmd *cobra.Command, deps *app.Deps, command, from, to, search string, all bool) error {
	start := time.Now()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	c, err := deps.NewContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	c.Dispatch(state.GetFavouritesRequest{})
	c.Dispatch(state.GetEventsRequest{From: from, To: to})
	if err := settle(ctx, c); err != nil {
		return err
	}
	if search != "" {
		c.Dispatch(state.SearchEvent{Query: search})
		if err := settle(ctx, c); err != nil {
			return err
		}
	}

	st := c.State()
	events := st.Visible()
	if all {
		events = st.List.Events
	}

	var warnings []string
	cacheHit := false
	if st.List.FetchError != "" {
		if len(st.List.Events) == 0 {
			return fmt.Errorf("fetching events: %s", st.List.FetchError)
		}
		cacheHit = true
		warnings = append(warnings, "venue unreachable, showing saved listing: "+st.List.FetchError)
		if snap, ok, _ := deps.Store.GetLatestEvents(); ok && (snap.From != from || snap.To != to) {
			warnings = append(warnings, fmt.Sprintf("saved listing covers %s–%s", snap.From, snap.To))
		}
	}
	if hidden := len(st.List.Events) - len(events); hidden > 0 && !all {
		warnings = append(warnings, fmt.Sprintf("%d cancelled event(s) hidden (settings: hide_cancelled)", hidden))
	}

	result := buildEventsResult(command, markFavourites(events, st.List, deps.Config.Format, pipeline.IsTTY()), start)
	result.Warnings = warnings
	result.Stats.CacheHit = cacheHit
	return emit(cmd.OutOrStdout(), deps, result)
}

// markFavourites prefixes favourite titles with a star in table output on a
// terminal. format is the configured default; --format overrides it.
func markFavourites(events []model.EventModel, list state.ListState, format string, tty bool) []model.EventModel {
	if resolveFormat(format) != render.FormatTable || globalFlags.Out != "" || !tty || len(list.Favourites) == 0 {
		return events
	}
	out := make([]model.EventModel, len(events))
	for i, e := range events {
		if list.IsFavourite(e.ID) {
			e.Title = "★ " + e.Title
		}
		out[i] = e
	}
	return out
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsTodayCmd)

	f := eventsListCmd.Flags()
	f.StringVar(&eventsListFlags.From, "from", "", "first day, YYYY-MM-DD or YYYYMMDD (default: today)")
	f.StringVar(&eventsListFlags.To, "to", "", "last day, inclusive (default: 31 December)")
	f.StringVar(&eventsListFlags.Search, "search", "", "only events whose title contains this text")
	f.BoolVar(&eventsListFlags.All, "all", false, "include cancelled events even when hide_cancelled is on")

	eventsTodayCmd.Flags().BoolVar(&eventsTodayAll, "all", false, "include cancelled events")
}
