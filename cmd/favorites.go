package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/app"
	"github.com/derickschaefer/encore/internal/calendar"
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/pipeline"
	"github.com/derickschaefer/encore/internal/state"
	"github.com/derickschaefer/encore/internal/util"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav", "favourites"},
	Short:   "Manage favourite events",
}

// ─── favorites list ───────────────────────────────────────────────────────────

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favourite events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		favs, err := loadFavourites(cmd.Context(), deps)
		if err != nil {
			return err
		}
		result := buildEventsResult("favorites list", favs, start)
		if len(favs) == 0 {
			result.Warnings = append(result.Warnings, "no favourites yet; star one with `encore favorites toggle <ID>`")
		}
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// loadFavourites reads favourites through a container so a missing
// collection shows as empty.
func loadFavourites(ctx context.Context, deps *app.Deps) ([]model.EventModel, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c, err := deps.NewContainer(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	c.Dispatch(state.GetFavouritesRequest{})
	if err := settle(ctx, c); err != nil {
		return nil, err
	}
	return c.State().List.Favourites, nil
}

// ─── favorites toggle ─────────────────────────────────────────────────────────

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <EVENT_ID>",
	Short: "Add an event to favourites, or remove it if already there",
	Example: `  encore favorites toggle 4711
  encore fav toggle 4711 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		c.Dispatch(state.GetFavouritesRequest{})
		if err := settle(ctx, c); err != nil {
			return err
		}

		ev, err := findEvent(ctx, deps, c.State().List.Favourites, args[0])
		if err != nil {
			return err
		}

		c.Dispatch(state.ToggleFavourite{Event: ev})
		if err := settle(ctx, c); err != nil {
			return err
		}

		list := c.State().List
		if list.FavouriteError != "" {
			return fmt.Errorf("toggling favourite %s: %s", ev.ID, list.FavouriteError)
		}
		verb := "removed from"
		if list.IsFavourite(ev.ID) {
			verb = "added to"
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(os.Stderr, "%s %s favourites\n", ev.Title, verb)
		}
		return emit(cmd.OutOrStdout(), deps, buildEventsResult("favorites toggle", list.Favourites, start))
	},
}

// findEvent looks id up in the current favourites, then the saved listing,
// then the venue's season listing.
func findEvent(ctx context.Context, deps *app.Deps, favs []model.EventModel, id string) (model.EventModel, error) {
	if i := model.IndexOf(favs, id); i >= 0 {
		return favs[i], nil
	}
	if snap, ok, err := deps.Store.GetLatestEvents(); err == nil && ok {
		if i := model.IndexOf(snap.Events, id); i >= 0 {
			return snap.Events[i], nil
		}
	}
	from, to := seasonRange(deps, time.Now())
	events, err := deps.Client.FetchEvents(ctx, from, to)
	if err != nil {
		return model.EventModel{}, fmt.Errorf("looking up event %s: %w", id, err)
	}
	if i := model.IndexOf(events, id); i >= 0 {
		return events[i], nil
	}
	return model.EventModel{}, fmt.Errorf("no event with id %q between %s and %s", id, from, to)
}

// ─── favorites export ─────────────────────────────────────────────────────────

var favoritesExportFlags struct {
	ICS  bool
	Name string
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write favourites as JSONL, or as an iCalendar file",
	Example: `  encore favorites export > favourites.jsonl
  encore favorites export --ics --out favourites.ics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		favs, err := loadFavourites(cmd.Context(), deps)
		if err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		if !favoritesExportFlags.ICS {
			return pipeline.WriteJSONL(w, favs)
		}
		skipped, err := calendar.Write(w, favoritesExportFlags.Name, favs, deps.Location, time.Now())
		if err != nil {
			return err
		}
		if len(skipped) > 0 && !deps.Config.Quiet {
			fmt.Fprintf(os.Stderr, "skipped %d event(s) with unreadable dates: %v\n", len(skipped), skipped)
		}
		return closeFn()
	},
}

// ─── favorites import ─────────────────────────────────────────────────────────

var favoritesImportCmd = &cobra.Command{
	Use:   "import [FILE|-]",
	Short: "Merge favourites from a JSONL file or stdin",
	Long: `Read one event per line, as written by 'favorites export', and add
every event not already favourited. Unreadable lines are reported and
skipped.`,
	Example: `  encore favorites import favourites.jsonl
  cat favourites.jsonl | encore favorites import`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			in = f
		}

		incoming, readErr := pipeline.ReadEvents(in)
		var warnings []string
		var bad *util.MultiError
		switch {
		case readErr == nil:
		case errors.As(readErr, &bad) && len(incoming) > 0:
			for _, e := range bad.Errors {
				warnings = append(warnings, e.Error())
			}
		default:
			return readErr
		}

		if err := deps.RequireStore(); err != nil {
			return err
		}
		current, _ := deps.Favorites.GetAll()
		merged, added := mergeFavourites(current, incoming)
		if added > 0 {
			if err := deps.Store.PutFavorites(merged); err != nil {
				return err
			}
		}
		warnings = append(warnings, fmt.Sprintf("%d imported, %d already favourited", added, len(incoming)-added))

		result := buildEventsResult("favorites import", merged, start)
		result.Warnings = warnings
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// mergeFavourites appends every incoming event whose ID is not yet in
// current and reports how many were added.
func mergeFavourites(current, incoming []model.EventModel) ([]model.EventModel, int) {
	merged := make([]model.EventModel, 0, len(current)+len(incoming))
	merged = append(merged, current...)
	added := 0
	for _, ev := range incoming {
		if model.IndexOf(merged, ev.ID) >= 0 {
			continue
		}
		merged = append(merged, ev)
		added++
	}
	return merged, added
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesExportCmd)
	favoritesCmd.AddCommand(favoritesImportCmd)

	f := favoritesExportCmd.Flags()
	f.BoolVar(&favoritesExportFlags.ICS, "ics", false, "write an iCalendar (.ics) file instead of JSONL")
	f.StringVar(&favoritesExportFlags.Name, "name", "Encore favourites", "calendar name shown by calendar apps")
}
