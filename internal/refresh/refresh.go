// Package refresh keeps the stored event snapshot current without a UI
// attached. It fetches today's events and the rest of the season, saves the
// season as the latest snapshot, and can repeat on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/util"
)

// Fetcher is the callback-shaped event source. *venue.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, from, to string, done func([]model.EventModel, error))
}

// Saver stores the snapshot. *store.Store satisfies it.
type Saver interface {
	PutLatestEvents(model.EventSnapshot) error
}

// Summary reports one refresh run.
type Summary struct {
	Today     []model.EventModel `json:"today" yaml:"today"`
	From      string             `json:"from" yaml:"from"`
	To        string             `json:"to" yaml:"to"`
	Season    int                `json:"season" yaml:"season"`
	FetchedAt time.Time          `json:"fetched_at" yaml:"fetched_at"`
}

// Refresher runs refreshes.
type Refresher struct {
	src Fetcher
	dst Saver
	loc *time.Location

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// New returns a Refresher that computes "today" in loc.
func New(src Fetcher, dst Saver, loc *time.Location) *Refresher {
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{src: src, dst: dst, loc: loc, Now: time.Now}
}

// RunOnce fetches today and today→31 December concurrently. The snapshot is
// saved only when both succeed.
func (r *Refresher) RunOnce(ctx context.Context) (Summary, error) {
	today := util.Today(r.Now(), r.loc)
	from := util.VenueDate(today)
	to := util.VenueDate(util.EndOfYear(today))

	var todays, season []model.EventModel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todays, err = fetch(gctx, r.src, from, from)
		if err != nil {
			return fmt.Errorf("today's events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		season, err = fetch(gctx, r.src, from, to)
		if err != nil {
			return fmt.Errorf("events %s–%s: %w", from, to, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	fetchedAt := r.Now().UTC()
	snap := model.EventSnapshot{From: from, To: to, FetchedAt: fetchedAt, Events: season}
	if err := r.dst.PutLatestEvents(snap); err != nil {
		return Summary{}, fmt.Errorf("saving snapshot: %w", err)
	}
	slog.Info("refresh complete", "from", from, "to", to, "season", len(season), "today", len(todays))
	return Summary{Today: todays, From: from, To: to, Season: len(season), FetchedAt: fetchedAt}, nil
}

// Schedule runs RunOnce on spec (standard five-field cron or a descriptor
// such as "@hourly") until ctx is done. Runs never overlap.
func (r *Refresher) Schedule(ctx context.Context, spec string) error {
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Warn("scheduled refresh failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	slog.Info("refresh scheduled", "spec", spec, "tz", r.loc.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// fetch adapts the callback shape to a blocking call.
func fetch(ctx context.Context, src Fetcher, from, to string) ([]model.EventModel, error) {
	type result struct {
		events []model.EventModel
		err    error
	}
	ch := make(chan result, 1)
	src.Fetch(ctx, from, to, func(events []model.EventModel, err error) {
		ch <- result{events, err}
	})
	select {
	case res := <-ch:
		return res.events, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
