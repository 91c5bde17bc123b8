package state

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
	"github.com/derickschaefer/encore/internal/venue"
)

// ErrNoFavourites is reported when no favourites collection was ever saved.
var ErrNoFavourites = errors.New("no favourites saved")

// emit returns a closed channel holding actions.
func emit(actions ...Action) <-chan Action {
	out := make(chan Action, len(actions))
	for _, a := range actions {
		out <- a
	}
	close(out)
	return out
}

// ─── Fetch ────────────────────────────────────────────────────────────────────

// EventStreamer is the event source. *venue.Client satisfies it.
type EventStreamer interface {
	Stream(ctx context.Context, from, to string) <-chan venue.Result
}

// SnapshotStore keeps the last successful fetch. *store.Store satisfies it.
type SnapshotStore interface {
	GetLatestEvents() (model.EventSnapshot, bool, error)
	PutLatestEvents(model.EventSnapshot) error
}

// FetchMiddleware answers GetEventsRequest from src. Successful results are
// saved to snaps. When a fetch fails while the list is still empty, the
// saved snapshot is shown before the error is reported. snaps may be nil.
func FetchMiddleware(src EventStreamer, snaps SnapshotStore) Middleware {
	return func(ctx context.Context, s State, a Action) <-chan Action {
		req, ok := a.(GetEventsRequest)
		if !ok {
			return nil
		}
		out := make(chan Action)
		go func() {
			defer close(out)
			for res := range src.Stream(ctx, req.From, req.To) {
				if res.Err != nil {
					if len(s.List.Events) == 0 {
						if cached, ok := latest(snaps); ok {
							out <- GetEventsComplete{Events: cached.Events}
						}
					}
					out <- GetEventsError{Err: res.Err}
					continue
				}
				if snaps != nil {
					snap := model.EventSnapshot{From: req.From, To: req.To, Events: res.Events}
					if err := snaps.PutLatestEvents(snap); err != nil {
						slog.Warn("saving latest events", "err", err)
					}
				}
				out <- GetEventsComplete{Events: res.Events, Fresh: true}
			}
		}()
		return out
	}
}

func latest(snaps SnapshotStore) (model.EventSnapshot, bool) {
	if snaps == nil {
		return model.EventSnapshot{}, false
	}
	snap, ok, err := snaps.GetLatestEvents()
	if err != nil {
		slog.Warn("reading latest events", "err", err)
		return model.EventSnapshot{}, false
	}
	return snap, ok && len(snap.Events) > 0
}

// ─── Search ───────────────────────────────────────────────────────────────────

// Search filters the event list by title. The first non-empty query caches
// the full list; clearing the query restores it. A fresh fetch while a
// search is active replaces the cache and re-applies the query.
type Search struct {
	mu     sync.Mutex
	active bool
	cached []model.EventModel
}

func NewSearch() *Search { return &Search{} }

// Middleware is the Search's middleware func.
func (m *Search) Middleware(_ context.Context, s State, a Action) <-chan Action {
	switch a := a.(type) {
	case SearchEvent:
		m.mu.Lock()
		defer m.mu.Unlock()
		if a.Query == "" {
			if !m.active {
				return nil
			}
			restored := m.cached
			m.active, m.cached = false, nil
			return emit(GetEventsComplete{Events: restored})
		}
		if !m.active {
			m.active, m.cached = true, s.List.Events
		}
		return emit(GetEventsComplete{Events: FilterByTitle(m.cached, a.Query)})

	case GetEventsComplete:
		if !a.Fresh {
			return nil
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.active {
			return nil
		}
		m.cached = a.Events
		return emit(GetEventsComplete{Events: FilterByTitle(a.Events, s.List.CurrentSearch)})
	}
	return nil
}

// FilterByTitle keeps events whose title contains query, ignoring case.
// Order is preserved.
func FilterByTitle(events []model.EventModel, query string) []model.EventModel {
	fold := cases.Fold()
	q := fold.String(query)
	out := make([]model.EventModel, 0, len(events))
	for _, e := range events {
		if strings.Contains(fold.String(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}

// ─── Favourites ───────────────────────────────────────────────────────────────

// FavouritesRepo is the favourites collection. *favorites.Repo satisfies it.
type FavouritesRepo interface {
	GetAll() ([]model.EventModel, bool)
	Toggle(model.EventModel) ([]model.EventModel, error)
}

// FavouritesMiddleware loads and toggles favourites through repo.
func FavouritesMiddleware(repo FavouritesRepo) Middleware {
	return func(_ context.Context, _ State, a Action) <-chan Action {
		switch a := a.(type) {
		case GetFavouritesRequest:
			out := make(chan Action, 1)
			go func() {
				defer close(out)
				list, ok := repo.GetAll()
				if !ok {
					out <- GetFavouritesError{Err: ErrNoFavourites}
					return
				}
				out <- GetFavouritesComplete{Favourites: list}
			}()
			return out

		case ToggleFavourite:
			out := make(chan Action, 1)
			go func() {
				defer close(out)
				list, err := repo.Toggle(a.Event)
				if err != nil {
					slog.Warn("toggling favourite", "id", a.Event.ID, "err", err)
					out <- ToggleFavouriteError{Event: a.Event, Err: err}
					return
				}
				out <- ToggleFavouriteComplete{Favourites: list}
			}()
			return out
		}
		return nil
	}
}

// ─── Settings ─────────────────────────────────────────────────────────────────

// SettingsWriter persists flags. *settings.Store satisfies it.
type SettingsWriter interface {
	Set(settings.Flag, bool) error
}

// SettingsMiddleware persists every settings and onboarding change made
// through the container. Writes happen one at a time, in dispatch order.
func SettingsMiddleware(w SettingsWriter) Middleware {
	var (
		mu   sync.Mutex
		prev <-chan struct{}
	)
	return func(_ context.Context, _ State, a Action) <-chan Action {
		flag, v, ok := flagFor(a)
		if !ok {
			return nil
		}
		mu.Lock()
		wait := prev
		done := make(chan struct{})
		prev = done
		mu.Unlock()

		out := make(chan Action)
		go func() {
			defer close(out)
			defer close(done)
			if wait != nil {
				<-wait
			}
			if err := w.Set(flag, v); err != nil {
				slog.Warn("saving setting", "flag", flag, "err", err)
			}
		}()
		return out
	}
}

func flagFor(a Action) (settings.Flag, bool, bool) {
	switch a := a.(type) {
	case SetDarkMode:
		return settings.DarkMode, a.On, true
	case SetSystemColorScheme:
		return settings.SystemColorScheme, a.On, true
	case SetShowImages:
		return settings.ShowImages, a.On, true
	case SetHideCancelled:
		return settings.HideCancelled, a.On, true
	case SetHasSeenOnboarding:
		return settings.HasSeenOnboarding, a.Seen, true
	}
	return "", false, false
}

// Mirror forwards settings changes made outside the container until ctx is
// done. w should be the same Watch the container's SettingsMiddleware
// writes through, so the container's own writes are not replayed.
func Mirror(ctx context.Context, c *Container, w *settings.Watch) {
	go func() {
		defer w.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-w.C:
				if !ok {
					return
				}
				c.Dispatch(SettingsLoaded{Snapshot: snap})
				c.Dispatch(OnboardingLoaded{Seen: snap.HasSeenOnboarding})
			}
		}
	}()
}
