// Package app wires together configuration, the venue client, the local
// store and the state container into a single Deps struct that commands
// receive at runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/derickschaefer/encore/internal/config"
	"github.com/derickschaefer/encore/internal/favorites"
	"github.com/derickschaefer/encore/internal/refresh"
	"github.com/derickschaefer/encore/internal/settings"
	"github.com/derickschaefer/encore/internal/state"
	"github.com/derickschaefer/encore/internal/store"
	"github.com/derickschaefer/encore/internal/transform"
	"github.com/derickschaefer/encore/internal/venue"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store, Favorites and Settings stay nil until RequireStore is called, so
// commands that never touch disk never open the database.
type Deps struct {
	Config   *config.Config
	Client   *venue.Client
	Location *time.Location
	Logger   *slog.Logger

	Store     *store.Store
	Favorites *favorites.Repo
	Settings  *settings.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", cfg.Locale, err)
	}
	client := venue.NewClient(
		cfg.BaseURL,
		cfg.Timeout,
		cfg.Rate,
		transform.NewBuilder(tag),
		cfg.Debug,
	)
	return &Deps{
		Config:   cfg,
		Client:   client,
		Location: loc,
		Logger:   logger,
	}, nil
}

// RequireStore opens the local database on first use and builds the
// repositories on top of it.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = s
	d.Favorites = favorites.NewRepo(s)
	d.Settings = settings.New(s)
	return nil
}

// Close releases the database if it was opened.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store, d.Favorites, d.Settings = nil, nil, nil
	return err
}

// NewContainer starts a state container seeded from persisted settings,
// with every middleware attached. Settings changed elsewhere are mirrored
// into it until ctx is done. The caller closes the container.
func (d *Deps) NewContainer(ctx context.Context) (*state.Container, error) {
	if err := d.RequireStore(); err != nil {
		return nil, err
	}
	w := d.Settings.Watch()
	c := state.NewContainer(
		state.Initial(d.Settings.Snapshot()),
		state.Reduce,
		d.Logger,
		state.FetchMiddleware(d.Client, d.Store),
		state.NewSearch().Middleware,
		state.FavouritesMiddleware(d.Favorites),
		state.SettingsMiddleware(w),
	)
	state.Mirror(ctx, c, w)
	return c, nil
}

// Refresher returns a background refresher writing to the store.
func (d *Deps) Refresher() (*refresh.Refresher, error) {
	if err := d.RequireStore(); err != nil {
		return nil, err
	}
	return refresh.New(d.Client, d.Store, d.Location), nil
}
