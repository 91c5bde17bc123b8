package state

import (
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
)

// Domain partitions actions by the sub-state they affect.
type Domain int

const (
	DomainList Domain = iota
	DomainSettings
	DomainOnboarding
	DomainSpotify
)

// Action describes a requested transition or the outcome of an effect.
type Action interface {
	Domain() Domain
}

// Keyed is implemented by actions whose effects supersede earlier effects
// with the same key. When a keyed action is dispatched, follow-ups still
// pending from the previous one are dropped.
type Keyed interface {
	EffectKey() string
}

// ─── List ─────────────────────────────────────────────────────────────────────

// GetEventsRequest asks for events in [From, To] (yyyyMMdd).
type GetEventsRequest struct{ From, To string }

// GetEventsComplete replaces the event list. Fresh marks a list that came
// straight from the network rather than from a search or the offline cache.
type GetEventsComplete struct {
	Events []model.EventModel
	Fresh  bool
}

type GetEventsError struct{ Err error }

// SearchEvent records a title search. Filtering happens in middleware.
type SearchEvent struct{ Query string }

type GetFavouritesRequest struct{}
type GetFavouritesComplete struct{ Favourites []model.EventModel }
type GetFavouritesError struct{ Err error }

type ToggleFavourite struct{ Event model.EventModel }
type ToggleFavouriteComplete struct{ Favourites []model.EventModel }

// ToggleFavouriteError reports a toggle that could not be saved. The stored
// favourites are unchanged.
type ToggleFavouriteError struct {
	Event model.EventModel
	Err   error
}

type HideTabBar struct{}
type ShowTabBar struct{}

func (GetEventsRequest) Domain() Domain        { return DomainList }
func (GetEventsComplete) Domain() Domain       { return DomainList }
func (GetEventsError) Domain() Domain          { return DomainList }
func (SearchEvent) Domain() Domain             { return DomainList }
func (GetFavouritesRequest) Domain() Domain    { return DomainList }
func (GetFavouritesComplete) Domain() Domain   { return DomainList }
func (GetFavouritesError) Domain() Domain      { return DomainList }
func (ToggleFavourite) Domain() Domain         { return DomainList }
func (ToggleFavouriteComplete) Domain() Domain { return DomainList }
func (ToggleFavouriteError) Domain() Domain    { return DomainList }
func (HideTabBar) Domain() Domain              { return DomainList }
func (ShowTabBar) Domain() Domain              { return DomainList }

func (GetEventsRequest) EffectKey() string { return "events.fetch" }

// ─── Settings ─────────────────────────────────────────────────────────────────

type SetDarkMode struct{ On bool }
type SetSystemColorScheme struct{ On bool }
type SetShowImages struct{ On bool }
type SetHideCancelled struct{ On bool }
type PushSpotifySettings struct{}
type SpotifySettingsPushed struct{}

// SettingsLoaded mirrors a settings snapshot that changed outside the
// container. It is not persisted again.
type SettingsLoaded struct{ Snapshot settings.Snapshot }

func (SetDarkMode) Domain() Domain           { return DomainSettings }
func (SetSystemColorScheme) Domain() Domain  { return DomainSettings }
func (SetShowImages) Domain() Domain         { return DomainSettings }
func (SetHideCancelled) Domain() Domain      { return DomainSettings }
func (PushSpotifySettings) Domain() Domain   { return DomainSettings }
func (SpotifySettingsPushed) Domain() Domain { return DomainSettings }
func (SettingsLoaded) Domain() Domain        { return DomainSettings }

// ─── Onboarding ───────────────────────────────────────────────────────────────

type SetHasSeenOnboarding struct{ Seen bool }

// OnboardingLoaded mirrors an onboarding flag that changed outside the
// container.
type OnboardingLoaded struct{ Seen bool }

func (SetHasSeenOnboarding) Domain() Domain { return DomainOnboarding }
func (OnboardingLoaded) Domain() Domain     { return DomainOnboarding }

// ─── Spotify ──────────────────────────────────────────────────────────────────

type SpotifyLoginRequest struct{}
type SpotifyLoginComplete struct{}
type SpotifyLoginError struct{ Err error }
type SpotifySearchComplete struct{ Found bool }
type SpotifyLogout struct{}

func (SpotifyLoginRequest) Domain() Domain   { return DomainSpotify }
func (SpotifyLoginComplete) Domain() Domain  { return DomainSpotify }
func (SpotifyLoginError) Domain() Domain     { return DomainSpotify }
func (SpotifySearchComplete) Domain() Domain { return DomainSpotify }
func (SpotifyLogout) Domain() Domain         { return DomainSpotify }
