// Package state holds encore's single state tree and the container that
// serialises every change to it.
//
// State only changes inside Reduce, which is pure. Side effects (network,
// persistence) live in middlewares that watch (state, action) pairs and feed
// follow-up actions back through the same dispatch queue.
package state

import (
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
)

// State is the root of the tree. Sub-states are plain values; reducers
// replace them, never edit them in place, so a State handed out to a reader
// stays valid after later dispatches.
type State struct {
	List       ListState
	Settings   SettingsState
	Onboarding OnboardingState
	Spotify    SpotifyState
}

// ListState backs the event list.
type ListState struct {
	IsFetching      bool
	FetchError      string // empty when the last fetch succeeded
	Events          []model.EventModel
	Favourites      []model.EventModel
	FavouriteError  string // set when the last toggle failed
	CurrentSearch   string
	IsShowingTabBar bool
}

// SettingsState mirrors the persisted preference flags.
type SettingsState struct {
	DarkMode          bool
	SystemColorScheme bool
	ShowImages        bool
	HideCancelled     bool

	// PushSpotifySettings is a one-shot signal, reset by SpotifySettingsPushed.
	PushSpotifySettings bool
}

// OnboardingState tracks first-run onboarding.
type OnboardingState struct {
	HasSeenOnboarding bool
}

// SpotifyState carries the streaming-service connection flags. The service
// integration itself lives outside this package.
type SpotifyState struct {
	IsLoggedIn      bool
	IsLoading       bool
	Error           string
	HasSearchResult bool
}

// Initial builds the starting state from persisted settings.
func Initial(snap settings.Snapshot) State {
	return State{
		List: ListState{IsShowingTabBar: true},
		Settings: SettingsState{
			DarkMode:          snap.DarkMode,
			SystemColorScheme: snap.SystemColorScheme,
			ShowImages:        snap.ShowImages,
			HideCancelled:     snap.HideCancelled,
		},
		Onboarding: OnboardingState{HasSeenOnboarding: snap.HasSeenOnboarding},
	}
}

// IsFavourite reports whether the event with id is in the favourites list.
func (s ListState) IsFavourite(id string) bool {
	return model.IndexOf(s.Favourites, id) >= 0
}

// Visible returns the events a list view should show, honouring the
// hide-cancelled preference.
func (s State) Visible() []model.EventModel {
	if !s.Settings.HideCancelled {
		return s.List.Events
	}
	out := make([]model.EventModel, 0, len(s.List.Events))
	for _, e := range s.List.Events {
		if !e.IsCancelled {
			out = append(out, e)
		}
	}
	return out
}
