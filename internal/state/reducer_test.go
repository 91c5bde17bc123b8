package state_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
	"github.com/derickschaefer/encore/internal/state"
)

func ev(id, title string) model.EventModel {
	return model.EventModel{ID: id, Title: title}
}

// ─── List ─────────────────────────────────────────────────────────────────────

func TestRequestSetsFetching(t *testing.T) {
	s := state.Reduce(state.State{}, state.GetEventsRequest{From: "20240101", To: "20240101"})
	if !s.List.IsFetching {
		t.Error("IsFetching should be true after a request")
	}
}

func TestCompleteReplacesEventsAndClearsError(t *testing.T) {
	s := state.State{List: state.ListState{IsFetching: true, FetchError: "boom"}}
	events := []model.EventModel{ev("1", "A"), ev("2", "B")}
	s = state.Reduce(s, state.GetEventsComplete{Events: events})

	if s.List.IsFetching {
		t.Error("IsFetching should be false")
	}
	if s.List.FetchError != "" {
		t.Errorf("FetchError should be cleared, got %q", s.List.FetchError)
	}
	if !reflect.DeepEqual(s.List.Events, events) {
		t.Errorf("events: %+v", s.List.Events)
	}
}

func TestErrorKeepsEvents(t *testing.T) {
	events := []model.EventModel{ev("1", "A")}
	s := state.State{List: state.ListState{IsFetching: true, Events: events}}
	s = state.Reduce(s, state.GetEventsError{Err: errors.New("offline")})

	if s.List.IsFetching {
		t.Error("IsFetching should be false")
	}
	if s.List.FetchError != "offline" {
		t.Errorf("FetchError: %q", s.List.FetchError)
	}
	if len(s.List.Events) != 1 {
		t.Error("events should survive a failed fetch")
	}
}

func TestRequestThenCompleteClearsStaleError(t *testing.T) {
	s := state.Reduce(state.State{}, state.GetEventsError{Err: errors.New("x")})
	s = state.Reduce(s, state.GetEventsRequest{})
	s = state.Reduce(s, state.GetEventsComplete{Events: []model.EventModel{}})
	if s.List.FetchError != "" || s.List.IsFetching {
		t.Errorf("unexpected list state: %+v", s.List)
	}
}

func TestSearchOnlyRecordsQuery(t *testing.T) {
	events := []model.EventModel{ev("1", "A")}
	s := state.State{List: state.ListState{Events: events}}
	s = state.Reduce(s, state.SearchEvent{Query: "zzz"})
	if s.List.CurrentSearch != "zzz" {
		t.Errorf("CurrentSearch: %q", s.List.CurrentSearch)
	}
	if len(s.List.Events) != 1 {
		t.Error("the reducer must not filter")
	}
}

func TestFavouritesReplaced(t *testing.T) {
	favs := []model.EventModel{ev("9", "Z")}
	s := state.Reduce(state.State{}, state.GetFavouritesComplete{Favourites: favs})
	if !s.List.IsFavourite("9") {
		t.Error("favourite 9 expected")
	}
	s = state.Reduce(s, state.ToggleFavouriteComplete{Favourites: nil})
	if s.List.IsFavourite("9") {
		t.Error("favourites should be replaced")
	}
}

func TestToggleErrorClearedByNextToggle(t *testing.T) {
	favs := []model.EventModel{ev("9", "Z")}
	s := state.Reduce(state.State{}, state.GetFavouritesComplete{Favourites: favs})
	s = state.Reduce(s, state.ToggleFavouriteError{Event: ev("1", "A"), Err: errors.New("disk full")})
	if s.List.FavouriteError != "disk full" || !s.List.IsFavourite("9") {
		t.Errorf("after error: %+v", s.List)
	}
	s = state.Reduce(s, state.ToggleFavourite{Event: ev("1", "A")})
	if s.List.FavouriteError != "" {
		t.Errorf("new toggle should clear the error, got %q", s.List.FavouriteError)
	}
}

func TestTabBar(t *testing.T) {
	s := state.Initial(settings.Snapshot{})
	if !s.List.IsShowingTabBar {
		t.Fatal("tab bar shows initially")
	}
	s = state.Reduce(s, state.HideTabBar{})
	if s.List.IsShowingTabBar {
		t.Error("tab bar should be hidden")
	}
	s = state.Reduce(s, state.ShowTabBar{})
	if !s.List.IsShowingTabBar {
		t.Error("tab bar should be shown")
	}
}

// ─── Isolation ────────────────────────────────────────────────────────────────

func TestDomainsAreIsolated(t *testing.T) {
	before := state.Initial(settings.Snapshot{ShowImages: true})
	before.List.Events = []model.EventModel{ev("1", "A")}

	after := state.Reduce(before, state.SetDarkMode{On: true})
	if !reflect.DeepEqual(before.List, after.List) {
		t.Error("settings action changed list state")
	}
	if before.Settings.DarkMode {
		t.Error("input state was mutated")
	}

	after = state.Reduce(before, state.SpotifyLoginRequest{})
	if !reflect.DeepEqual(before.Settings, after.Settings) || !reflect.DeepEqual(before.List, after.List) {
		t.Error("spotify action leaked into other sub-states")
	}
}

// ─── Settings & onboarding ────────────────────────────────────────────────────

func TestSettingsFlags(t *testing.T) {
	s := state.State{}
	s = state.Reduce(s, state.SetDarkMode{On: true})
	s = state.Reduce(s, state.SetSystemColorScheme{On: true})
	s = state.Reduce(s, state.SetShowImages{On: true})
	s = state.Reduce(s, state.SetHideCancelled{On: true})
	want := state.SettingsState{DarkMode: true, SystemColorScheme: true, ShowImages: true, HideCancelled: true}
	if s.Settings != want {
		t.Errorf("settings: %+v", s.Settings)
	}
}

func TestPushSpotifySettingsIsOneShot(t *testing.T) {
	s := state.Reduce(state.State{}, state.PushSpotifySettings{})
	if !s.Settings.PushSpotifySettings {
		t.Fatal("push flag should be set")
	}
	s = state.Reduce(s, state.SpotifySettingsPushed{})
	if s.Settings.PushSpotifySettings {
		t.Error("push flag should be reset")
	}
}

func TestSettingsLoadedKeepsPushFlag(t *testing.T) {
	s := state.State{Settings: state.SettingsState{PushSpotifySettings: true}}
	s = state.Reduce(s, state.SettingsLoaded{Snapshot: settings.Snapshot{DarkMode: true}})
	if !s.Settings.DarkMode || !s.Settings.PushSpotifySettings {
		t.Errorf("settings: %+v", s.Settings)
	}
}

func TestOnboarding(t *testing.T) {
	s := state.Reduce(state.State{}, state.SetHasSeenOnboarding{Seen: true})
	if !s.Onboarding.HasSeenOnboarding {
		t.Error("onboarding should be seen")
	}
	s = state.Reduce(s, state.OnboardingLoaded{Seen: false})
	if s.Onboarding.HasSeenOnboarding {
		t.Error("loaded value should win")
	}
}

// ─── Spotify ──────────────────────────────────────────────────────────────────

func TestSpotifyLoginFlow(t *testing.T) {
	s := state.Reduce(state.State{}, state.SpotifyLoginRequest{})
	if !s.Spotify.IsLoading {
		t.Fatal("IsLoading expected")
	}
	s = state.Reduce(s, state.SpotifyLoginError{Err: errors.New("denied")})
	if s.Spotify.IsLoading || s.Spotify.IsLoggedIn || s.Spotify.Error != "denied" {
		t.Errorf("after error: %+v", s.Spotify)
	}
	s = state.Reduce(s, state.SpotifyLoginRequest{})
	s = state.Reduce(s, state.SpotifyLoginComplete{})
	if !s.Spotify.IsLoggedIn || s.Spotify.Error != "" {
		t.Errorf("after login: %+v", s.Spotify)
	}
	s = state.Reduce(s, state.SpotifySearchComplete{Found: true})
	s = state.Reduce(s, state.SpotifyLogout{})
	if s.Spotify != (state.SpotifyState{}) {
		t.Errorf("logout should reset: %+v", s.Spotify)
	}
}

// ─── Derived views ────────────────────────────────────────────────────────────

func TestVisibleHonoursHideCancelled(t *testing.T) {
	c := ev("2", "B")
	c.IsCancelled = true
	s := state.State{List: state.ListState{Events: []model.EventModel{ev("1", "A"), c}}}
	if len(s.Visible()) != 2 {
		t.Error("all events visible by default")
	}
	s.Settings.HideCancelled = true
	v := s.Visible()
	if len(v) != 1 || v[0].ID != "1" {
		t.Errorf("visible: %+v", v)
	}
}
