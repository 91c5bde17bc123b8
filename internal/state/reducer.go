package state

// Reducer computes the next state. It must not have side effects.
type Reducer func(State, Action) State

// Reduce is the root reducer. It hands the action to the sub-reducer for its
// domain; every other sub-state is carried over untouched.
func Reduce(s State, a Action) State {
	switch a.Domain() {
	case DomainList:
		s.List = reduceList(s.List, a)
	case DomainSettings:
		s.Settings = reduceSettings(s.Settings, a)
	case DomainOnboarding:
		s.Onboarding = reduceOnboarding(s.Onboarding, a)
	case DomainSpotify:
		s.Spotify = reduceSpotify(s.Spotify, a)
	}
	return s
}

func reduceList(s ListState, a Action) ListState {
	switch a := a.(type) {
	case GetEventsRequest:
		s.IsFetching = true
	case GetEventsComplete:
		s.IsFetching = false
		s.FetchError = ""
		s.Events = a.Events
	case GetEventsError:
		s.IsFetching = false
		s.FetchError = errorText(a.Err)
	case SearchEvent:
		s.CurrentSearch = a.Query
	case GetFavouritesComplete:
		s.Favourites = a.Favourites
	case ToggleFavourite:
		s.FavouriteError = ""
	case ToggleFavouriteComplete:
		s.Favourites = a.Favourites
	case ToggleFavouriteError:
		s.FavouriteError = errorText(a.Err)
	case HideTabBar:
		s.IsShowingTabBar = false
	case ShowTabBar:
		s.IsShowingTabBar = true
	}
	// GetFavouritesRequest and GetFavouritesError leave the list as it is;
	// their work happens in middleware.
	return s
}

func reduceSettings(s SettingsState, a Action) SettingsState {
	switch a := a.(type) {
	case SetDarkMode:
		s.DarkMode = a.On
	case SetSystemColorScheme:
		s.SystemColorScheme = a.On
	case SetShowImages:
		s.ShowImages = a.On
	case SetHideCancelled:
		s.HideCancelled = a.On
	case PushSpotifySettings:
		s.PushSpotifySettings = true
	case SpotifySettingsPushed:
		s.PushSpotifySettings = false
	case SettingsLoaded:
		s.DarkMode = a.Snapshot.DarkMode
		s.SystemColorScheme = a.Snapshot.SystemColorScheme
		s.ShowImages = a.Snapshot.ShowImages
		s.HideCancelled = a.Snapshot.HideCancelled
	}
	return s
}

func reduceOnboarding(s OnboardingState, a Action) OnboardingState {
	switch a := a.(type) {
	case SetHasSeenOnboarding:
		s.HasSeenOnboarding = a.Seen
	case OnboardingLoaded:
		s.HasSeenOnboarding = a.Seen
	}
	return s
}

func reduceSpotify(s SpotifyState, a Action) SpotifyState {
	switch a := a.(type) {
	case SpotifyLoginRequest:
		s.IsLoading = true
		s.Error = ""
	case SpotifyLoginComplete:
		s.IsLoading = false
		s.IsLoggedIn = true
	case SpotifyLoginError:
		s.IsLoading = false
		s.IsLoggedIn = false
		s.Error = errorText(a.Err)
	case SpotifySearchComplete:
		s.HasSearchResult = a.Found
	case SpotifyLogout:
		s = SpotifyState{}
	}
	return s
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
