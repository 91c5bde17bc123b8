// Package settings stores the user's boolean preferences and notifies
// subscribers when one of them changes.
package settings

import (
	"fmt"
	"log/slog"
	"sync"
)

// Flag names a persisted preference. The string is the storage key.
type Flag string

const (
	DarkMode          Flag = "dark_mode"
	SystemColorScheme Flag = "system_color_scheme"
	ShowImages        Flag = "show_images"
	HideCancelled     Flag = "hide_cancelled"
	HasSeenOnboarding Flag = "has_seen_onboarding"
)

// Flags lists every flag in display order.
var Flags = []Flag{DarkMode, SystemColorScheme, ShowImages, HideCancelled, HasSeenOnboarding}

// ParseFlag accepts a flag's storage key.
func ParseFlag(s string) (Flag, error) {
	for _, f := range Flags {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown setting %q", s)
}

// defaults apply to flags that were never written.
var defaults = map[Flag]bool{
	SystemColorScheme: true,
	ShowImages:        true,
}

// Snapshot is the value of every flag at one point in time.
type Snapshot struct {
	DarkMode          bool `json:"dark_mode" yaml:"dark_mode"`
	SystemColorScheme bool `json:"system_color_scheme" yaml:"system_color_scheme"`
	ShowImages        bool `json:"show_images" yaml:"show_images"`
	HideCancelled     bool `json:"hide_cancelled" yaml:"hide_cancelled"`
	HasSeenOnboarding bool `json:"has_seen_onboarding" yaml:"has_seen_onboarding"`
}

// Value returns the snapshot's value for f.
func (s Snapshot) Value(f Flag) bool {
	switch f {
	case DarkMode:
		return s.DarkMode
	case SystemColorScheme:
		return s.SystemColorScheme
	case ShowImages:
		return s.ShowImages
	case HideCancelled:
		return s.HideCancelled
	case HasSeenOnboarding:
		return s.HasSeenOnboarding
	}
	return false
}

func (s *Snapshot) set(f Flag, v bool) {
	switch f {
	case DarkMode:
		s.DarkMode = v
	case SystemColorScheme:
		s.SystemColorScheme = v
	case ShowImages:
		s.ShowImages = v
	case HideCancelled:
		s.HideCancelled = v
	case HasSeenOnboarding:
		s.HasSeenOnboarding = v
	}
}

// Backend persists individual boolean keys. *store.Store satisfies it.
type Backend interface {
	GetBool(key string) (bool, bool, error)
	PutBool(key string, value bool) error
}

// Store reads and writes flags through a Backend and fans changes out to
// subscribers.
type Store struct {
	backend Backend

	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New returns a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, subs: make(map[int]chan Snapshot)}
}

// Get returns the flag's persisted value, or its default. Read failures
// are treated as "never written".
func (s *Store) Get(f Flag) bool {
	v, ok, err := s.backend.GetBool(string(f))
	if err != nil {
		slog.Warn("setting unreadable, using default", "flag", f, "err", err)
		return defaults[f]
	}
	if !ok {
		return defaults[f]
	}
	return v
}

// Snapshot reads every flag.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	for _, f := range Flags {
		snap.set(f, s.Get(f))
	}
	return snap
}

// Set persists v for f. Subscribers are notified only when the value
// actually changed.
func (s *Store) Set(f Flag, v bool) error {
	return s.set(f, v, -1)
}

// set persists v and notifies every subscriber except skip.
func (s *Store) set(f Flag, v bool, skip int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.Get(f)
	if err := s.backend.PutBool(string(f), v); err != nil {
		return fmt.Errorf("saving %s: %w", f, err)
	}
	if old == v {
		return nil
	}
	snap := s.Snapshot()
	for id, ch := range s.subs {
		if id == skip {
			continue
		}
		// Keep only the newest snapshot in each subscriber's buffer.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	return nil
}

// Subscribe returns a channel that receives a Snapshot after every change,
// and a cancel func that closes it. Slow readers only see the latest one.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	_, ch, cancel := s.subscribe()
	return ch, cancel
}

func (s *Store) subscribe() (int, <-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return id, ch, cancel
}

// Watch is a subscription that can also write. Its own writes are not
// echoed back on C, so C only carries changes made by someone else.
type Watch struct {
	C      <-chan Snapshot
	store  *Store
	id     int
	Cancel func()
}

// Watch subscribes like Subscribe and returns a handle for writing.
func (s *Store) Watch() *Watch {
	id, ch, cancel := s.subscribe()
	return &Watch{C: ch, store: s, id: id, Cancel: cancel}
}

// Set persists v for f and notifies every other subscriber.
func (w *Watch) Set(f Flag, v bool) error {
	return w.store.set(f, v, w.id)
}
