// Package favorites keeps the user's favourited events, keyed by event ID.
package favorites

import (
	"log/slog"

	"github.com/derickschaefer/encore/internal/model"
)

// Backend is the persistence the repository reads and overwrites.
// *store.Store satisfies it.
type Backend interface {
	GetFavorites() ([]model.EventModel, bool, error)
	PutFavorites([]model.EventModel) error
}

// Repo reads and toggles favourites.
type Repo struct {
	backend Backend
}

// NewRepo returns a Repo over backend.
func NewRepo(backend Backend) *Repo {
	return &Repo{backend: backend}
}

// GetAll returns the stored favourites. A missing key and an undecodable
// blob both report ok=false; callers decide what "no data" means.
func (r *Repo) GetAll() ([]model.EventModel, bool) {
	list, ok, err := r.backend.GetFavorites()
	if err != nil {
		slog.Warn("favorites unreadable, treating as absent", "err", err)
		return nil, false
	}
	return list, ok
}

// Toggle favourites ev if absent and un-favourites it if present, then
// overwrites the whole stored collection.
//
// Read and write are separate transactions. Two overlapping toggles can
// both read the same collection and the second write wins.
func (r *Repo) Toggle(ev model.EventModel) ([]model.EventModel, error) {
	current, _ := r.GetAll()
	next := Toggle(current, ev)
	if err := r.backend.PutFavorites(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Contains reports whether an event with id is favourited.
func (r *Repo) Contains(id string) bool {
	list, _ := r.GetAll()
	return model.IndexOf(list, id) >= 0
}

// Toggle returns a new collection with ev removed if an entry with the same
// ID exists, or appended otherwise. list is not modified.
func Toggle(list []model.EventModel, ev model.EventModel) []model.EventModel {
	if i := model.IndexOf(list, ev.ID); i >= 0 {
		out := make([]model.EventModel, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...)
	}
	out := make([]model.EventModel, 0, len(list)+1)
	out = append(out, list...)
	return append(out, ev)
}
