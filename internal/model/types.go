// Package model defines the canonical data types used throughout encore.
// These types are the single source of truth for venue events, their
// display-ready form, and the result envelope that every command returns.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ─── Venue Entity Types ───────────────────────────────────────────────────────

// Event is a raw concert listing as delivered by the venue endpoint.
// The JSON key names are fixed by the upstream API and must not change.
type Event struct {
	ID          string  `json:"EventId"`
	Name        string  `json:"Event"`
	SubHeader   string  `json:"SubHeader"`
	Status      string  `json:"EventStatus"`
	Description string  `json:"Description"`
	AgeLimit    string  `json:"AgeLimit"`
	Image       string  `json:"ImageUrl"`
	Date        string  `json:"EventDate"` // yyyy-MM-dd
	Open        string  `json:"Open"`
	Room        string  `json:"Room"`
	Venue       string  `json:"Venue"`
	Slug        *string `json:"VenueSlug,omitempty"`
	Admission   string  `json:"Admission"`
	TicketURL   *string `json:"TicketUrl,omitempty"`
}

// rawEvent mirrors Event with every field optional so that UnmarshalJSON can
// tell a missing key apart from an empty value.
type rawEvent struct {
	ID          *string `json:"EventId"`
	Name        *string `json:"Event"`
	SubHeader   *string `json:"SubHeader"`
	Status      *string `json:"EventStatus"`
	Description *string `json:"Description"`
	AgeLimit    *string `json:"AgeLimit"`
	Image       *string `json:"ImageUrl"`
	Date        *string `json:"EventDate"`
	Open        *string `json:"Open"`
	Room        *string `json:"Room"`
	Venue       *string `json:"Venue"`
	Slug        *string `json:"VenueSlug"`
	Admission   *string `json:"Admission"`
	TicketURL   *string `json:"TicketUrl"`
}

// MissingKeyError reports a required key absent from an event record.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("event record is missing required key %q", e.Key)
}

// UnmarshalJSON decodes an event and rejects records that lack any of the
// required keys. VenueSlug and TicketUrl may be absent or null.
func (e *Event) UnmarshalJSON(data []byte) error {
	var r rawEvent
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	required := []struct {
		key string
		val *string
		dst *string
	}{
		{"EventId", r.ID, &e.ID},
		{"Event", r.Name, &e.Name},
		{"SubHeader", r.SubHeader, &e.SubHeader},
		{"EventStatus", r.Status, &e.Status},
		{"Description", r.Description, &e.Description},
		{"AgeLimit", r.AgeLimit, &e.AgeLimit},
		{"ImageUrl", r.Image, &e.Image},
		{"EventDate", r.Date, &e.Date},
		{"Open", r.Open, &e.Open},
		{"Room", r.Room, &e.Room},
		{"Venue", r.Venue, &e.Venue},
		{"Admission", r.Admission, &e.Admission},
	}
	for _, f := range required {
		if f.val == nil {
			return &MissingKeyError{Key: f.key}
		}
		*f.dst = *f.val
	}
	e.Slug = r.Slug
	e.TicketURL = r.TicketURL
	return nil
}

// EventModel is the display-ready form of an Event. Its text fields are
// cleaned and normalised once, at construction; see package transform.
// Two models are the same event when their IDs match.
type EventModel struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	SubHeader       string `json:"sub_header" yaml:"sub_header"`
	Status          string `json:"status" yaml:"status"`
	Description     string `json:"description" yaml:"description"`
	AgeLimit        string `json:"age_limit" yaml:"age_limit"`
	Image           string `json:"image" yaml:"image"`
	Date            string `json:"date" yaml:"date"`
	Open            string `json:"open" yaml:"open"`
	Room            string `json:"room" yaml:"room"`
	Venue           string `json:"venue" yaml:"venue"`
	Slug            string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Admission       string `json:"admission" yaml:"admission"`
	TicketURL       string `json:"ticket_url,omitempty" yaml:"ticket_url,omitempty"`
	IsFreeAdmission bool   `json:"is_free_admission" yaml:"is_free_admission"`
	IsCancelled     bool   `json:"is_cancelled" yaml:"is_cancelled"`
	IsPostponed     bool   `json:"is_postponed" yaml:"is_postponed"`
}

// SameAs reports whether m and o describe the same event.
func (m EventModel) SameAs(o EventModel) bool {
	return m.ID == o.ID
}

// IndexOf returns the position of the event with id in events, or -1.
func IndexOf(events []EventModel, id string) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// EventSnapshot is the persisted result of the most recent fetch. It backs
// offline display and is what background refresh writes.
type EventSnapshot struct {
	From      string       `json:"from"`
	To        string       `json:"to"`
	FetchedAt time.Time    `json:"fetched_at"`
	Events    []EventModel `json:"events"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit" yaml:"cache_hit"`
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
	Items      int   `json:"items" yaml:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind" yaml:"kind"`
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Command     string      `json:"command" yaml:"command"`
	Data        interface{} `json:"data" yaml:"data"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats       ResultStats `json:"stats" yaml:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindEvents   = "events"
	KindSettings = "settings"
	KindTable    = "table"
)

// SettingRow is a single flag as shown by `encore settings list`.
type SettingRow struct {
	Name  string `json:"name" yaml:"name"`
	Value bool   `json:"value" yaml:"value"`
}

// Table is a generic two-dimensional payload for KindTable results such as
// cache stats and config listings.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}
