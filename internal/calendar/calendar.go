// Package calendar exports events as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/derickschaefer/encore/internal/model"
)

const (
	productID = "-//encore//favourites//EN"
	uidDomain = "encore"

	// DefaultDuration is the length given to events with a door time.
	DefaultDuration = 3 * time.Hour
)

// Build turns events into a calendar. An event whose Open parses as HH:MM
// becomes a timed entry in loc; any other event is all-day. Events whose
// date cannot be parsed are skipped and reported.
func Build(name string, events []model.EventModel, loc *time.Location, stamp time.Time) (*ics.Calendar, []string) {
	if loc == nil {
		loc = time.Local
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(loc.String())

	var skipped []string
	for _, e := range events {
		day, err := time.ParseInLocation("2006-01-02", e.Date, loc)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: bad date %q", e.ID, e.Date))
			continue
		}

		ve := cal.AddEvent(e.ID + "@" + uidDomain)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Title)
		if desc := description(e); desc != "" {
			ve.SetDescription(desc)
		}
		ve.SetLocation(location(e))
		if e.TicketURL != "" {
			ve.SetURL(e.TicketURL)
		}
		if e.IsCancelled {
			ve.SetStatus(ics.ObjectStatusCancelled)
		} else {
			ve.SetStatus(ics.ObjectStatusConfirmed)
		}

		if start, ok := doorTime(day, e.Open); ok {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(DefaultDuration))
		} else {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}
	return cal, skipped
}

// Write builds the calendar and serialises it to w.
func Write(w io.Writer, name string, events []model.EventModel, loc *time.Location, stamp time.Time) ([]string, error) {
	cal, skipped := Build(name, events, loc, stamp)
	if err := cal.SerializeTo(w); err != nil {
		return skipped, fmt.Errorf("writing calendar: %w", err)
	}
	return skipped, nil
}

func doorTime(day time.Time, open string) (time.Time, bool) {
	t, err := time.Parse("15:04", open)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}

func location(e model.EventModel) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{e.Room, e.Venue} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func description(e model.EventModel) string {
	var lines []string
	if e.SubHeader != "" {
		lines = append(lines, e.SubHeader)
	}
	if e.Admission != "" {
		lines = append(lines, e.Admission)
	}
	if e.AgeLimit != "" {
		lines = append(lines, e.AgeLimit)
	}
	if e.Description != "" {
		lines = append(lines, "", e.Description)
	}
	return strings.Join(lines, "\n")
}
