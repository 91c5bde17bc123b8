package calendar_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/derickschaefer/encore/internal/calendar"
	"github.com/derickschaefer/encore/internal/model"
)

var stamp = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func export(t *testing.T, events ...model.EventModel) (*ics.Calendar, []string) {
	t.Helper()
	var buf bytes.Buffer
	skipped, err := calendar.Write(&buf, "Favourites", events, time.UTC, stamp)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("output does not parse: %v\n%s", err, buf.String())
	}
	return cal, skipped
}

func prop(ve *ics.VEvent, p ics.ComponentProperty) string {
	if ip := ve.GetProperty(p); ip != nil {
		return ip.Value
	}
	return ""
}

func TestTimedEvent(t *testing.T) {
	cal, skipped := export(t, model.EventModel{
		ID: "42", Title: "Jazz Night", Date: "2024-03-07", Open: "19:30",
		Room: "Stora scen", Venue: "Huset", TicketURL: "https://tickets.example/42",
	})
	if len(skipped) != 0 {
		t.Errorf("skipped: %v", skipped)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ve := events[0]
	if got := prop(ve, ics.ComponentPropertySummary); got != "Jazz Night" {
		t.Errorf("summary: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyDtStart); got != "20240307T193000Z" {
		t.Errorf("dtstart: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyDtEnd); got != "20240307T223000Z" {
		t.Errorf("dtend: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyLocation); got != "Stora scen, Huset" {
		t.Errorf("location: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyUrl); got != "https://tickets.example/42" {
		t.Errorf("url: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyUniqueId); got != "42@encore" {
		t.Errorf("uid: %q", got)
	}
}

func TestAllDayWhenDoorTimeUnknown(t *testing.T) {
	cal, _ := export(t, model.EventModel{ID: "1", Title: "Festival", Date: "2024-06-01", Open: "TBA"})
	ve := cal.Events()[0]
	if got := prop(ve, ics.ComponentPropertyDtStart); got != "20240601" {
		t.Errorf("all-day dtstart: %q", got)
	}
	if got := prop(ve, ics.ComponentPropertyDtEnd); got != "20240602" {
		t.Errorf("all-day dtend: %q", got)
	}
}

func TestCancelledStatus(t *testing.T) {
	cal, _ := export(t,
		model.EventModel{ID: "1", Title: "Off", Date: "2024-06-01", IsCancelled: true},
		model.EventModel{ID: "2", Title: "On", Date: "2024-06-02"},
	)
	events := cal.Events()
	if got := prop(events[0], ics.ComponentPropertyStatus); got != "CANCELLED" {
		t.Errorf("status: %q", got)
	}
	if got := prop(events[1], ics.ComponentPropertyStatus); got != "CONFIRMED" {
		t.Errorf("status: %q", got)
	}
}

func TestBadDateSkipped(t *testing.T) {
	cal, skipped := export(t,
		model.EventModel{ID: "1", Title: "Good", Date: "2024-06-01"},
		model.EventModel{ID: "2", Title: "Bad", Date: "someday"},
	)
	if len(cal.Events()) != 1 {
		t.Errorf("expected 1 event, got %d", len(cal.Events()))
	}
	if len(skipped) != 1 || !strings.HasPrefix(skipped[0], "2:") {
		t.Errorf("skipped: %v", skipped)
	}
}
