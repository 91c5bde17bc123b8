package util_test

import (
	"errors"
	"testing"
	"time"

	"github.com/derickschaefer/encore/internal/util"
)

func TestParseDateAcceptsBothForms(t *testing.T) {
	for _, in := range []string{"2024-03-07", "20240307", " 20240307 "} {
		got, err := util.NormalizeDate(in, time.UTC)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != "20240307" {
			t.Errorf("%q: expected 20240307, got %s", in, got)
		}
	}
	if _, err := util.ParseDate("07/03/2024", time.UTC); err == nil {
		t.Error("expected error for unsupported layout")
	}
}

func TestTodayUsesLocation(t *testing.T) {
	sthlm, err := util.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 UTC on 31 Dec is already 1 Jan in Stockholm.
	now := time.Date(2023, time.December, 31, 23, 30, 0, 0, time.UTC)
	today := util.Today(now, sthlm)
	if util.VenueDate(today) != "20240101" {
		t.Errorf("expected 20240101, got %s", util.VenueDate(today))
	}
	if util.VenueDate(util.EndOfYear(today)) != "20241231" {
		t.Errorf("end of year: %s", util.VenueDate(util.EndOfYear(today)))
	}
}

func TestLoadLocationRejectsUnknown(t *testing.T) {
	if _, err := util.LoadLocation("Mars/Olympus"); err == nil {
		t.Error("expected error")
	}
	loc, err := util.LoadLocation("")
	if err != nil || loc != time.Local {
		t.Errorf("empty name should be local: %v %v", loc, err)
	}
}

func TestMultiError(t *testing.T) {
	var m util.MultiError
	if m.Err() != nil {
		t.Fatal("empty MultiError should be nil")
	}
	sentinel := errors.New("b")
	m.Add(errors.New("a"))
	m.Add(nil)
	m.Add(sentinel)
	err := m.Err()
	if err == nil || err.Error() != "a; b" {
		t.Errorf("unexpected: %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should see collected errors")
	}
}
