package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/derickschaefer/encore/internal/app"
	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/settings"
	"github.com/derickschaefer/encore/internal/state"
)

func TestOutputWriterDefault(t *testing.T) {
	globalFlags.Out = ""
	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter default: %v", err)
	}
	if w != os.Stdout {
		t.Fatalf("expected stdout writer passthrough")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("default closer should be nil error, got: %v", err)
	}
}

func TestOutputWriterFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	globalFlags.Out = p
	t.Cleanup(func() { globalFlags.Out = "" })

	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter file: %v", err)
	}
	if w == os.Stdout {
		t.Fatalf("expected file writer, got stdout")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("closing output writer: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestParseOnOff(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "ON": true, "yes": true, "true": true, "1": true,
		"off": false, "no": false, "false": false, "0": false} {
		got, err := parseOnOff(in)
		if err != nil {
			t.Fatalf("parseOnOff(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseOnOff(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Fatal("expected error for maybe")
	}
}

func stockholmDeps(t *testing.T) *app.Deps {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return &app.Deps{Location: loc}
}

func TestResolveRangeDefaultsToSeason(t *testing.T) {
	deps := stockholmDeps(t)
	// 23:30 UTC on 31 March is already 1 April in Stockholm.
	now := time.Date(2026, 3, 31, 23, 30, 0, 0, time.UTC)
	from, to, err := resolveRange(deps, "", "", now)
	if err != nil {
		t.Fatalf("resolveRange: %v", err)
	}
	if from != "20260401" || to != "20261231" {
		t.Fatalf("got %s–%s, want 20260401–20261231", from, to)
	}
}

func TestResolveRangeNormalisesAndChecksOrder(t *testing.T) {
	deps := stockholmDeps(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	from, to, err := resolveRange(deps, "2026-05-01", "20260502", now)
	if err != nil {
		t.Fatalf("resolveRange: %v", err)
	}
	if from != "20260501" || to != "20260502" {
		t.Fatalf("got %s–%s", from, to)
	}

	if _, _, err := resolveRange(deps, "2026-05-02", "2026-05-01", now); err == nil {
		t.Fatal("expected error when --to is before --from")
	}
	if _, _, err := resolveRange(deps, "May 1st", "", now); err == nil {
		t.Fatal("expected error for unreadable --from")
	}
}

func TestMergeFavouritesSkipsKnownIDs(t *testing.T) {
	current := []model.EventModel{{ID: "1"}, {ID: "2"}}
	incoming := []model.EventModel{{ID: "2"}, {ID: "3"}, {ID: "3"}}

	merged, added := mergeFavourites(current, incoming)
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	if len(merged) != 3 || merged[2].ID != "3" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if len(current) != 2 {
		t.Fatal("current was modified")
	}
}

func TestSettingActionCoversEveryFlag(t *testing.T) {
	for _, f := range settings.Flags {
		a := settingAction(f, true)
		want := state.DomainSettings
		if f == settings.HasSeenOnboarding {
			want = state.DomainOnboarding
		}
		if a.Domain() != want {
			t.Fatalf("%s maps to %T in the wrong domain", f, a)
		}
	}
}

func TestMarkFavouritesOnlyInTableOutput(t *testing.T) {
	globalFlags.Format, globalFlags.Out = "", ""
	events := []model.EventModel{{ID: "1", Title: "Jazz"}, {ID: "2", Title: "Rock"}}
	list := state.ListState{Favourites: []model.EventModel{{ID: "1"}}}

	got := markFavourites(events, list, "table", true)
	if got[0].Title != "★ Jazz" || got[1].Title != "Rock" {
		t.Fatalf("table on a terminal: %q, %q", got[0].Title, got[1].Title)
	}
	if events[0].Title != "Jazz" {
		t.Fatal("input was modified")
	}

	// A configured default of json must keep titles clean.
	if got := markFavourites(events, list, "json", true); got[0].Title != "Jazz" {
		t.Fatalf("json default: %q", got[0].Title)
	}
	if got := markFavourites(events, list, "table", false); got[0].Title != "Jazz" {
		t.Fatalf("not a terminal: %q", got[0].Title)
	}

	globalFlags.Format = "csv"
	t.Cleanup(func() { globalFlags.Format = "" })
	if got := markFavourites(events, list, "table", true); got[0].Title != "Jazz" {
		t.Fatalf("--format csv: %q", got[0].Title)
	}
}
