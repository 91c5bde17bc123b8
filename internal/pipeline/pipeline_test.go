package pipeline_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/pipeline"
	"github.com/derickschaefer/encore/internal/util"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// jsonl joins lines with newlines and appends a trailing newline.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// ─── ReadEvents ───────────────────────────────────────────────────────────────

func TestReadBasic(t *testing.T) {
	input := jsonl(
		`{"id":"1","title":"Jazz Night","date":"2024-03-07","open":"19:00"}`,
		`{"id":"2","title":"Rock","date":"2024-03-08","is_cancelled":true}`,
	)
	events, err := pipeline.ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Jazz Night" || events[0].Open != "19:00" {
		t.Errorf("events[0]: %+v", events[0])
	}
	if !events[1].IsCancelled {
		t.Error("events[1] should be cancelled")
	}
}

func TestReadSkipsBlankAndCommentLines(t *testing.T) {
	input := jsonl(
		`// exported favourites`,
		``,
		`{"id":"1","title":"A"}`,
		`   `,
	)
	events, err := pipeline.ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestReadEmptyInputError(t *testing.T) {
	if _, err := pipeline.ReadEvents(strings.NewReader("\n\n")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestReadCollectsBadLines(t *testing.T) {
	input := jsonl(
		`{"id":"1","title":"ok"}`,
		`not json at all`,
		`{"title":"no id"}`,
		`{"id":"4","date":"someday"}`,
		`{"id":"5","title":"also ok"}`,
	)
	events, err := pipeline.ReadEvents(strings.NewReader(input))
	if len(events) != 2 || events[0].ID != "1" || events[1].ID != "5" {
		t.Errorf("readable events should be kept: %+v", events)
	}
	var multi *util.MultiError
	if !errors.As(err, &multi) {
		t.Fatalf("expected *util.MultiError, got %T: %v", err, err)
	}
	if len(multi.Errors) != 3 {
		t.Errorf("expected 3 line errors, got %d: %v", len(multi.Errors), err)
	}
	if !strings.Contains(err.Error(), "line 2") || !strings.Contains(err.Error(), "line 3: missing id") {
		t.Errorf("errors should carry line numbers: %v", err)
	}
}

func TestReadLargeInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, `{"id":"%d","title":"Event %d"}`+"\n", i, i)
	}
	events, err := pipeline.ReadEvents(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 5000 {
		t.Errorf("expected 5000 events, got %d", len(events))
	}
}

// ─── WriteJSONL ───────────────────────────────────────────────────────────────

func TestWriteOneLinePerEvent(t *testing.T) {
	events := []model.EventModel{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"}}
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, events); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	if lines := nonEmptyLines(buf.String()); len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestWriteDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	_ = pipeline.WriteJSONL(&buf, []model.EventModel{{ID: "1", Title: "Rock & Roll <live>"}})
	if !strings.Contains(buf.String(), "Rock & Roll <live>") {
		t.Errorf("title should be written verbatim: %s", buf.String())
	}
}

func TestWriteThenRead(t *testing.T) {
	in := []model.EventModel{
		{ID: "1", Title: "A", Date: "2024-01-01", TicketURL: "https://t.example/1", IsFreeAdmission: true},
		{ID: "2", Title: "B", Date: "2024-01-02", Slug: "b-inst"},
	}
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, in); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	out, err := pipeline.ReadEvents(&buf)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}
