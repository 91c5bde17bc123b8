package store_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeModel(id, title string) model.EventModel {
	return model.EventModel{ID: id, Title: title, Date: "2026-11-20", Open: "19:00"}
}

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.PutFavorites([]model.EventModel{makeModel("1", "One")}); err != nil {
		t.Fatalf("PutFavorites: %v", err)
	}
	s.Close()

	s2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	list, ok, err := s2.GetFavorites()
	if err != nil || !ok || len(list) != 1 {
		t.Fatalf("after reopen: list=%v ok=%v err=%v", list, ok, err)
	}
}

// ─── Favourites ───────────────────────────────────────────────────────────────

func TestGetFavoritesAbsent(t *testing.T) {
	s := testDB(t)
	list, ok, err := s.GetFavorites()
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if ok || list != nil {
		t.Errorf("expected absent, got ok=%v list=%v", ok, list)
	}
}

func TestPutGetFavoritesRoundTrip(t *testing.T) {
	s := testDB(t)
	in := []model.EventModel{makeModel("1", "One"), makeModel("2", "Two")}
	in[1].IsCancelled = true
	if err := s.PutFavorites(in); err != nil {
		t.Fatalf("PutFavorites: %v", err)
	}
	out, ok, err := s.GetFavorites()
	if err != nil || !ok {
		t.Fatalf("GetFavorites: ok=%v err=%v", ok, err)
	}
	if len(out) != 2 || out[0].Title != "One" || !out[1].IsCancelled {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestPutFavoritesEmptyIsPresent(t *testing.T) {
	s := testDB(t)
	if err := s.PutFavorites(nil); err != nil {
		t.Fatalf("PutFavorites: %v", err)
	}
	list, ok, err := s.GetFavorites()
	if err != nil || !ok || len(list) != 0 {
		t.Errorf("expected present empty list, got list=%v ok=%v err=%v", list, ok, err)
	}
}

func TestGetFavoritesCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatalf("bolt.Open: %v", err)
	}
	_ = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("favorites")).Put([]byte("favorites"), []byte("{not json"))
	})
	db.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.GetFavorites(); err == nil || ok {
		t.Errorf("expected decode error, got ok=%v err=%v", ok, err)
	}
}

// ─── Latest events ────────────────────────────────────────────────────────────

func TestLatestEventsRoundTrip(t *testing.T) {
	s := testDB(t)
	if _, ok, _ := s.GetLatestEvents(); ok {
		t.Fatal("expected no snapshot in fresh db")
	}
	snap := model.EventSnapshot{
		From:   "20261101",
		To:     "20261231",
		Events: []model.EventModel{makeModel("1", "One")},
	}
	if err := s.PutLatestEvents(snap); err != nil {
		t.Fatalf("PutLatestEvents: %v", err)
	}
	got, ok, err := s.GetLatestEvents()
	if err != nil || !ok {
		t.Fatalf("GetLatestEvents: ok=%v err=%v", ok, err)
	}
	if got.From != "20261101" || got.To != "20261231" || len(got.Events) != 1 {
		t.Errorf("snapshot mismatch: %+v", got)
	}
	if got.FetchedAt.IsZero() {
		t.Error("FetchedAt should be stamped")
	}
}

func TestLatestEventsKeepsFetchedAt(t *testing.T) {
	s := testDB(t)
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	_ = s.PutLatestEvents(model.EventSnapshot{FetchedAt: at})
	got, _, _ := s.GetLatestEvents()
	if !got.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt: expected %v, got %v", at, got.FetchedAt)
	}
}

// ─── Settings ─────────────────────────────────────────────────────────────────

func TestBoolKeys(t *testing.T) {
	s := testDB(t)
	if _, ok, err := s.GetBool("dark_mode"); ok || err != nil {
		t.Fatalf("expected unset key, got ok=%v err=%v", ok, err)
	}
	if err := s.PutBool("dark_mode", true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if v, ok, _ := s.GetBool("dark_mode"); !ok || !v {
		t.Errorf("expected true, got v=%v ok=%v", v, ok)
	}
	_ = s.PutBool("dark_mode", false)
	if v, ok, _ := s.GetBool("dark_mode"); !ok || v {
		t.Errorf("expected explicit false, got v=%v ok=%v", v, ok)
	}
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

func TestStatsCountsRows(t *testing.T) {
	s := testDB(t)
	_ = s.PutFavorites([]model.EventModel{makeModel("1", "One")})
	_ = s.PutBool("dark_mode", true)
	_ = s.PutBool("show_images", true)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	counts := map[string]int{}
	for _, st := range stats {
		counts[st.Name] = st.Count
	}
	if counts["favorites"] != 1 || counts["settings"] != 2 || counts["events"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestClearBucket(t *testing.T) {
	s := testDB(t)
	_ = s.PutFavorites([]model.EventModel{makeModel("1", "One")})
	_ = s.PutBool("dark_mode", true)

	if err := s.ClearBucket("favorites"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	if _, ok, _ := s.GetFavorites(); ok {
		t.Error("favorites should be gone")
	}
	if _, ok, _ := s.GetBool("dark_mode"); !ok {
		t.Error("settings must survive clearing favorites")
	}
}

func TestClearBucketRejectsInternal(t *testing.T) {
	s := testDB(t)
	if err := s.ClearBucket("_meta"); err == nil {
		t.Error("expected error clearing internal bucket")
	}
}

func TestClearAll(t *testing.T) {
	s := testDB(t)
	_ = s.PutFavorites([]model.EventModel{makeModel("1", "One")})
	_ = s.PutLatestEvents(model.EventSnapshot{From: "a"})
	_ = s.PutBool("dark_mode", true)
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	stats, _ := s.Stats()
	for _, st := range stats {
		if st.Count != 0 {
			t.Errorf("bucket %s still has %d rows", st.Name, st.Count)
		}
	}
}

func TestCompactKeepsDataAndHandle(t *testing.T) {
	s := testDB(t)
	big := make([]model.EventModel, 0, 500)
	for i := 0; i < 500; i++ {
		big = append(big, makeModel(fmt.Sprintf("id-%d", i), "Title"))
	}
	_ = s.PutFavorites(big)
	_ = s.PutFavorites([]model.EventModel{makeModel("keep", "Kept")})

	before, after, err := s.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if before <= 0 || after <= 0 {
		t.Errorf("sizes should be positive: before=%d after=%d", before, after)
	}
	if _, err := os.Stat(s.Path() + ".compact"); !os.IsNotExist(err) {
		t.Error("temporary compact file should be gone")
	}
	list, ok, err := s.GetFavorites()
	if err != nil || !ok || len(list) != 1 || list[0].ID != "keep" {
		t.Errorf("data after compact: list=%v ok=%v err=%v", list, ok, err)
	}
}

func TestSwapFailureReopensOriginal(t *testing.T) {
	s := testDB(t)
	_ = s.PutFavorites([]model.EventModel{makeModel("keep", "Kept")})
	path := s.Path()

	err := s.CloseAndSwap(filepath.Join(t.TempDir(), "missing.compact"), path)
	if err == nil {
		t.Fatal("expected an error when the compacted file is missing")
	}
	list, ok, err := s.GetFavorites()
	if err != nil || !ok || len(list) != 1 || list[0].ID != "keep" {
		t.Errorf("original should be reopened: list=%v ok=%v err=%v", list, ok, err)
	}
}

func TestSwapFailureReportsReopenError(t *testing.T) {
	s := testDB(t)
	gone := filepath.Join(t.TempDir(), "gone", "test.db")

	err := s.CloseAndSwap(filepath.Join(t.TempDir(), "missing.compact"), gone)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "replacing db file") || !strings.Contains(err.Error(), "reopening original") {
		t.Errorf("error should name both failures, got %q", err)
	}
	if _, _, err := s.GetFavorites(); !errors.Is(err, bolt.ErrDatabaseNotOpen) {
		t.Errorf("later calls should fail cleanly, got %v", err)
	}
}
