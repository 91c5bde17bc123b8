// Package store provides a thin bbolt wrapper for encore's local data store.
//
// Every value is a whole-blob overwrite: the favourites list and the latest
// event snapshot are single JSON documents, and each settings flag is its own
// key. Nothing here merges or locks across calls; read-modify-write callers
// own their races.
//
// Buckets:
//
//	favorites: JSON array of favourited event models under key "favorites"
//	events   : JSON snapshot of the most recent fetch under key "latest_events"
//	settings : one boolean per settings flag
//	_meta    : internal: schema version, created_at
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/encore/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketFavorites = []byte("favorites")
	bucketEvents    = []byte("events")
	bucketSettings  = []byte("settings")
	bucketInternal  = []byte("_meta")
)

// Key constants.
var (
	keyFavorites    = []byte("favorites")
	keyLatestEvents = []byte("latest_events")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"favorites", "events", "settings"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

func openDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketFavorites, bucketEvents, bucketSettings, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Favourites ───────────────────────────────────────────────────────────────

// GetFavorites reads and decodes the stored favourites collection.
// Returns (list, true, nil) if present, (nil, false, nil) if the key is
// absent, and an error if the blob cannot be decoded.
func (s *Store) GetFavorites() ([]model.EventModel, bool, error) {
	var (
		list  []model.EventModel
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketFavorites).Get(keyFavorites)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &list)
	})
	if err != nil {
		return nil, false, fmt.Errorf("decoding favorites: %w", err)
	}
	return list, found, nil
}

// PutFavorites overwrites the whole favourites collection.
func (s *Store) PutFavorites(list []model.EventModel) error {
	if list == nil {
		list = []model.EventModel{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFavorites).Put(keyFavorites, b)
	})
}

// ─── Latest events ────────────────────────────────────────────────────────────

// GetLatestEvents returns the snapshot written by the most recent fetch.
// Returns (snap, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetLatestEvents() (model.EventSnapshot, bool, error) {
	var (
		snap  model.EventSnapshot
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEvents).Get(keyLatestEvents)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return model.EventSnapshot{}, false, fmt.Errorf("decoding latest events: %w", err)
	}
	return snap, found, nil
}

// PutLatestEvents overwrites the latest-events snapshot, stamping FetchedAt
// when the caller left it unset.
func (s *Store) PutLatestEvents(snap model.EventSnapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now().UTC()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding latest events: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).Put(keyLatestEvents, b)
	})
}

// ─── Settings ─────────────────────────────────────────────────────────────────

// GetBool reads a boolean settings key.
// Returns (value, true, nil) if set, (false, false, nil) if never written.
func (s *Store) GetBool(key string) (bool, bool, error) {
	var (
		val   bool
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSettings).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		val = len(v) == 1 && v[0] == '1'
		return nil
	})
	return val, found, err
}

// PutBool writes a boolean settings key.
func (s *Store) PutBool(key string, value bool) error {
	v := []byte{'0'}
	if value {
		v[0] = '1'
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put([]byte(key), v)
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			_ = b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	if !isUserBucket(name) {
		return fmt.Errorf("unknown bucket %q", name)
	}
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Compact rewrites the database into a fresh file and swaps it in place,
// returning the file size before and after. The Store stays usable.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	if fi, statErr := os.Stat(path); statErr == nil {
		before = fi.Size()
	}

	tmpPath := path + ".compact"
	_ = os.Remove(tmpPath)
	dst, err := openDB(tmpPath)
	if err != nil {
		return before, 0, err
	}
	if err := bolt.Compact(dst, s.db, 1<<20); err != nil {
		dst.Close()
		_ = os.Remove(tmpPath)
		return before, 0, fmt.Errorf("copying live data: %w", err)
	}
	if err := dst.Close(); err != nil {
		return before, 0, err
	}
	if err := s.db.Close(); err != nil {
		return before, 0, err
	}
	if err := s.swap(tmpPath, path); err != nil {
		return before, 0, err
	}

	if fi, statErr := os.Stat(path); statErr == nil {
		after = fi.Size()
	}
	slog.Debug("store compacted", "path", path, "before", before, "after", after)
	return before, after, nil
}

// swap moves tmpPath over path and reopens path. s.db must already be
// closed. When the move fails the original file is reopened instead; if that
// fails too, s.db stays closed and later calls return bolt.ErrDatabaseNotOpen.
func (s *Store) swap(tmpPath, path string) error {
	if err := os.Rename(tmpPath, path); err != nil {
		moveErr := fmt.Errorf("replacing db file: %w", err)
		db, openErr := openDB(path)
		if openErr != nil {
			return errors.Join(moveErr, fmt.Errorf("reopening original: %w", openErr))
		}
		s.db = db
		return moveErr
	}
	db, err := openDB(path)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func isUserBucket(name string) bool {
	for _, b := range AllBuckets {
		if b == name {
			return true
		}
	}
	return false
}
