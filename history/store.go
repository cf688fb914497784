// Package history keeps a record of past runs in a BoltDB file so runs can
// be compared across invocations.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/playertier/artifact"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const runsBucket = "runs"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Entry is one stored run.
type Entry struct {
	ID        uuid.UUID        `json:"id"`
	StartedAt time.Time        `json:"started_at"`
	Input     string           `json:"input"`
	OutputDir string           `json:"output_dir"`
	Summary   artifact.Summary `json:"summary"`
}

// Store persists entries keyed by their v7 run id, so key order is start
// order.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create runs bucket")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores e, replacing any entry with the same id.
func (s *Store) Save(e Entry) error {
	if e.ID == uuid.Nil {
		return errors.NewValidationError("id", "must be set", e.ID)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal run")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).Put(e.ID[:], data)
	})
}

// Get returns the entry stored under id.
func (s *Store) Get(id uuid.UUID) (Entry, error) {
	var e Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(runsBucket)).Get(id[:])
		if v == nil {
			return errors.Wrapf(ErrNotFound, "%s", id)
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) == limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrapf(err, "decode run %x", k)
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

// Prune deletes all but the newest keep entries and returns how many were
// removed.
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, errors.NewValidationError("keep", "must be non-negative", keep)
	}
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		var stale [][]byte
		c := b.Cursor()
		seen := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
