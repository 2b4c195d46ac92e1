// Package store persists per-target action outcomes keyed by job and
// target, backed by an embedded go.etcd.io/bbolt database so the tool
// needs no external database or CGO SQL driver.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"
)

var (
	resultsBucket = []byte("results")
	metaBucket    = []byte("meta")
	schemaKey     = []byte("schema_version")
)

// currentSchemaVersion is the schema version Migrate stamps into the
// meta bucket. Migrate does not read a previously stored version and
// does not rewrite existing records.
const currentSchemaVersion = 1

// ResultEntry is the outcome of one action run against one target.
// Per job and target, either Error is set or ExitStatus is: a failed
// action never carries a partial result.
type ResultEntry struct {
	JobID      string  `json:"job_id"`
	Target     string  `json:"target"`
	Error      *string `json:"error,omitempty"`
	ExitStatus *uint32 `json:"exit_status,omitempty"`
	Stdout     []byte  `json:"stdout,omitempty"`
	Stderr     []byte  `json:"stderr,omitempty"`
}

// Store is the durable home for ResultEntry rows.
type Store interface {
	// Save appends entry to the store. Implementations log failures
	// themselves - callers never need to check the returned error to
	// keep a batch running, but Save still returns it for tests and
	// for callers that want to know.
	Save(entry ResultEntry) error
	// Load returns every entry recorded for jobID. BoltStore returns
	// them in key order (sorted by target); the order in which they
	// were saved is not kept.
	Load(jobID string) ([]ResultEntry, error)
	// Migrate brings the on-disk schema up to date. It is called once
	// at store open.
	Migrate() error
	// Close releases the underlying database handle.
	Close() error
}

// BoltStore is the concrete Store backend: a single bbolt file with
// one bucket of JSON-encoded rows keyed by "job_id\x00target".
type BoltStore struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a BoltStore at path and runs
// Migrate on it.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("opening %s", path), Cause: err}
	}
	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func rowKey(jobID, target string) []byte {
	key := make([]byte, 0, len(jobID)+1+len(target))
	key = append(key, jobID...)
	key = append(key, 0)
	key = append(key, target...)
	return key
}

// Migrate implements Store. It ensures the results and meta buckets
// exist and stamps the schema version; future schema changes would
// branch on the stored version here to rewrite old rows.
func (s *BoltStore) Migrate() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(resultsBucket); err != nil {
			return &Error{Op: "creating results bucket", Cause: err}
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return &Error{Op: "creating meta bucket", Cause: err}
		}
		version := make([]byte, 4)
		putUint32(version, currentSchemaVersion)
		return meta.Put(schemaKey, version)
	})
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// Save implements Store. Each call opens its own write transaction;
// bbolt serializes writers internally, so concurrent per-target
// saves need no locking here. A failure is logged (never returned up
// through the action pipeline by the engine) and also returned for
// tests.
func (s *BoltStore) Save(entry ResultEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		storeErr := &Error{Op: "encoding result entry", Cause: err}
		slog.Error("store: failed to encode result entry", "job_id", entry.JobID, "target", entry.Target, "error", err)
		return storeErr
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(resultsBucket)
		return bucket.Put(rowKey(entry.JobID, entry.Target), data)
	})
	if err != nil {
		storeErr := &Error{Op: "saving result entry", Cause: err}
		slog.Error("store: failed to save result entry", "job_id", entry.JobID, "target", entry.Target, "error", err)
		return storeErr
	}
	return nil
}

// Load implements Store, returning entries for jobID in key order,
// i.e. sorted by target string; the order in which they were saved is
// not kept.
func (s *BoltStore) Load(jobID string) ([]ResultEntry, error) {
	var entries []ResultEntry
	prefix := append([]byte(jobID), 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(resultsBucket)
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var entry ResultEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return &Error{Op: fmt.Sprintf("decoding result entry %q", k), Cause: err}
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		var storeErr *Error
		if errors.As(err, &storeErr) {
			return nil, storeErr
		}
		return nil, &Error{Op: fmt.Sprintf("loading job %s", jobID), Cause: err}
	}
	return entries, nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
