package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultSQLitePath = "medflow.db"

// SQLiteStore persists the in-memory state to a single SQLite table as JSON
// blobs, snapshotting the full state after every successful mutation.
type SQLiteStore struct {
	*MemoryStore
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens a snapshotting SQLite-backed store and hydrates it
// from any existing snapshot.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &SQLiteStore{MemoryStore: NewMemoryStore(opts...), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) SaveVisit(ctx context.Context, visit Visit) (string, error) {
	id, err := s.MemoryStore.SaveVisit(ctx, visit)
	if err != nil {
		return "", err
	}
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) UpdateVisit(ctx context.Context, patientName, visitID string, fields map[string]any) (bool, error) {
	updated, err := s.MemoryStore.UpdateVisit(ctx, patientName, visitID, fields)
	if err != nil || !updated {
		return updated, err
	}
	if err := s.persist(ctx); err != nil {
		return false, err
	}
	return true, nil
}

var storeBuckets = []string{"visits", "summaries"}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := Snapshot{}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if err := decodeBucket(bucket, payload, &snapshot); err != nil {
			return err
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *SQLiteStore) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range storeBuckets {
		data, err := encodeBucket(bucket, snapshot)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeBucket(bucket string, snapshot Snapshot) ([]byte, error) {
	switch bucket {
	case "visits":
		return json.Marshal(snapshot.Visits)
	case "summaries":
		return json.Marshal(snapshot.Summaries)
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

func decodeBucket(bucket string, payload []byte, snapshot *Snapshot) error {
	if len(payload) == 0 {
		return nil
	}
	switch bucket {
	case "visits":
		if err := json.Unmarshal(payload, &snapshot.Visits); err != nil {
			return fmt.Errorf("decode visits: %w", err)
		}
	case "summaries":
		if err := json.Unmarshal(payload, &snapshot.Summaries); err != nil {
			return fmt.Errorf("decode summaries: %w", err)
		}
	}
	return nil
}
