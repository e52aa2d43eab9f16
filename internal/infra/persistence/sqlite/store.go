// Package sqlite persists the flux core archive to an embedded SQLite file,
// snapshotting the full in-memory state as JSON bucket rows after every
// successful write.
package sqlite

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

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/persistence/memory"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// Compile-time contract assertion.
var _ metabolic.Store = (*Store)(nil)

const (
	bucketModels    = "models"
	bucketSolutions = "solutions"
)

// Store layers snapshot persistence over the in-memory archive.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens or creates the SQLite file at path and hydrates the archive
// from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "fluxcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
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
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case bucketModels:
			if err := json.Unmarshal(payload, &snapshot.Models); err != nil {
				return fmt.Errorf("decode models: %w", err)
			}
			found = true
		case bucketSolutions:
			if err := json.Unmarshal(payload, &snapshot.Solutions); err != nil {
				return fmt.Errorf("decode solutions: %w", err)
			}
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if found {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for bucket, value := range map[string]any{
		bucketModels:    snapshot.Models,
		bucketSolutions: snapshot.Solutions,
	} {
		payload, err := json.Marshal(value)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, payload); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// PutModel stores the record and snapshots state to SQLite.
func (s *Store) PutModel(ctx context.Context, record metabolic.ModelRecord) (metabolic.ModelRecord, error) {
	record, err := s.Store.PutModel(ctx, record)
	if err != nil {
		return record, err
	}
	return record, s.persist()
}

// DeleteModel removes the record and snapshots state to SQLite.
func (s *Store) DeleteModel(ctx context.Context, id string) (bool, error) {
	ok, err := s.Store.DeleteModel(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	return ok, s.persist()
}

// PutSolution stores the record and snapshots state to SQLite.
func (s *Store) PutSolution(ctx context.Context, record metabolic.SolutionRecord) (metabolic.SolutionRecord, error) {
	record, err := s.Store.PutSolution(ctx, record)
	if err != nil {
		return record, err
	}
	return record, s.persist()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
