// Package postgres provides a Postgres-backed archive that mirrors the
// in-memory semantics while snapshotting state after every write.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/biosustain/consortia-synthetic-anaerobe/internal/infra/persistence/memory"
	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// Compile-time contract assertion.
var _ metabolic.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while
	// allowing overrides via env.
	defaultDSN = "postgres://localhost/fluxcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory archive for
// reads.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory archive from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
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
		case "models":
			if err := json.Unmarshal(payload, &snapshot.Models); err != nil {
				return fmt.Errorf("decode models: %w", err)
			}
			found = true
		case "solutions":
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

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for bucket, value := range map[string]any{
		"models":    snapshot.Models,
		"solutions": snapshot.Solutions,
	} {
		payload, err := json.Marshal(value)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2)
			ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, payload); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// PutModel stores the record and snapshots state to Postgres.
func (s *Store) PutModel(ctx context.Context, record metabolic.ModelRecord) (metabolic.ModelRecord, error) {
	record, err := s.Store.PutModel(ctx, record)
	if err != nil {
		return record, err
	}
	return record, s.persist(ctx)
}

// DeleteModel removes the record and snapshots state to Postgres.
func (s *Store) DeleteModel(ctx context.Context, id string) (bool, error) {
	ok, err := s.Store.DeleteModel(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	return ok, s.persist(ctx)
}

// PutSolution stores the record and snapshots state to Postgres.
func (s *Store) PutSolution(ctx context.Context, record metabolic.SolutionRecord) (metabolic.SolutionRecord, error) {
	record, err := s.Store.PutSolution(ctx, record)
	if err != nil {
		return record, err
	}
	return record, s.persist(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }
