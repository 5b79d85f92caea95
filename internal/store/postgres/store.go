package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"mytvlog/internal/store"
)

// Store is the Postgres-backed metadata store used by warehouse deployments.
// It implements the same contract as the SQLite backend; the engine does not
// know which one it is talking to.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and applies migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	s := &Store{db: db}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without running migrations. Tests
// use it to run against a mocked driver.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin opens a transaction scope.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Programs() store.ProgramRepository     { return &programRepo{tx: t.tx} }
func (t *pgTx) Recordings() store.RecordingRepository { return &recordingRepo{tx: t.tx} }
func (t *pgTx) Views() store.ViewRepository           { return &viewRepo{tx: t.tx} }
func (t *pgTx) Digestions() store.DigestionRepository { return &digestionRepo{tx: t.tx} }

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}
