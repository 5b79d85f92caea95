package testsupport

import (
	"context"
	"testing"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/config"
	"mytvlog/internal/store"
	"mytvlog/internal/store/sqlite"
)

// MustOpenStore opens a SQLite-backed store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewProgram creates a program row for tests and returns its id.
func NewProgram(t testing.TB, s store.Store, desc catalog.ProgramDescriptor, createdAt time.Time) int64 {
	t.Helper()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	id, err := tx.Programs().Create(ctx, desc, createdAt)
	if err != nil {
		t.Fatalf("Programs.Create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}
	return id
}

// NewRecording creates a recording row for tests and returns its id.
func NewRecording(t testing.TB, s store.Store, programID int64, rec store.NewRecording) int64 {
	t.Helper()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	id, err := tx.Recordings().Create(ctx, programID, rec)
	if err != nil {
		t.Fatalf("Recordings.Create: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit: %v", err)
	}
	return id
}
