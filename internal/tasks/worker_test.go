package tasks_test

import (
	"context"
	"testing"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/store"
	"mytvlog/internal/tasks"
	"mytvlog/internal/testsupport"
)

var baseTime = time.Date(2025, 5, 12, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))

func seedRecording(t *testing.T, s store.Store, filePath string) int64 {
	t.Helper()
	programID := testsupport.NewProgram(t, s, catalog.ProgramDescriptor{
		EventID:   11,
		ServiceID: 101,
		Name:      "ニュース",
		StartTime: baseTime,
		Duration:  1800,
	}, baseTime)
	size := int64(100)
	return testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  filePath,
		FileSize:  &size,
		CreatedAt: baseTime,
	})
}

func TestQueuedWorkerDrainsOnStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/a.ts", 100)
	id := seedRecording(t, s, "//nas/recorded/a.ts")

	worker := tasks.NewWorker(s, files, nil, nil, 4)
	worker.Start()
	if err := worker.Schedule(tasks.Job{
		RecordingID: id,
		Kind:        tasks.KindDelete,
		Pattern:     "//nas/recorded/a.ts*",
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	worker.Stop()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	rec, err := tx.Recordings().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.FilePath != "" || rec.FileSize != nil {
		t.Fatalf("job did not land before Stop returned: %q %v", rec.FilePath, rec.FileSize)
	}
	if len(files.DeleteCalls) != 1 {
		t.Fatalf("expected one delete call, got %v", files.DeleteCalls)
	}
}

func TestScheduleAfterStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	worker := tasks.NewWorker(s, testsupport.NewFakeFileStore(), nil, nil, 1)
	worker.Start()
	worker.Stop()

	if err := worker.Schedule(tasks.Job{Kind: tasks.KindDelete}); err != tasks.ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestMoveJobCommitsAfterFileOperation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/a.ts", 100)
	id := seedRecording(t, s, "//nas/recorded/a.ts")

	worker := tasks.NewInline(s, files, nil, nil)
	if err := worker.Schedule(tasks.Job{
		RecordingID: id,
		Kind:        tasks.KindMove,
		Pattern:     "//nas/recorded/a.ts*",
		DstDir:      "//nas/archives/2025",
		NewPath:     "//nas/archives/2025/a.ts",
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	rec, err := tx.Recordings().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.FilePath != "//nas/archives/2025/a.ts" {
		t.Fatalf("file_path not repointed: %q", rec.FilePath)
	}
	if _, ok := files.Sizes["//nas/archives/2025/a.ts"]; !ok {
		t.Fatalf("file not moved: %v", files.Paths())
	}
}
