package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/store"
	"mytvlog/internal/tasks"
	"mytvlog/internal/testsupport"
)

func newLifecycleEnv(t *testing.T) (*reconcile.Lifecycle, store.Store, *testsupport.FakeFileStore) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	worker := tasks.NewInline(s, files, nil, nil)
	return reconcile.NewLifecycle(s, worker, nil, nil), s, files
}

func newRecordingWithFile(t *testing.T, s store.Store, filePath string) int64 {
	t.Helper()
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	size := int64(100)
	return testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  filePath,
		FileSize:  &size,
		CreatedAt: baseTime,
	})
}

func getRecording(t *testing.T, s store.Store, id int64) *catalog.RecordingWithProgram {
	t.Helper()
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
	if rec == nil {
		t.Fatalf("recording %d vanished", id)
	}
	return rec
}

func TestApplyWatchedOnly(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	files.Put("//nas/recorded/a.ts", 100)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	watched := baseTime.Add(time.Hour)
	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		WatchedAt: catalog.SetValue(watched),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Accepted {
		t.Fatal("a pure column write must not be accepted=true")
	}
	rec := getRecording(t, s, id)
	if rec.WatchedAt == nil || !rec.WatchedAt.Equal(watched) {
		t.Fatalf("watched_at not stored: %v", rec.WatchedAt)
	}
	if len(files.MoveCalls) != 0 || len(files.DeleteCalls) != 0 {
		t.Fatal("no file operation expected")
	}
}

func TestApplyUnwatchViaNull(t *testing.T) {
	lc, s, _ := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	watched := baseTime.Add(time.Hour)
	if _, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		WatchedAt: catalog.SetValue(watched),
	}); err != nil {
		t.Fatalf("Apply set: %v", err)
	}
	if _, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		WatchedAt: catalog.SetNull[time.Time](),
	}); err != nil {
		t.Fatalf("Apply clear: %v", err)
	}
	if rec := getRecording(t, s, id); rec.WatchedAt != nil {
		t.Fatalf("watched_at should be cleared, got %v", rec.WatchedAt)
	}
}

func TestApplyDeleteWithFile(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	files.Put("//nas/recorded/a.ts", 100)
	files.Put("//nas/recorded/a.ts.program.txt", 1)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	deleted := baseTime.Add(2 * time.Hour)
	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		DeletedAt: catalog.SetValue(deleted),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Accepted {
		t.Fatal("physical deletion must be accepted=true")
	}
	if len(files.DeleteCalls) != 1 || files.DeleteCalls[0] != "//nas/recorded/a.ts*" {
		t.Fatalf("unexpected delete calls: %v", files.DeleteCalls)
	}
	if len(files.Paths()) != 0 {
		t.Fatalf("sibling files should be gone, still have %v", files.Paths())
	}

	rec := getRecording(t, s, id)
	if rec.DeletedAt == nil || !rec.DeletedAt.Equal(deleted) {
		t.Fatalf("deleted_at not stored: %v", rec.DeletedAt)
	}
	if rec.FilePath != "" || rec.FileSize != nil {
		t.Fatalf("inline job should have emptied the file columns, got %q %v", rec.FilePath, rec.FileSize)
	}
}

func TestApplyDeleteWithoutFile(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "")

	deleted := baseTime.Add(2 * time.Hour)
	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		DeletedAt: catalog.SetValue(deleted),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Accepted {
		t.Fatal("nothing to delete, must be accepted=false")
	}
	if len(files.DeleteCalls) != 0 {
		t.Fatalf("no delete expected, got %v", files.DeleteCalls)
	}
	if rec := getRecording(t, s, id); rec.DeletedAt == nil {
		t.Fatal("deleted_at should be stored")
	}
}

func TestApplyDeleteConflictsWithFilePath(t *testing.T) {
	lc, s, _ := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	_, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		DeletedAt: catalog.SetValue(baseTime),
		FilePath:  catalog.SetValue("//nas/recorded/elsewhere.ts"),
	})
	var invalid *catalog.InvalidDataError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError, got %v", err)
	}
}

func TestApplyMoveFolder(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	files.Put("//nas/recorded/2025/a.ts", 100)
	files.Put("//nas/recorded/2025/a.ts.err", 1)
	id := newRecordingWithFile(t, s, "//nas/recorded/2025/a.ts")

	watched := baseTime.Add(time.Hour)
	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		WatchedAt:  catalog.SetValue(watched),
		FileFolder: catalog.SetValue("archives"),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Accepted {
		t.Fatal("physical move must be accepted=true")
	}
	if len(files.MoveCalls) != 1 {
		t.Fatalf("expected one move, got %v", files.MoveCalls)
	}
	call := files.MoveCalls[0]
	if call.SrcPattern != "//nas/recorded/2025/a.ts*" {
		t.Fatalf("move pattern must use the original full path, got %q", call.SrcPattern)
	}
	if call.DstDir != "//nas/archives/2025" {
		t.Fatalf("unexpected destination %q", call.DstDir)
	}

	rec := getRecording(t, s, id)
	if rec.FilePath != "//nas/archives/2025/a.ts" {
		t.Fatalf("file_path not repointed, got %q", rec.FilePath)
	}
	if catalog.Root(rec.FilePath) != "archives" {
		t.Fatalf("root should be archives, got %q", catalog.Root(rec.FilePath))
	}
	if rec.WatchedAt == nil || !rec.WatchedAt.Equal(watched) {
		t.Fatalf("watched_at should ride along, got %v", rec.WatchedAt)
	}
	for _, p := range files.Paths() {
		if catalog.Root(p) != "archives" {
			t.Fatalf("file %q was not moved", p)
		}
	}
}

func TestApplyMoveWithoutFileIsInvalid(t *testing.T) {
	lc, s, _ := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "")

	_, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		FileFolder: catalog.SetValue("archives"),
	})
	var invalid *catalog.InvalidDataError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError, got %v", err)
	}
}

func TestApplyMoveConflictsWithFilePath(t *testing.T) {
	lc, s, _ := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	_, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		FileFolder: catalog.SetValue("archives"),
		FilePath:   catalog.SetValue("//nas/archives/a.ts"),
	})
	var invalid *catalog.InvalidDataError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError, got %v", err)
	}
}

func TestApplyDirectFilePath(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		FilePath: catalog.SetValue("//nas/recorded/renamed.ts"),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Accepted {
		t.Fatal("metadata-only repoint must be accepted=false")
	}
	if rec := getRecording(t, s, id); rec.FilePath != "//nas/recorded/renamed.ts" {
		t.Fatalf("file_path not updated, got %q", rec.FilePath)
	}
	if len(files.MoveCalls) != 0 {
		t.Fatal("direct file_path write must not move files")
	}
}

func TestApplyDirectFilePathValidatesShape(t *testing.T) {
	lc, s, _ := newLifecycleEnv(t)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")

	for _, bad := range []string{"/server/repo/x", "///server/repo/x", "//server//x", "//onlyserver", "no_slash", ""} {
		_, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
			FilePath: catalog.SetValue(bad),
		})
		var invalid *catalog.InvalidDataError
		if !errors.As(err, &invalid) {
			t.Fatalf("path %q: expected InvalidDataError, got %v", bad, err)
		}
	}
}

func TestApplyUnknownRecording(t *testing.T) {
	lc, _, _ := newLifecycleEnv(t)

	_, err := lc.Apply(context.Background(), 9999, catalog.RecordingPatch{
		WatchedAt: catalog.SetValue(baseTime),
	})
	var notFound *catalog.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBackgroundFailureIsNotSurfaced(t *testing.T) {
	lc, s, files := newLifecycleEnv(t)
	files.Put("//nas/recorded/a.ts", 100)
	id := newRecordingWithFile(t, s, "//nas/recorded/a.ts")
	files.Err = errors.New("share unreachable")

	res, err := lc.Apply(context.Background(), id, catalog.RecordingPatch{
		DeletedAt: catalog.SetValue(baseTime.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Apply must not surface the job failure: %v", err)
	}
	if !res.Accepted {
		t.Fatal("the job was scheduled, accepted must be true")
	}
	// The job failed before the commit step, so the stored path survives for
	// the repair pass to reconcile later.
	if rec := getRecording(t, s, id); rec.FilePath != "//nas/recorded/a.ts" {
		t.Fatalf("file_path should be untouched after a failed job, got %q", rec.FilePath)
	}
}
