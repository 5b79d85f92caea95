package reconcile_test

import (
	"context"
	"testing"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/edcb"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/store"
	"mytvlog/internal/testsupport"
)

var baseTime = time.Date(2025, 5, 12, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))

func newsDescriptor(eventID int64) catalog.ProgramDescriptor {
	return catalog.ProgramDescriptor{
		EventID:   eventID,
		ServiceID: 101,
		Name:      "ニュース",
		StartTime: baseTime,
		Duration:  1800,
	}
}

func entry(eventID int64, filePath string) reconcile.ImportEntry {
	return reconcile.ImportEntry{
		Program:   newsDescriptor(eventID),
		FilePath:  filePath,
		CreatedAt: baseTime,
	}
}

func countRows(t *testing.T, s store.Store) (programs, recordings int) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	ps, err := tx.Programs().Search(ctx, store.ProgramQuery{Size: 1000})
	if err != nil {
		t.Fatalf("Search programs: %v", err)
	}
	rs, err := tx.Recordings().Search(ctx, store.RecordingQuery{Watched: true, Deleted: true})
	if err != nil {
		t.Fatalf("Search recordings: %v", err)
	}
	return len(ps), len(rs)
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/test1", 100)
	importer := reconcile.NewImporter(s, files, nil, nil)

	ctx := context.Background()
	entries := []reconcile.ImportEntry{entry(11, "//nas/recorded/test1")}

	first, err := importer.Run(ctx, entries, false)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.CountPrograms != 1 || first.CountRecordings != 1 {
		t.Fatalf("first run: got %d/%d, want 1/1", first.CountPrograms, first.CountRecordings)
	}

	second, err := importer.Run(ctx, entries, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.CountPrograms != 0 || second.CountRecordings != 0 {
		t.Fatalf("second run: got %d/%d, want 0/0", second.CountPrograms, second.CountRecordings)
	}

	programs, recordings := countRows(t, s)
	if programs != 1 || recordings != 1 {
		t.Fatalf("store has %d programs and %d recordings, want 1 and 1", programs, recordings)
	}
}

func TestImportSkipsMissingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	importer := reconcile.NewImporter(s, files, nil, nil)

	res, err := importer.Run(context.Background(), []reconcile.ImportEntry{
		entry(11, "//nas/recorded/nothere"),
	}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CountPrograms != 0 || res.CountRecordings != 0 {
		t.Fatalf("got %d/%d, want 0/0", res.CountPrograms, res.CountRecordings)
	}
}

func TestImportDryRunHasNoSideEffects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/test1", 100)
	importer := reconcile.NewImporter(s, files, nil, nil)

	ctx := context.Background()
	entries := []reconcile.ImportEntry{entry(11, "//nas/recorded/test1")}

	preview, err := importer.Run(ctx, entries, true)
	if err != nil {
		t.Fatalf("dry Run: %v", err)
	}
	if preview.CountPrograms != 1 || preview.CountRecordings != 1 {
		t.Fatalf("dry run: got %d/%d, want 1/1", preview.CountPrograms, preview.CountRecordings)
	}
	if len(preview.Preview) != 1 {
		t.Fatalf("expected 1 preview row, got %d", len(preview.Preview))
	}
	row := preview.Preview[0]
	if row.TempProgramID == nil || *row.TempProgramID != 1 {
		t.Fatalf("expected temp program id 1, got %+v", row.TempProgramID)
	}
	if row.FileSize == nil || *row.FileSize != 100 {
		t.Fatalf("expected probed file size 100, got %v", row.FileSize)
	}

	if programs, recordings := countRows(t, s); programs != 0 || recordings != 0 {
		t.Fatalf("dry run left %d programs and %d recordings", programs, recordings)
	}

	// A real run after the dry run still sees a clean store.
	res, err := importer.Run(ctx, entries, false)
	if err != nil {
		t.Fatalf("Run after dry run: %v", err)
	}
	if res.CountPrograms != 1 || res.CountRecordings != 1 {
		t.Fatalf("got %d/%d, want 1/1", res.CountPrograms, res.CountRecordings)
	}
	if res.Preview != nil {
		t.Fatal("real run should not carry a preview")
	}
}

func TestImportAttachesToExistingProgram(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)

	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/second", 200)
	importer := reconcile.NewImporter(s, files, nil, nil)

	ctx := context.Background()
	res, err := importer.Run(ctx, []reconcile.ImportEntry{entry(11, "//nas/recorded/second")}, true)
	if err != nil {
		t.Fatalf("dry Run: %v", err)
	}
	if res.CountPrograms != 0 || res.CountRecordings != 1 {
		t.Fatalf("got %d/%d, want 0/1", res.CountPrograms, res.CountRecordings)
	}
	if len(res.Preview) != 1 {
		t.Fatalf("expected 1 preview row, got %d", len(res.Preview))
	}
	if res.Preview[0].ExistingProgramID == nil || *res.Preview[0].ExistingProgramID != programID {
		t.Fatalf("expected existing program id %d, got %+v", programID, res.Preview[0].ExistingProgramID)
	}

	if _, err := importer.Run(ctx, []reconcile.ImportEntry{entry(11, "//nas/recorded/second")}, false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	recs, err := tx.Recordings().Search(ctx, store.RecordingQuery{ProgramID: &programID, Watched: true, Deleted: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the recording on the existing program, got %d rows", len(recs))
	}
}

func TestImportTempIDsKeepGaps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	// Event 11's file is already stored, so its candidate recording is
	// suppressed and its new program is dropped with it.
	programID := testsupport.NewProgram(t, s, newsDescriptor(99), baseTime)
	testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "//nas/recorded/dup",
		CreatedAt: baseTime,
	})

	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/dup", 100)
	files.Put("//nas/recorded/fresh", 200)
	importer := reconcile.NewImporter(s, files, nil, nil)

	res, err := importer.Run(context.Background(), []reconcile.ImportEntry{
		entry(11, "//nas/recorded/dup"),
		entry(12, "//nas/recorded/fresh"),
	}, true)
	if err != nil {
		t.Fatalf("dry Run: %v", err)
	}
	if res.CountPrograms != 1 || res.CountRecordings != 1 {
		t.Fatalf("got %d/%d, want 1/1", res.CountPrograms, res.CountRecordings)
	}
	if len(res.Preview) != 1 {
		t.Fatalf("expected only the fresh row in the preview, got %d", len(res.Preview))
	}
	if res.Preview[0].TempProgramID == nil || *res.Preview[0].TempProgramID != 2 {
		t.Fatalf("temp ids must keep their gaps, got %+v", res.Preview[0].TempProgramID)
	}
}

func TestImportSharedNewProgramWithinBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/part1", 100)
	files.Put("//nas/recorded/part2", 100)
	importer := reconcile.NewImporter(s, files, nil, nil)

	ctx := context.Background()
	res, err := importer.Run(ctx, []reconcile.ImportEntry{
		entry(11, "//nas/recorded/part1"),
		entry(11, "//nas/recorded/part2"),
	}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.CountPrograms != 1 || res.CountRecordings != 2 {
		t.Fatalf("got %d/%d, want 1/2", res.CountPrograms, res.CountRecordings)
	}
	if programs, recordings := countRows(t, s); programs != 1 || recordings != 2 {
		t.Fatalf("store has %d programs and %d recordings, want 1 and 2", programs, recordings)
	}
}

func TestEntriesFromRecorder(t *testing.T) {
	infos := []edcb.RecInfo{
		{EventID: 11, ServiceID: 101, Title: "ニュース", StartTimeEPG: baseTime, DurationSec: 1800, RecFilePath: "/recorded/test1.ts"},
		{EventID: 12, ServiceID: 101, Title: "未保存", StartTimeEPG: baseTime, DurationSec: 600, RecFilePath: ""},
	}
	entries := reconcile.EntriesFromRecorder(infos, "nas", baseTime)
	if len(entries) != 1 {
		t.Fatalf("expected listings without files to be skipped, got %d entries", len(entries))
	}
	if entries[0].FilePath != "//nas/recorded/test1.ts" {
		t.Fatalf("unexpected path %q", entries[0].FilePath)
	}
	if entries[0].Program.EventID != 11 || entries[0].Program.Duration != 1800 {
		t.Fatalf("program descriptor not carried over: %+v", entries[0].Program)
	}
}
