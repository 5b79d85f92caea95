package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mytvlog/internal/metrics"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/store"
	"mytvlog/internal/testsupport"
)

func TestValidatorHealsMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	id := testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "//nas/recorded/gone.ts",
		CreatedAt: baseTime,
	})

	validator := reconcile.NewValidator(s, files, nil, nil)
	now := baseTime.Add(24 * time.Hour)
	results, err := validator.Run(context.Background(), nil, false, now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Exists() {
		t.Fatalf("expected one missing result, got %+v", results)
	}

	rec := getRecording(t, s, id)
	if rec.FilePath != "" || rec.FileSize != nil {
		t.Fatalf("missing file should empty the columns, got %q %v", rec.FilePath, rec.FileSize)
	}
	if rec.DeletedAt == nil || !rec.DeletedAt.Equal(now) {
		t.Fatalf("deleted_at should be backfilled to %v, got %v", now, rec.DeletedAt)
	}
}

func TestValidatorFindsFileUnderExtraRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	// The file was moved to another share with the same structure.
	files.Put("//nas/recorded2/2025/a.ts", 300)
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	id := testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "//nas/recorded/2025/a.ts",
		CreatedAt: baseTime,
	})

	validator := reconcile.NewValidator(s, files, nil, nil)
	results, err := validator.Run(context.Background(), []string{"recorded2"}, false, baseTime)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || !results[0].Exists() {
		t.Fatalf("expected the file to be found, got %+v", results)
	}
	if *results[0].FoundPath != "//nas/recorded2/2025/a.ts" {
		t.Fatalf("unexpected found path %q", *results[0].FoundPath)
	}

	rec := getRecording(t, s, id)
	if rec.FilePath != "//nas/recorded2/2025/a.ts" {
		t.Fatalf("file_path should be repointed, got %q", rec.FilePath)
	}
	if rec.FileSize == nil || *rec.FileSize != 300 {
		t.Fatalf("file_size should be refreshed, got %v", rec.FileSize)
	}
	if rec.DeletedAt != nil {
		t.Fatalf("a found file must stay undeleted, got %v", rec.DeletedAt)
	}
}

func TestValidatorOwnRootWinsOverExtras(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/a.ts", 100)
	files.Put("//nas/recorded2/a.ts", 999)
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "//nas/recorded/a.ts",
		CreatedAt: baseTime,
	})

	validator := reconcile.NewValidator(s, files, nil, nil)
	results, err := validator.Run(context.Background(), []string{"recorded2"}, true, baseTime)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if *results[0].FoundPath != "//nas/recorded/a.ts" || *results[0].FileSize != 100 {
		t.Fatalf("the path's own root must be probed first, got %+v", results[0])
	}
}

func TestValidatorCountsOnlyRepairedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	files.Put("//nas/recorded/kept.ts", 100)
	files.Put("//nas/recorded2/moved.ts", 200)
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	for _, p := range []string{
		"//nas/recorded/kept.ts",
		"//nas/recorded/moved.ts",
		"//nas/recorded/gone.ts",
	} {
		testsupport.NewRecording(t, s, programID, store.NewRecording{
			FilePath:  p,
			CreatedAt: baseTime,
		})
	}

	m := metrics.New()
	validator := reconcile.NewValidator(s, files, m, nil)
	results, err := validator.Run(context.Background(), []string{"recorded2"}, false, baseTime)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	// The repointed and the emptied row count as healed, the untouched one
	// does not.
	if got := testutil.ToFloat64(m.HealedRecordings); got != 2 {
		t.Fatalf("healed counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ValidationRuns); got != 1 {
		t.Fatalf("validation runs counter = %v, want 1", got)
	}
}

func TestValidatorDryRunLeavesStoreUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	id := testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "//nas/recorded/gone.ts",
		CreatedAt: baseTime,
	})

	validator := reconcile.NewValidator(s, files, nil, nil)
	results, err := validator.Run(context.Background(), nil, true, baseTime)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Exists() {
		t.Fatalf("expected one missing result, got %+v", results)
	}

	rec := getRecording(t, s, id)
	if rec.FilePath != "//nas/recorded/gone.ts" || rec.DeletedAt != nil {
		t.Fatalf("dry run must not heal, got %q %v", rec.FilePath, rec.DeletedAt)
	}
}

func TestValidatorSkipsUnsplittablePaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	files := testsupport.NewFakeFileStore()
	programID := testsupport.NewProgram(t, s, newsDescriptor(11), baseTime)
	testsupport.NewRecording(t, s, programID, store.NewRecording{
		FilePath:  "not-a-share-path",
		CreatedAt: baseTime,
	})

	validator := reconcile.NewValidator(s, files, nil, nil)
	results, err := validator.Run(context.Background(), []string{"recorded2"}, true, baseTime)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Exists() {
		t.Fatalf("an unsplittable path counts as not found, got %+v", results)
	}
	if len(files.DeleteCalls) != 0 && len(files.MoveCalls) != 0 {
		t.Fatal("no file operations expected")
	}
}
