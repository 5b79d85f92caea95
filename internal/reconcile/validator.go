package reconcile

import (
	"context"
	"log/slog"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/logging"
	"mytvlog/internal/metrics"
	"mytvlog/internal/smbfs"
	"mytvlog/internal/store"
)

// Validator repairs drift between recording rows and the files on the share.
// It scans every recording that should logically have a file, plus any row
// still carrying a path despite being marked deleted, and probes the share
// for each.
type Validator struct {
	store   store.Store
	files   smbfs.FileStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewValidator wires a validator.
func NewValidator(s store.Store, files smbfs.FileStore, m *metrics.Metrics, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{store: s, files: files, metrics: m, logger: logger}
}

// Run scans, probes, and on a non-dry run heals the store: a found file gets
// its resolved path and size written back, a missing one gets its path
// emptied and deleted_at backfilled. Extra roots are tried, in order, after
// the path's own root. Both modes return the probe outcomes.
func (v *Validator) Run(ctx context.Context, extraRoots []string, dryRun bool, now time.Time) ([]store.ValidationResult, error) {
	tx, err := v.store.Begin(ctx)
	if err != nil {
		return nil, catalog.Unexpected("begin validation transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	recordings := tx.Recordings()

	targets, err := recordings.ScanForValidation(ctx)
	if err != nil {
		return nil, catalog.Unexpected("scan recordings", err)
	}

	results := make([]store.ValidationResult, 0, len(targets))
	for _, target := range targets {
		foundPath, size, err := v.probe(ctx, target.FilePath, extraRoots)
		if err != nil {
			return nil, err
		}
		results = append(results, store.ValidationResult{
			RecordingID: target.RecordingID,
			FilePath:    target.FilePath,
			FoundPath:   foundPath,
			FileSize:    size,
		})
	}

	if dryRun {
		return results, nil
	}

	if err := recordings.ApplyValidation(ctx, results, now); err != nil {
		return nil, catalog.Unexpected("apply validation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalog.Unexpected("commit validation", err)
	}

	healed := 0
	for _, res := range results {
		if res.Healed() {
			healed++
		}
	}
	if v.metrics != nil {
		v.metrics.ValidationRuns.Inc()
		v.metrics.HealedRecordings.Add(float64(healed))
	}
	v.logger.Info("file-path validation committed",
		logging.Int("scanned", len(targets)),
		logging.Int("healed", healed))
	return results, nil
}

// probe looks for the file under its own root first, then under each extra
// root with the same server and remaining path. A path that cannot be split
// counts as not found.
func (v *Validator) probe(ctx context.Context, filePath string, extraRoots []string) (*string, *int64, error) {
	server, root, rest, ok := catalog.SplitSharePath(filePath)
	if !ok {
		return nil, nil, nil
	}
	roots := append([]string{root}, extraRoots...)
	for _, candidate := range roots {
		candidatePath := catalog.JoinSharePath(server, candidate, rest)
		size, err := v.files.FileSize(ctx, candidatePath)
		if err != nil {
			return nil, nil, catalog.Unexpected("probe file", err)
		}
		if size != nil {
			return &candidatePath, size, nil
		}
	}
	return nil, nil, nil
}
