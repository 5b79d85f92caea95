package reconcile

import (
	"context"
	"log/slog"

	"mytvlog/internal/catalog"
	"mytvlog/internal/logging"
	"mytvlog/internal/metrics"
	"mytvlog/internal/store"
	"mytvlog/internal/tasks"
)

// JobScheduler accepts background file jobs. The production implementation is
// the tasks worker.
type JobScheduler interface {
	Schedule(job tasks.Job) error
}

// PatchResult is the outcome of a lifecycle patch. Accepted means a physical
// file operation was scheduled and the recording's state is eventually
// consistent; the returned recording still shows the pre-completion columns.
type PatchResult struct {
	Recording *catalog.RecordingWithProgram
	Accepted  bool
}

// Lifecycle applies recording patches: the database write happens inside the
// request transaction, physical file work is dispatched to the scheduler
// after commit.
type Lifecycle struct {
	store   store.Store
	jobs    JobScheduler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLifecycle wires a lifecycle manager.
func NewLifecycle(s store.Store, jobs JobScheduler, m *metrics.Metrics, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lifecycle{store: s, jobs: jobs, metrics: m, logger: logger}
}

// Apply runs the patch rules against the recording. Exactly one rule decides
// the patch: a non-null deleted_at wins, then file_folder, then a direct
// file_path write. watched_at rides along with any of them.
func (l *Lifecycle) Apply(ctx context.Context, recordingID int64, patch catalog.RecordingPatch) (*PatchResult, error) {
	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, catalog.Unexpected("begin patch transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	recordings := tx.Recordings()

	currentPath, found, err := recordings.FilePath(ctx, recordingID)
	if err != nil {
		return nil, catalog.Unexpected("load recording", err)
	}
	if !found {
		return nil, catalog.NotFound("recording")
	}

	var cols catalog.RecordingColumns
	if patch.WatchedAt.Set {
		cols.SetWatched = true
		cols.WatchedAt = patch.WatchedAt.Ptr()
	}

	var job *tasks.Job
	rule := "file_path"
	switch {
	case patch.DeletedAt.Set && patch.DeletedAt.Valid:
		rule = "delete"
		if patch.FilePath.Set && patch.FilePath.Valid && patch.FilePath.Value != "" {
			return nil, catalog.InvalidData("file_path cannot be set together with deleted_at")
		}
		cols.SetDeleted = true
		cols.DeletedAt = patch.DeletedAt.Ptr()
		cols.SetFilePath = true
		cols.FilePath = ""
		if currentPath != "" {
			job = &tasks.Job{
				RecordingID: recordingID,
				Kind:        tasks.KindDelete,
				Pattern:     currentPath + "*",
			}
			// The stored path is only emptied by the job once the files are
			// actually gone.
			cols.SetFilePath = false
		}

	case patch.FileFolder.Set && patch.FileFolder.Valid:
		rule = "move"
		if patch.FilePath.Set {
			return nil, catalog.InvalidData("file_path cannot be set together with file_folder")
		}
		if currentPath == "" {
			return nil, catalog.InvalidData("recording has no file")
		}
		newPath, ok := catalog.ReplaceRoot(currentPath, patch.FileFolder.Value)
		if !ok {
			return nil, catalog.Unexpected("stored file_path is not a share path", nil)
		}
		if patch.DeletedAt.Set {
			cols.SetDeleted = true
			cols.DeletedAt = patch.DeletedAt.Ptr()
		}
		job = &tasks.Job{
			RecordingID: recordingID,
			Kind:        tasks.KindMove,
			Pattern:     currentPath + "*",
			DstDir:      catalog.ParentDir(newPath),
			NewPath:     newPath,
		}

	default:
		if patch.FilePath.Set {
			if !patch.FilePath.Valid {
				return nil, catalog.InvalidData("file_path cannot be null")
			}
			if !catalog.ValidSharePath(patch.FilePath.Value) {
				return nil, catalog.InvalidData("file_path must look like //server/root/rest")
			}
			cols.SetFilePath = true
			cols.FilePath = patch.FilePath.Value
		}
		if patch.DeletedAt.Set {
			// Only the null case reaches here: an un-delete.
			cols.SetDeleted = true
			cols.DeletedAt = nil
		}
	}

	if err := recordings.ApplyColumns(ctx, recordingID, cols); err != nil {
		return nil, catalog.Unexpected("apply patch columns", err)
	}
	rec, err := recordings.GetByID(ctx, recordingID)
	if err != nil {
		return nil, catalog.Unexpected("reload recording", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalog.Unexpected("commit patch", err)
	}

	accepted := false
	if job != nil {
		if err := l.jobs.Schedule(*job); err != nil {
			// The column update is already committed; the repair pass will
			// reconcile the files later.
			l.logger.Error("scheduling background job failed",
				logging.Int64("recording_id", recordingID),
				logging.String("kind", string(job.Kind)),
				logging.Error(err))
			return nil, catalog.Unexpected("schedule background job", err)
		}
		accepted = true
	}

	if l.metrics != nil {
		l.metrics.Patches.WithLabelValues(rule).Inc()
	}
	l.logger.Info("recording patch applied",
		logging.Int64("recording_id", recordingID),
		logging.String("rule", rule),
		logging.Bool("accepted", accepted))
	return &PatchResult{Recording: rec, Accepted: accepted}, nil
}
