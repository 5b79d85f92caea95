// Package tasks runs the background file operations scheduled by recording
// lifecycle patches. A job is executed after the originating request has
// committed and responded; its outcome is never reported to that caller.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mytvlog/internal/logging"
	"mytvlog/internal/metrics"
	"mytvlog/internal/smbfs"
	"mytvlog/internal/store"
)

// Kind names a background file operation.
type Kind string

const (
	// KindDelete removes the files matching Pattern, then empties the
	// recording's stored path and size.
	KindDelete Kind = "delete"
	// KindMove relocates the files matching Pattern into DstDir, then
	// repoints the recording's stored path to NewPath.
	KindMove Kind = "move"
)

// Job describes one background file operation.
type Job struct {
	ID          string
	RecordingID int64
	Kind        Kind
	Pattern     string
	DstDir      string
	NewPath     string
}

// Worker consumes scheduled jobs one at a time. It owns its own store handle;
// the request-scoped transaction never crosses the async boundary. The
// filesystem operation always runs first, and only afterwards is the outcome
// committed on a fresh transaction.
type Worker struct {
	store   store.Store
	files   smbfs.FileStore
	metrics *metrics.Metrics
	logger  *slog.Logger

	inline bool
	jobs   chan Job
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	locks   map[int64]*sync.Mutex
}

// NewWorker builds a queued worker. Start must be called before scheduling.
func NewWorker(s store.Store, files smbfs.FileStore, m *metrics.Metrics, logger *slog.Logger, queueSize int) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if queueSize < 1 {
		queueSize = 64
	}
	return &Worker{
		store:   s,
		files:   files,
		metrics: m,
		logger:  logger,
		jobs:    make(chan Job, queueSize),
		locks:   make(map[int64]*sync.Mutex),
	}
}

// NewInline builds a worker that executes jobs synchronously on Schedule.
// Tests use it for determinism.
func NewInline(s store.Store, files smbfs.FileStore, m *metrics.Metrics, logger *slog.Logger) *Worker {
	w := NewWorker(s, files, m, logger, 1)
	w.inline = true
	return w
}

// Start launches the consumer goroutine.
func (w *Worker) Start() {
	if w.inline {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for job := range w.jobs {
			w.execute(context.Background(), job)
		}
	}()
}

// Stop drains the queue and waits for in-flight work.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.jobs)
	w.wg.Wait()
}

// Schedule enqueues a job, assigning an id when absent. In inline mode the
// job runs before Schedule returns; its failure is still only logged, the
// same as the queued path.
func (w *Worker) Schedule(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.mu.Unlock()

	if w.inline {
		w.execute(context.Background(), job)
		return nil
	}
	w.jobs <- job
	return nil
}

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errStopped{}

type errStopped struct{}

func (errStopped) Error() string { return "background worker stopped" }

// recordingLock serializes jobs per recording so two physical operations on
// the same files cannot interleave.
func (w *Worker) recordingLock(id int64) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[id] = lock
	}
	return lock
}

func (w *Worker) execute(ctx context.Context, job Job) {
	lock := w.recordingLock(job.RecordingID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	err := w.run(ctx, job)
	if w.metrics != nil {
		w.metrics.Jobs.WithLabelValues(string(job.Kind)).Inc()
		w.metrics.JobDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			w.metrics.JobFailures.WithLabelValues(string(job.Kind)).Inc()
		}
	}
	if err != nil {
		w.logger.Error("background job failed",
			logging.String("job_id", job.ID),
			logging.String("kind", string(job.Kind)),
			logging.Int64("recording_id", job.RecordingID),
			logging.Error(err))
		return
	}
	w.logger.Info("background job done",
		logging.String("job_id", job.ID),
		logging.String("kind", string(job.Kind)),
		logging.Int64("recording_id", job.RecordingID),
		logging.Duration("elapsed", time.Since(started)))
}

func (w *Worker) run(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindDelete:
		if _, err := w.files.DeleteFiles(ctx, job.Pattern); err != nil {
			return err
		}
		return w.withTx(ctx, func(tx store.Tx) error {
			return tx.Recordings().ClearFile(ctx, job.RecordingID)
		})
	case KindMove:
		if err := w.files.MoveFiles(ctx, job.Pattern, job.DstDir); err != nil {
			return err
		}
		return w.withTx(ctx, func(tx store.Tx) error {
			return tx.Recordings().SetFilePath(ctx, job.RecordingID, job.NewPath)
		})
	default:
		w.logger.Warn("unknown job kind dropped", logging.String("kind", string(job.Kind)))
		return nil
	}
}

func (w *Worker) withTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
