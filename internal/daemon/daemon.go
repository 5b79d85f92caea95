package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mytvlog/internal/api"
	"mytvlog/internal/config"
	"mytvlog/internal/edcb"
	"mytvlog/internal/logging"
	"mytvlog/internal/metrics"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/smbfs"
	"mytvlog/internal/store"
	"mytvlog/internal/store/postgres"
	"mytvlog/internal/store/sqlite"
	"mytvlog/internal/tasks"
)

// Daemon coordinates the API server and the background file-operation worker
// and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	store       store.Store
	workerStore store.Store
	files       smbfs.FileStore
	worker      *tasks.Worker
	svc         *api.Service
	api         *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.Database.PostgresDSN)
	default:
		return sqlite.Open(cfg.Database.SQLitePath)
	}
}

// New constructs a daemon with production wiring: one store handle for the
// request path, a second for the worker, and a live SMB session.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	apiStore, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	workerStore, err := openStore(cfg)
	if err != nil {
		apiStore.Close()
		return nil, fmt.Errorf("open worker store: %w", err)
	}
	files := smbfs.NewClient(smbfs.Options{
		Server:      cfg.SMB.Server,
		Port:        cfg.SMB.Port,
		Username:    cfg.SMB.Username,
		Password:    cfg.SMB.Password,
		Domain:      cfg.SMB.Domain,
		DialTimeout: time.Duration(cfg.SMB.DialTimeoutSeconds) * time.Second,
	}, logger)
	return NewWithStores(cfg, apiStore, workerStore, files, logger)
}

// NewWithStores constructs a daemon around caller-supplied store handles and
// file store. Tests use it to substitute in-memory fakes.
func NewWithStores(cfg *config.Config, apiStore, workerStore store.Store, files smbfs.FileStore, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || apiStore == nil || workerStore == nil || files == nil {
		return nil, errors.New("daemon requires config, stores, and a file store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	m := metrics.New()
	worker := tasks.NewWorker(workerStore, files, m, logger, cfg.Workflow.JobQueueSize)
	importer := reconcile.NewImporter(apiStore, files, m, logger)
	lifecycle := reconcile.NewLifecycle(apiStore, worker, m, logger)
	validator := reconcile.NewValidator(apiStore, files, m, logger)
	recorder := edcb.NewConfiguredService(cfg)
	svc := api.NewService(apiStore, importer, lifecycle, validator, recorder, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "mytvlogd.lock")
	d := &Daemon{
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		store:       apiStore,
		workerStore: workerStore,
		files:       files,
		worker:      worker,
		svc:         svc,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, svc, logger)
	return d, nil
}

// Service exposes the API service layer, for command-line use.
func (d *Daemon) Service() *api.Service {
	return d.svc
}

// Start acquires the daemon lock, starts the worker and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mytvlog daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.worker.Start()
	if err := d.api.start(runCtx); err != nil {
		d.worker.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		slog.String("lock", d.lockPath),
		slog.String("driver", d.cfg.Database.Driver))
	return nil
}

// Stop shuts down the API server, drains the worker queue, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if closer, ok := d.files.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.workerStore.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Status reports daemon identity and store configuration.
func (d *Daemon) Status() api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Driver:       d.cfg.Database.Driver,
		LockFilePath: d.lockPath,
	}
	if d.cfg.Database.Driver != "postgres" {
		status.DatabasePath = d.cfg.Database.SQLitePath
	}
	return status
}
