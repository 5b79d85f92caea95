package api

import (
	"context"
	"log/slog"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/edcb"
	"mytvlog/internal/logging"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/store"
)

// Service executes API operations against the engine. Handlers stay thin:
// they parse HTTP, call here, and translate domain errors to status codes.
type Service struct {
	store     store.Store
	importer  *reconcile.Importer
	lifecycle *reconcile.Lifecycle
	validator *reconcile.Validator
	recorder  edcb.Service
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the service. recorder may be nil when the feed is
// disabled.
func NewService(
	s store.Store,
	importer *reconcile.Importer,
	lifecycle *reconcile.Lifecycle,
	validator *reconcile.Validator,
	recorder edcb.Service,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:     s,
		importer:  importer,
		lifecycle: lifecycle,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) readTx(ctx context.Context) (store.Tx, func(), error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, nil, catalog.Unexpected("begin transaction", err)
	}
	return tx, func() { _ = tx.Rollback() }, nil
}

// GetProgram loads one program.
func (s *Service) GetProgram(ctx context.Context, id int64) (*ProgramPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	program, err := tx.Programs().GetByID(ctx, id)
	if err != nil {
		return nil, catalog.Unexpected("load program", err)
	}
	if program == nil {
		return nil, catalog.NotFound("program")
	}
	payload := FromProgram(program)
	return &payload, nil
}

// SearchPrograms lists programs.
func (s *Service) SearchPrograms(ctx context.Context, q store.ProgramQuery) ([]ProgramPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	programs, err := tx.Programs().Search(ctx, q)
	if err != nil {
		return nil, catalog.Unexpected("search programs", err)
	}
	out := make([]ProgramPayload, 0, len(programs))
	for _, p := range programs {
		out = append(out, FromProgram(p))
	}
	return out, nil
}

// GetRecording loads one recording with its program.
func (s *Service) GetRecording(ctx context.Context, id int64) (*RecordingPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	rec, err := tx.Recordings().GetByID(ctx, id)
	if err != nil {
		return nil, catalog.Unexpected("load recording", err)
	}
	if rec == nil {
		return nil, catalog.NotFound("recording")
	}
	payload := FromRecording(rec)
	return &payload, nil
}

// SearchRecordings lists recordings with their programs.
func (s *Service) SearchRecordings(ctx context.Context, q store.RecordingQuery) ([]RecordingPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	recs, err := tx.Recordings().Search(ctx, q)
	if err != nil {
		return nil, catalog.Unexpected("search recordings", err)
	}
	out := make([]RecordingPayload, 0, len(recs))
	for _, r := range recs {
		out = append(out, FromRecording(r))
	}
	return out, nil
}

// CreateRecording resolves the program identity and inserts a recording.
// A non-empty file_path must have the //server/root/rest shape.
func (s *Service) CreateRecording(ctx context.Context, req RecordingCreateRequest) (*RecordingPayload, error) {
	if req.FilePath != "" && !catalog.ValidSharePath(req.FilePath) {
		return nil, catalog.InvalidData("file_path must look like //server/root/rest")
	}
	createdAt := s.now()
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.Time
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, catalog.Unexpected("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	programID, err := tx.Programs().GetOrCreate(ctx, req.Program.Descriptor(), createdAt, createdAt)
	if err != nil {
		return nil, catalog.Unexpected("resolve program", err)
	}
	var watchedAt, deletedAt *time.Time
	if req.WatchedAt != nil {
		watchedAt = &req.WatchedAt.Time
	}
	if req.DeletedAt != nil {
		deletedAt = &req.DeletedAt.Time
	}
	id, err := tx.Recordings().Create(ctx, programID, store.NewRecording{
		FilePath:  req.FilePath,
		WatchedAt: watchedAt,
		DeletedAt: deletedAt,
		CreatedAt: createdAt,
	})
	if err != nil {
		return nil, catalog.Unexpected("insert recording", err)
	}
	rec, err := tx.Recordings().GetByID(ctx, id)
	if err != nil {
		return nil, catalog.Unexpected("reload recording", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, catalog.Unexpected("commit recording", err)
	}
	payload := FromRecording(rec)
	return &payload, nil
}

// PatchRecording applies a lifecycle patch.
func (s *Service) PatchRecording(ctx context.Context, id int64, patch PatchRequest) (*PatchResponse, error) {
	res, err := s.lifecycle.Apply(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return &PatchResponse{
		Accepted:  res.Accepted,
		Recording: FromRecording(res.Recording),
	}, nil
}

// CreateView resolves the program identity and records a viewing event. The
// viewed time doubles as the resolver's reference time, so a duration
// correction only lands when the stored program predates the viewing.
func (s *Service) CreateView(ctx context.Context, req ViewCreateRequest) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return catalog.Unexpected("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	viewedTime := req.ViewedTime.Time
	programID, err := tx.Programs().GetOrCreate(ctx, req.Program.Descriptor(), viewedTime, viewedTime)
	if err != nil {
		return catalog.Unexpected("resolve program", err)
	}
	if err := tx.Views().Create(ctx, programID, viewedTime, s.now()); err != nil {
		return catalog.Unexpected("insert view", err)
	}
	if err := tx.Commit(); err != nil {
		return catalog.Unexpected("commit view", err)
	}
	return nil
}

// SearchViews lists viewing events.
func (s *Service) SearchViews(ctx context.Context, q store.ViewQuery) ([]ViewPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	views, err := tx.Views().Search(ctx, q)
	if err != nil {
		return nil, catalog.Unexpected("search views", err)
	}
	out := make([]ViewPayload, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out, nil
}

// ListDigestions lists programs still waiting to be watched.
func (s *Service) ListDigestions(ctx context.Context) ([]DigestionPayload, error) {
	tx, done, err := s.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	digestions, err := tx.Digestions().List(ctx)
	if err != nil {
		return nil, catalog.Unexpected("list digestions", err)
	}
	out := make([]DigestionPayload, 0, len(digestions))
	for _, d := range digestions {
		out = append(out, FromDigestion(d))
	}
	return out, nil
}

// ImportJSON reconciles a caller-supplied batch.
func (s *Service) ImportJSON(ctx context.Context, req ImportJSONRequest) (*ImportResponse, error) {
	entries := make([]reconcile.ImportEntry, 0, len(req.Imports))
	for _, item := range req.Imports {
		createdAt := s.now()
		if item.CreatedAt != nil {
			createdAt = item.CreatedAt.Time
		}
		entries = append(entries, reconcile.ImportEntry{
			Program: catalog.ProgramDescriptor{
				EventID:   item.EventID,
				ServiceID: item.ServiceID,
				Name:      item.Name,
				StartTime: item.StartTime.Time,
				Duration:  item.Duration,
				Text:      item.Text,
				ExtText:   item.ExtText,
			},
			FilePath:  item.FilePath,
			CreatedAt: createdAt,
		})
	}
	result, err := s.importer.Run(ctx, entries, req.DryRun)
	if err != nil {
		return nil, err
	}
	return &ImportResponse{
		CountPrograms:   result.CountPrograms,
		CountRecordings: result.CountRecordings,
		PreviewImports:  FromPreview(result.Preview),
	}, nil
}

// ImportEDCB pulls the recorder's listings and reconciles them.
func (s *Service) ImportEDCB(ctx context.Context, req ImportEDCBRequest) (*ImportResponse, error) {
	if s.recorder == nil {
		return nil, catalog.InvalidData("recorder feed is not configured")
	}
	infos, err := s.recorder.EnumRecInfoBasic(ctx)
	if err != nil {
		return nil, catalog.Unexpected("list recorder recordings", err)
	}
	createdAt := s.now()
	if req.RecordingCreatedAt != nil {
		createdAt = req.RecordingCreatedAt.Time
	}
	entries := reconcile.EntriesFromRecorder(infos, req.SMBServer, createdAt)
	count := len(entries)

	result, err := s.importer.Run(ctx, entries, req.DryRun)
	if err != nil {
		return nil, err
	}
	return &ImportResponse{
		CountEDCBRecordings: &count,
		CountPrograms:       result.CountPrograms,
		CountRecordings:     result.CountRecordings,
		PreviewImports:      FromPreview(result.Preview),
	}, nil
}

// Validate runs the file-path repair pass.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) ([]ValidatePayload, error) {
	results, err := s.validator.Run(ctx, req.FindFilePathRoots, req.DryRun, s.now())
	if err != nil {
		return nil, err
	}
	return FromValidation(results), nil
}
