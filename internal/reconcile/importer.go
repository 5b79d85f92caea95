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

// ImportEntry is one inbound recording candidate: the program metadata tuple
// plus the file it claims to live at.
type ImportEntry struct {
	Program   catalog.ProgramDescriptor
	FilePath  string
	CreatedAt time.Time
}

// PreviewRow is one row of the dry-run preview. Program fields come from the
// existing row when the candidate matched one, otherwise from the candidate
// itself. Temp ids are positions in the probed batch; gaps mark candidates
// that were filtered out after numbering.
type PreviewRow struct {
	TempProgramID     *int64
	ExistingProgramID *int64
	EventID           int64
	ServiceID         int64
	Name              string
	StartTime         time.Time
	Duration          int64
	Text              *string
	ExtText           *string
	NewRecordingID    int64
	FilePath          string
	FileSize          *int64
	CreatedAt         time.Time
}

// ImportResult summarizes one bulk import run.
type ImportResult struct {
	CountPrograms   int
	CountRecordings int
	// Preview is populated on dry runs only.
	Preview []PreviewRow
}

// Importer reconciles batches of recording candidates against the store.
type Importer struct {
	store   store.Store
	files   smbfs.FileStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewImporter wires an importer.
func NewImporter(s store.Store, files smbfs.FileStore, m *metrics.Metrics, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{store: s, files: files, metrics: m, logger: logger}
}

// candidate is an entry that survived the existence probe, with bookkeeping
// for the reconciliation passes.
type candidate struct {
	entry    ImportEntry
	fileSize int64

	tempProgramID     *int64
	existingProgram   *catalog.Program
	duplicateOfStored bool
}

// Run reconciles entries against the store. Entries whose file cannot be
// found are dropped, programs are matched on the full identity key, and a
// recording whose exact file_path already exists in the store is suppressed.
// A dry run rolls back unconditionally and returns the preview.
func (im *Importer) Run(ctx context.Context, entries []ImportEntry, dryRun bool) (*ImportResult, error) {
	candidates, err := im.probe(ctx, entries)
	if err != nil {
		return nil, err
	}

	tx, err := im.store.Begin(ctx)
	if err != nil {
		return nil, catalog.Unexpected("begin import transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	programs := tx.Programs()
	recordings := tx.Recordings()

	// Pass 1: match each candidate's program against the store, numbering the
	// ones that need a new row. Identical keys within the batch share one
	// temp id.
	tempByKey := make(map[catalog.ProgramKey]*int64)
	nextTempID := int64(0)
	for i := range candidates {
		c := &candidates[i]
		key := c.entry.Program.Key()
		if tempID, ok := tempByKey[key]; ok {
			c.tempProgramID = tempID
			continue
		}
		existing, err := programs.FindByKey(ctx, key)
		if err != nil {
			return nil, catalog.Unexpected("match import program", err)
		}
		if existing != nil {
			c.existingProgram = existing
			continue
		}
		nextTempID++
		tempID := nextTempID
		c.tempProgramID = &tempID
		tempByKey[key] = &tempID
	}
	// Pass 2: suppress recordings whose exact path is already stored.
	for i := range candidates {
		c := &candidates[i]
		exists, err := recordings.ExistsByFilePath(ctx, c.entry.FilePath)
		if err != nil {
			return nil, catalog.Unexpected("check import recording", err)
		}
		c.duplicateOfStored = exists
	}

	// Pass 3: a new program candidate whose every recording was suppressed
	// has nothing to anchor it; drop it. Surviving temp ids keep their
	// numbers.
	liveTemp := make(map[int64]bool)
	for i := range candidates {
		c := &candidates[i]
		if !c.duplicateOfStored && c.tempProgramID != nil {
			liveTemp[*c.tempProgramID] = true
		}
	}

	countRecordings := 0
	for i := range candidates {
		if !candidates[i].duplicateOfStored {
			countRecordings++
		}
	}
	result := &ImportResult{
		CountPrograms:   len(liveTemp),
		CountRecordings: countRecordings,
	}

	if dryRun {
		result.Preview = buildPreview(candidates, liveTemp)
		return result, nil
	}

	// Commit path: create the surviving programs, then the recordings.
	realByTemp := make(map[int64]int64)
	for i := range candidates {
		c := &candidates[i]
		if c.duplicateOfStored || c.tempProgramID == nil {
			continue
		}
		if _, done := realByTemp[*c.tempProgramID]; done {
			continue
		}
		id, err := programs.Create(ctx, c.entry.Program, c.entry.CreatedAt)
		if err != nil {
			return nil, catalog.Unexpected("insert import program", err)
		}
		realByTemp[*c.tempProgramID] = id
	}
	for i := range candidates {
		c := &candidates[i]
		if c.duplicateOfStored {
			continue
		}
		programID := int64(0)
		if c.existingProgram != nil {
			programID = c.existingProgram.ID
		} else {
			programID = realByTemp[*c.tempProgramID]
		}
		size := c.fileSize
		if _, err := recordings.Create(ctx, programID, store.NewRecording{
			FilePath:  c.entry.FilePath,
			FileSize:  &size,
			CreatedAt: c.entry.CreatedAt,
		}); err != nil {
			return nil, catalog.Unexpected("insert import recording", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, catalog.Unexpected("commit import", err)
	}

	if im.metrics != nil {
		im.metrics.ImportedPrograms.Add(float64(result.CountPrograms))
		im.metrics.ImportedRecordings.Add(float64(result.CountRecordings))
	}
	im.logger.Info("bulk import committed",
		logging.Int("input", len(entries)),
		logging.Int("programs", result.CountPrograms),
		logging.Int("recordings", result.CountRecordings))
	return result, nil
}

// probe drops entries whose file cannot be found and attaches sizes.
func (im *Importer) probe(ctx context.Context, entries []ImportEntry) ([]candidate, error) {
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		size, err := im.files.FileSize(ctx, entry.FilePath)
		if err != nil {
			return nil, catalog.Unexpected("probe import file", err)
		}
		if size == nil {
			im.logger.Debug("import entry skipped, file not found",
				logging.String("file_path", entry.FilePath))
			continue
		}
		candidates = append(candidates, candidate{entry: entry, fileSize: *size})
	}
	return candidates, nil
}

func buildPreview(candidates []candidate, liveTemp map[int64]bool) []PreviewRow {
	rows := make([]PreviewRow, 0, len(candidates))
	var recordingID int64
	for i := range candidates {
		c := &candidates[i]
		if c.duplicateOfStored {
			continue
		}
		recordingID++

		row := PreviewRow{
			NewRecordingID: recordingID,
			FilePath:       c.entry.FilePath,
			CreatedAt:      c.entry.CreatedAt,
		}
		size := c.fileSize
		row.FileSize = &size

		if c.existingProgram != nil {
			p := c.existingProgram
			row.ExistingProgramID = &p.ID
			row.EventID = p.EventID
			row.ServiceID = p.ServiceID
			row.Name = p.Name
			row.StartTime = p.StartTime
			row.Duration = p.Duration
			row.Text = p.Text
			row.ExtText = p.ExtText
		} else {
			if c.tempProgramID != nil && liveTemp[*c.tempProgramID] {
				row.TempProgramID = c.tempProgramID
			}
			d := c.entry.Program
			row.EventID = d.EventID
			row.ServiceID = d.ServiceID
			row.Name = d.Name
			row.StartTime = d.StartTime
			row.Duration = d.Duration
			row.Text = d.Text
			row.ExtText = d.ExtText
		}
		rows = append(rows, row)
	}
	return rows
}
