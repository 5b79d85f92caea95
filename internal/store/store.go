package store

import (
	"context"
	"time"

	"mytvlog/internal/catalog"
)

// Store is the metadata store abstraction. Two backends exist: the SQLite
// row store and the Postgres warehouse deployment; the reconciliation engine
// is written against this interface only.
type Store interface {
	// Begin opens a transaction scope. Every write path runs inside one.
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a transaction scope exposing the per-entity repositories.
type Tx interface {
	Programs() ProgramRepository
	Recordings() RecordingRepository
	Views() ViewRepository
	Digestions() DigestionRepository
	Commit() error
	Rollback() error
}

// ProgramQuery filters the program read path.
type ProgramQuery struct {
	From *time.Time
	To   *time.Time
	Name string
	Page int
	Size int
}

// RecordingQuery filters the recording read path.
type RecordingQuery struct {
	ProgramID  *int64
	From       *time.Time
	To         *time.Time
	Watched    bool // include watched recordings
	Deleted    bool // include deleted recordings
	FileFolder string
}

// ViewQuery filters the view read path.
type ViewQuery struct {
	ProgramID *int64
	Page      int
	Size      int
}

// NewRecording carries the column values for a recording insert.
type NewRecording struct {
	FilePath  string
	FileSize  *int64
	WatchedAt *time.Time
	DeletedAt *time.Time
	CreatedAt time.Time
}

// ValidationTarget is a row scanned by the file-path validator.
type ValidationTarget struct {
	RecordingID int64
	FilePath    string
}

// ValidationResult is the probe outcome for one scanned recording.
type ValidationResult struct {
	RecordingID int64
	FilePath    string
	FoundPath   *string
	FileSize    *int64
}

// Exists reports whether the probe located the file under any candidate root.
func (r ValidationResult) Exists() bool { return r.FoundPath != nil }

// Healed reports whether applying the result changes the stored path: a
// missing file empties it, a file found under another root repoints it.
func (r ValidationResult) Healed() bool {
	if r.FoundPath == nil {
		return r.FilePath != ""
	}
	return *r.FoundPath != r.FilePath
}

// ProgramRepository resolves and reads broadcast programs.
type ProgramRepository interface {
	Search(ctx context.Context, q ProgramQuery) ([]*catalog.Program, error)
	// GetByID returns nil when no program has the id.
	GetByID(ctx context.Context, id int64) (*catalog.Program, error)
	// FindByKey returns nil when no program matches the identity key.
	FindByKey(ctx context.Context, key catalog.ProgramKey) (*catalog.Program, error)
	Create(ctx context.Context, desc catalog.ProgramDescriptor, createdAt time.Time) (int64, error)
	UpdateDuration(ctx context.Context, id, duration int64) error
	// GetOrCreate is the program identity resolver; see ResolveProgram.
	GetOrCreate(ctx context.Context, desc catalog.ProgramDescriptor, createdAt, referenceTime time.Time) (int64, error)
}

// RecordingRepository reads and mutates recording rows.
type RecordingRepository interface {
	Search(ctx context.Context, q RecordingQuery) ([]*catalog.RecordingWithProgram, error)
	// GetByID returns nil when no recording has the id.
	GetByID(ctx context.Context, id int64) (*catalog.RecordingWithProgram, error)
	Create(ctx context.Context, programID int64, rec NewRecording) (int64, error)
	// FilePath returns the stored path and whether the row exists.
	FilePath(ctx context.Context, id int64) (string, bool, error)
	ExistsByFilePath(ctx context.Context, filePath string) (bool, error)
	// ApplyColumns performs the sparse column update left over after the
	// lifecycle rules ran; absent fields stay untouched.
	ApplyColumns(ctx context.Context, id int64, cols catalog.RecordingColumns) error
	// ClearFile empties file_path and file_size after a physical deletion.
	ClearFile(ctx context.Context, id int64) error
	// SetFilePath repoints the stored path after a physical move.
	SetFilePath(ctx context.Context, id int64, filePath string) error
	// ScanForValidation selects every recording that should logically have a
	// file, plus any row still carrying a path despite being marked deleted.
	ScanForValidation(ctx context.Context) ([]ValidationTarget, error)
	// ApplyValidation heals the scanned rows: found rows get the resolved
	// path and size, missing rows get an emptied path and a backfilled
	// deleted_at.
	ApplyValidation(ctx context.Context, results []ValidationResult, now time.Time) error
}

// ViewRepository records and reads viewing events.
type ViewRepository interface {
	Search(ctx context.Context, q ViewQuery) ([]*catalog.View, error)
	Create(ctx context.Context, programID int64, viewedTime, createdAt time.Time) error
}

// DigestionRepository lists programs with an unwatched recording and low
// view coverage.
type DigestionRepository interface {
	List(ctx context.Context) ([]*catalog.Digestion, error)
}
