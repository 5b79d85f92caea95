package catalog

import "time"

// ProgramKey is the natural identity of a broadcast instance. Two descriptors
// with the same key refer to the same program regardless of surrogate id.
type ProgramKey struct {
	EventID   int64
	ServiceID int64
	StartTime time.Time
}

// ProgramDescriptor carries the inbound metadata tuple for a program. The key
// fields are immutable once a row exists; Duration may be corrected later.
type ProgramDescriptor struct {
	EventID   int64
	ServiceID int64
	Name      string
	StartTime time.Time
	Duration  int64
	Text      *string
	ExtText   *string
}

// Key returns the natural identity of the descriptor.
func (d ProgramDescriptor) Key() ProgramKey {
	return ProgramKey{EventID: d.EventID, ServiceID: d.ServiceID, StartTime: d.StartTime}
}

// Program is a persisted broadcast instance.
type Program struct {
	ID        int64
	EventID   int64
	ServiceID int64
	Name      string
	StartTime time.Time
	Duration  int64
	Text      *string
	ExtText   *string
	CreatedAt time.Time
}

// EndTime derives the scheduled end of the broadcast.
func (p *Program) EndTime() time.Time {
	return p.StartTime.Add(time.Duration(p.Duration) * time.Second)
}

// Recording is a captured file belonging to exactly one program. A logically
// deleted recording keeps its row with deleted_at set and file_path emptied.
type Recording struct {
	ID        int64
	ProgramID int64
	FilePath  string
	FileSize  *int64
	WatchedAt *time.Time
	DeletedAt *time.Time
	CreatedAt time.Time
}

// RecordingWithProgram is a recording joined with its program, the unit
// returned by the read paths.
type RecordingWithProgram struct {
	Recording
	Program Program
}

// View is a single viewing event against a program.
type View struct {
	ProgramID  int64
	ViewedTime time.Time
	CreatedAt  time.Time
}

// Digestion is a derived row: a program that still has an unwatched,
// undeleted recording and whose accumulated view coverage is low.
type Digestion struct {
	ProgramID   int64
	Name        string
	ServiceID   int64
	StartTime   time.Time
	Duration    int64
	ViewedTimes []time.Time
}
