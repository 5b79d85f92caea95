package api

import "mytvlog/internal/catalog"

// ProgramBody is the inbound program metadata tuple.
type ProgramBody struct {
	EventID   int64    `json:"event_id"`
	ServiceID int64    `json:"service_id"`
	Name      string   `json:"name"`
	StartTime JSONTime `json:"start_time"`
	Duration  int64    `json:"duration"`
	Text      *string  `json:"text"`
	ExtText   *string  `json:"ext_text"`
}

// ProgramPayload is a program as rendered by the read endpoints.
type ProgramPayload struct {
	ID        int64   `json:"id"`
	EventID   int64   `json:"event_id"`
	ServiceID int64   `json:"service_id"`
	Name      string  `json:"name"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  int64   `json:"duration"`
	Text      *string `json:"text"`
	ExtText   *string `json:"ext_text"`
	CreatedAt string  `json:"created_at"`
}

// RecordingPayload is a recording joined with its program.
type RecordingPayload struct {
	ID         int64          `json:"id"`
	Program    ProgramPayload `json:"program"`
	FilePath   string         `json:"file_path"`
	FileFolder *string        `json:"file_folder"`
	FileSize   *int64         `json:"file_size"`
	WatchedAt  *string        `json:"watched_at"`
	DeletedAt  *string        `json:"deleted_at"`
	CreatedAt  string         `json:"created_at"`
}

// ViewPayload is one viewing event.
type ViewPayload struct {
	ProgramID  int64  `json:"program_id"`
	ViewedTime string `json:"viewed_time"`
	CreatedAt  string `json:"created_at"`
}

// DigestionPayload is a program still waiting to be watched.
type DigestionPayload struct {
	ProgramID   int64    `json:"program_id"`
	Name        string   `json:"name"`
	ServiceID   int64    `json:"service_id"`
	StartTime   string   `json:"start_time"`
	Duration    int64    `json:"duration"`
	ViewedTimes []string `json:"viewed_times"`
}

// RecordingCreateRequest creates a recording, resolving its program first.
type RecordingCreateRequest struct {
	Program   ProgramBody `json:"program"`
	FilePath  string      `json:"file_path"`
	WatchedAt *JSONTime   `json:"watched_at"`
	DeletedAt *JSONTime   `json:"deleted_at"`
	CreatedAt *JSONTime   `json:"created_at"`
}

// ViewCreateRequest records a viewing event, resolving its program first.
type ViewCreateRequest struct {
	Program    ProgramBody `json:"program"`
	ViewedTime JSONTime    `json:"viewed_time"`
}

// PatchRequest is the sparse recording lifecycle patch body.
type PatchRequest = catalog.RecordingPatch

// PatchResponse carries the patched recording. Accepted mirrors the HTTP
// status choice: true means a physical file operation is still in flight.
type PatchResponse struct {
	Accepted  bool             `json:"accepted"`
	Recording RecordingPayload `json:"recording"`
}

// ImportItem is one candidate in a JSON bulk import.
type ImportItem struct {
	EventID   int64     `json:"event_id"`
	ServiceID int64     `json:"service_id"`
	Name      string    `json:"name"`
	StartTime JSONTime  `json:"start_time"`
	Duration  int64     `json:"duration"`
	Text      *string   `json:"text"`
	ExtText   *string   `json:"ext_text"`
	FilePath  string    `json:"file_path"`
	CreatedAt *JSONTime `json:"created_at"`
}

// ImportJSONRequest is the body of POST /api/recordings/import-json.
type ImportJSONRequest struct {
	DryRun  bool         `json:"dry_run"`
	Imports []ImportItem `json:"imports"`
}

// ImportEDCBRequest is the body of POST /api/recordings/import-edcb.
type ImportEDCBRequest struct {
	DryRun             bool      `json:"dry_run"`
	SMBServer          string    `json:"smb_server"`
	RecordingCreatedAt *JSONTime `json:"recording_created_at"`
}

// PreviewPayload is one dry-run preview row.
type PreviewPayload struct {
	TempProgramID     *int64  `json:"temp_program_id"`
	ExistingProgramID *int64  `json:"existing_program_id"`
	EventID           int64   `json:"event_id"`
	ServiceID         int64   `json:"service_id"`
	Name              string  `json:"name"`
	StartTime         string  `json:"start_time"`
	Duration          int64   `json:"duration"`
	Text              *string `json:"text"`
	ExtText           *string `json:"ext_text"`
	NewRecordingID    int64   `json:"new_recording_id"`
	FilePath          string  `json:"file_path"`
	FileSize          *int64  `json:"file_size"`
	CreatedAt         string  `json:"created_at"`
}

// ImportResponse summarizes a bulk import run.
type ImportResponse struct {
	CountEDCBRecordings *int             `json:"count_edcb_recordings,omitempty"`
	CountPrograms       int              `json:"count_programs"`
	CountRecordings     int              `json:"count_recordings"`
	PreviewImports      []PreviewPayload `json:"preview_imports,omitempty"`
}

// ValidateRequest is the body of POST /api/recordings/validate.
type ValidateRequest struct {
	DryRun            bool     `json:"dry_run"`
	FindFilePathRoots []string `json:"find_file_path_roots"`
}

// ValidatePayload is one probe outcome of the validation pass.
type ValidatePayload struct {
	RecordingID int64   `json:"recording_id"`
	FilePath    string  `json:"file_path"`
	FoundPath   *string `json:"found_path"`
	FileSize    *int64  `json:"file_size"`
	Exists      bool    `json:"exists"`
}

// DaemonStatus reports daemon identity and store configuration.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	Driver       string `json:"driver"`
	DatabasePath string `json:"database_path,omitempty"`
	LockFilePath string `json:"lock_file_path"`
}
