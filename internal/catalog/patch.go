package catalog

import (
	"encoding/json"
	"time"
)

// Field is a tri-state optional value for sparse updates: a field omitted
// from a patch is distinguishable from one explicitly set to null.
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON marks the field as set; a JSON null leaves Valid false.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Valid = false
		var zero T
		f.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil when unset or null.
func (f Field[T]) Ptr() *T {
	if !f.Set || !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// SetValue marks the field as set with a concrete value.
func SetValue[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// SetNull marks the field as explicitly cleared.
func SetNull[T any]() Field[T] {
	return Field[T]{Set: true}
}

// RecordingPatch is the sparse lifecycle update applied to a recording.
// Only fields the caller explicitly set participate in the update.
type RecordingPatch struct {
	FilePath   Field[string]    `json:"file_path"`
	FileFolder Field[string]    `json:"file_folder"`
	WatchedAt  Field[time.Time] `json:"watched_at"`
	DeletedAt  Field[time.Time] `json:"deleted_at"`
}

// RecordingColumns describes the plain column writes left over after the
// lifecycle rules ran. Absent fields leave the stored value untouched.
type RecordingColumns struct {
	SetFilePath bool
	FilePath    string
	SetWatched  bool
	WatchedAt   *time.Time
	SetDeleted  bool
	DeletedAt   *time.Time
}
