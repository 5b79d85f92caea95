package api

import (
	"fmt"
	"strings"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/reconcile"
	"mytvlog/internal/store"
)

// jst is the broadcast timezone. Stored instants are epoch seconds; every
// rendered timestamp carries the +09:00 offset.
var jst = time.FixedZone("JST", 9*60*60)

// JSONTime parses RFC 3339 timestamps, treating a missing offset as JST.
type JSONTime struct {
	time.Time
}

func (t *JSONTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return fmt.Errorf("empty timestamp")
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", raw, jst)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	t.Time = parsed
	return nil
}

func (t JSONTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + formatJST(t.Time) + `"`), nil
}

func formatJST(t time.Time) string {
	return t.In(jst).Format(time.RFC3339)
}

func formatJSTPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatJST(*t)
	return &s
}

// Descriptor converts the inbound program body to the domain tuple.
func (p ProgramBody) Descriptor() catalog.ProgramDescriptor {
	return catalog.ProgramDescriptor{
		EventID:   p.EventID,
		ServiceID: p.ServiceID,
		Name:      p.Name,
		StartTime: p.StartTime.Time,
		Duration:  p.Duration,
		Text:      p.Text,
		ExtText:   p.ExtText,
	}
}

// FromProgram renders a program payload.
func FromProgram(p *catalog.Program) ProgramPayload {
	return ProgramPayload{
		ID:        p.ID,
		EventID:   p.EventID,
		ServiceID: p.ServiceID,
		Name:      p.Name,
		StartTime: formatJST(p.StartTime),
		EndTime:   formatJST(p.EndTime()),
		Duration:  p.Duration,
		Text:      p.Text,
		ExtText:   p.ExtText,
		CreatedAt: formatJST(p.CreatedAt),
	}
}

// FromRecording renders a recording payload. file_folder is derived from the
// stored path and null for recordings without a file.
func FromRecording(r *catalog.RecordingWithProgram) RecordingPayload {
	var folder *string
	if r.FilePath != "" {
		f := catalog.Root(r.FilePath)
		folder = &f
	}
	return RecordingPayload{
		ID:         r.ID,
		Program:    FromProgram(&r.Program),
		FilePath:   r.FilePath,
		FileFolder: folder,
		FileSize:   r.FileSize,
		WatchedAt:  formatJSTPtr(r.WatchedAt),
		DeletedAt:  formatJSTPtr(r.DeletedAt),
		CreatedAt:  formatJST(r.CreatedAt),
	}
}

// FromView renders a view payload.
func FromView(v *catalog.View) ViewPayload {
	return ViewPayload{
		ProgramID:  v.ProgramID,
		ViewedTime: formatJST(v.ViewedTime),
		CreatedAt:  formatJST(v.CreatedAt),
	}
}

// FromDigestion renders a digestion payload.
func FromDigestion(d *catalog.Digestion) DigestionPayload {
	times := make([]string, 0, len(d.ViewedTimes))
	for _, t := range d.ViewedTimes {
		times = append(times, formatJST(t))
	}
	return DigestionPayload{
		ProgramID:   d.ProgramID,
		Name:        d.Name,
		ServiceID:   d.ServiceID,
		StartTime:   formatJST(d.StartTime),
		Duration:    d.Duration,
		ViewedTimes: times,
	}
}

// FromPreview renders the dry-run preview rows.
func FromPreview(rows []reconcile.PreviewRow) []PreviewPayload {
	if len(rows) == 0 {
		return nil
	}
	out := make([]PreviewPayload, 0, len(rows))
	for _, row := range rows {
		out = append(out, PreviewPayload{
			TempProgramID:     row.TempProgramID,
			ExistingProgramID: row.ExistingProgramID,
			EventID:           row.EventID,
			ServiceID:         row.ServiceID,
			Name:              row.Name,
			StartTime:         formatJST(row.StartTime),
			Duration:          row.Duration,
			Text:              row.Text,
			ExtText:           row.ExtText,
			NewRecordingID:    row.NewRecordingID,
			FilePath:          row.FilePath,
			FileSize:          row.FileSize,
			CreatedAt:         formatJST(row.CreatedAt),
		})
	}
	return out
}

// FromValidation renders the probe outcomes.
func FromValidation(results []store.ValidationResult) []ValidatePayload {
	out := make([]ValidatePayload, 0, len(results))
	for _, res := range results {
		out = append(out, ValidatePayload{
			RecordingID: res.RecordingID,
			FilePath:    res.FilePath,
			FoundPath:   res.FoundPath,
			FileSize:    res.FileSize,
			Exists:      res.Exists(),
		})
	}
	return out
}
