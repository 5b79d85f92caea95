package api

import (
	"encoding/json"
	"testing"
	"time"

	"mytvlog/internal/catalog"
)

func TestJSONTimeParsesOffsetAndNaiveForms(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{`"2025-05-12T12:00:00+09:00"`, time.Date(2025, 5, 12, 12, 0, 0, 0, jst)},
		{`"2025-05-12T03:00:00Z"`, time.Date(2025, 5, 12, 12, 0, 0, 0, jst)},
		{`"2025-05-12T12:00:00"`, time.Date(2025, 5, 12, 12, 0, 0, 0, jst)},
	}
	for _, tc := range cases {
		var parsed JSONTime
		if err := json.Unmarshal([]byte(tc.raw), &parsed); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if !parsed.Time.Equal(tc.want) {
			t.Fatalf("parsed %s = %v, want %v", tc.raw, parsed.Time, tc.want)
		}
	}

	var bad JSONTime
	if err := json.Unmarshal([]byte(`"yesterday"`), &bad); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
	if err := json.Unmarshal([]byte(`""`), &bad); err == nil {
		t.Fatal("expected error for empty timestamp")
	}
}

func TestFormatJSTNormalizesOffset(t *testing.T) {
	utc := time.Date(2025, 5, 12, 3, 0, 0, 0, time.UTC)
	if got := formatJST(utc); got != "2025-05-12T12:00:00+09:00" {
		t.Fatalf("formatJST = %q", got)
	}
	if formatJSTPtr(nil) != nil {
		t.Fatal("formatJSTPtr(nil) must be nil")
	}
}

func TestFromRecordingDerivesFolder(t *testing.T) {
	program := catalog.Program{
		ID:        3,
		EventID:   11,
		ServiceID: 101,
		Name:      "ニュース",
		StartTime: time.Date(2025, 5, 12, 12, 0, 0, 0, jst),
		Duration:  1800,
		CreatedAt: time.Date(2025, 5, 12, 12, 0, 0, 0, jst),
	}
	size := int64(4096)
	withFile := FromRecording(&catalog.RecordingWithProgram{
		Recording: catalog.Recording{
			ID:        7,
			FilePath:  "//nas/recorded/news.ts",
			FileSize:  &size,
			CreatedAt: time.Date(2025, 5, 12, 13, 0, 0, 0, jst),
		},
		Program: program,
	})
	if withFile.FileFolder == nil || *withFile.FileFolder != "recorded" {
		t.Fatalf("file_folder = %v, want recorded", withFile.FileFolder)
	}
	if withFile.Program.EndTime != "2025-05-12T12:30:00+09:00" {
		t.Fatalf("end_time = %q", withFile.Program.EndTime)
	}

	withoutFile := FromRecording(&catalog.RecordingWithProgram{
		Recording: catalog.Recording{
			ID:        8,
			CreatedAt: time.Date(2025, 5, 12, 13, 0, 0, 0, jst),
		},
		Program: program,
	})
	if withoutFile.FileFolder != nil {
		t.Fatalf("file_folder for pathless recording = %v, want nil", withoutFile.FileFolder)
	}
}
