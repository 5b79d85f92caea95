package sqlite

import (
	"database/sql"
	"time"
)

// Timestamps are persisted as unix epoch seconds, matching the historical
// database layout.

func epoch(t time.Time) int64 { return t.Unix() }

func nullableEpoch(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeFromEpoch(v int64) time.Time { return time.Unix(v, 0) }

func timeFromNullEpoch(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64FromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
