package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/store"
)

type recordingRepo struct {
	tx *sql.Tx
}

const recordingJoinColumns = `
    recordings.id, recordings.program_id, recordings.file_path, recordings.file_size,
    recordings.watched_at, recordings.deleted_at, recordings.created_at,
    programs.event_id, programs.service_id, programs.name, programs.start_time,
    programs.duration, programs.text, programs.ext_text, programs.created_at`

func scanRecordingWithProgram(scanner interface{ Scan(dest ...any) error }) (*catalog.RecordingWithProgram, error) {
	var (
		id               int64
		programID        int64
		filePath         string
		fileSize         sql.NullInt64
		watchedAt        sql.NullInt64
		deletedAt        sql.NullInt64
		createdAt        int64
		eventID          int64
		serviceID        int64
		name             string
		startTime        int64
		duration         int64
		text             sql.NullString
		extText          sql.NullString
		programCreatedAt int64
	)
	if err := scanner.Scan(
		&id, &programID, &filePath, &fileSize, &watchedAt, &deletedAt, &createdAt,
		&eventID, &serviceID, &name, &startTime, &duration, &text, &extText, &programCreatedAt,
	); err != nil {
		return nil, err
	}
	return &catalog.RecordingWithProgram{
		Recording: catalog.Recording{
			ID:        id,
			ProgramID: programID,
			FilePath:  filePath,
			FileSize:  int64FromNull(fileSize),
			WatchedAt: timeFromNullEpoch(watchedAt),
			DeletedAt: timeFromNullEpoch(deletedAt),
			CreatedAt: timeFromEpoch(createdAt),
		},
		Program: catalog.Program{
			ID:        programID,
			EventID:   eventID,
			ServiceID: serviceID,
			Name:      name,
			StartTime: timeFromEpoch(startTime),
			Duration:  duration,
			Text:      stringFromNull(text),
			ExtText:   stringFromNull(extText),
			CreatedAt: timeFromEpoch(programCreatedAt),
		},
	}, nil
}

func (r *recordingRepo) Search(ctx context.Context, q store.RecordingQuery) ([]*catalog.RecordingWithProgram, error) {
	var programID any
	if q.ProgramID != nil {
		programID = *q.ProgramID
	}
	rows, err := r.tx.QueryContext(
		ctx,
		`SELECT `+recordingJoinColumns+`
         FROM recordings INNER JOIN programs ON programs.id = recordings.program_id
         WHERE ($1::bigint IS NULL OR programs.id = $1)
           AND ($2::bigint IS NULL OR $2 <= programs.start_time)
           AND ($3::bigint IS NULL OR programs.start_time + programs.duration < $3)
           AND ($4 OR recordings.watched_at IS NULL)
           AND ($5 OR recordings.deleted_at IS NULL)
         ORDER BY programs.start_time DESC, recordings.created_at`,
		programID,
		nullableEpoch(q.From),
		nullableEpoch(q.To),
		q.Watched,
		q.Deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("search recordings: %w", err)
	}
	defer rows.Close()

	var recordings []*catalog.RecordingWithProgram
	for rows.Next() {
		rec, err := scanRecordingWithProgram(rows)
		if err != nil {
			return nil, err
		}
		if q.FileFolder != "" && catalog.Root(rec.FilePath) != q.FileFolder {
			continue
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

func (r *recordingRepo) GetByID(ctx context.Context, id int64) (*catalog.RecordingWithProgram, error) {
	row := r.tx.QueryRowContext(
		ctx,
		`SELECT `+recordingJoinColumns+`
         FROM recordings INNER JOIN programs ON programs.id = recordings.program_id
         WHERE recordings.id = $1`,
		id,
	)
	rec, err := scanRecordingWithProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

func (r *recordingRepo) Create(ctx context.Context, programID int64, rec store.NewRecording) (int64, error) {
	var id int64
	err := r.tx.QueryRowContext(
		ctx,
		`INSERT INTO recordings (program_id, file_path, file_size, watched_at, deleted_at, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		programID,
		rec.FilePath,
		nullableInt64(rec.FileSize),
		nullableEpoch(rec.WatchedAt),
		nullableEpoch(rec.DeletedAt),
		epoch(rec.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert recording: %w", err)
	}
	return id, nil
}

func (r *recordingRepo) FilePath(ctx context.Context, id int64) (string, bool, error) {
	var filePath string
	err := r.tx.QueryRowContext(ctx, `SELECT file_path FROM recordings WHERE id = $1`, id).Scan(&filePath)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get recording file_path: %w", err)
	}
	return filePath, true, nil
}

func (r *recordingRepo) ExistsByFilePath(ctx context.Context, filePath string) (bool, error) {
	var count int
	err := r.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM recordings WHERE file_path = $1`, filePath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count recordings by file_path: %w", err)
	}
	return count > 0, nil
}

func (r *recordingRepo) ApplyColumns(ctx context.Context, id int64, cols catalog.RecordingColumns) error {
	_, err := r.tx.ExecContext(
		ctx,
		`UPDATE recordings SET
            file_path  = CASE WHEN $1 THEN $2 ELSE file_path END,
            watched_at = CASE WHEN $3 THEN $4::bigint ELSE watched_at END,
            deleted_at = CASE WHEN $5 THEN $6::bigint ELSE deleted_at END
         WHERE id = $7`,
		cols.SetFilePath,
		cols.FilePath,
		cols.SetWatched,
		nullableEpoch(cols.WatchedAt),
		cols.SetDeleted,
		nullableEpoch(cols.DeletedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("patch recording: %w", err)
	}
	return nil
}

func (r *recordingRepo) ClearFile(ctx context.Context, id int64) error {
	if _, err := r.tx.ExecContext(ctx, `UPDATE recordings SET file_path = '', file_size = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clear recording file: %w", err)
	}
	return nil
}

func (r *recordingRepo) SetFilePath(ctx context.Context, id int64, filePath string) error {
	if _, err := r.tx.ExecContext(ctx, `UPDATE recordings SET file_path = $1 WHERE id = $2`, filePath, id); err != nil {
		return fmt.Errorf("set recording file_path: %w", err)
	}
	return nil
}

func (r *recordingRepo) ScanForValidation(ctx context.Context) ([]store.ValidationTarget, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT id, file_path FROM recordings WHERE deleted_at IS NULL OR file_path != ''`)
	if err != nil {
		return nil, fmt.Errorf("scan recordings for validation: %w", err)
	}
	defer rows.Close()

	var targets []store.ValidationTarget
	for rows.Next() {
		var target store.ValidationTarget
		if err := rows.Scan(&target.RecordingID, &target.FilePath); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

func (r *recordingRepo) ApplyValidation(ctx context.Context, results []store.ValidationResult, now time.Time) error {
	for _, res := range results {
		var foundPath any
		if res.FoundPath != nil {
			foundPath = *res.FoundPath
		}
		_, err := r.tx.ExecContext(
			ctx,
			`UPDATE recordings SET
                file_path  = CASE WHEN $1::bigint IS NOT NULL THEN $2 ELSE '' END,
                file_size  = $1,
                deleted_at = CASE WHEN $1::bigint IS NULL THEN coalesce(deleted_at, $3) ELSE deleted_at END
             WHERE id = $4`,
			nullableInt64(res.FileSize),
			foundPath,
			epoch(now),
			res.RecordingID,
		)
		if err != nil {
			return fmt.Errorf("apply validation to recording %d: %w", res.RecordingID, err)
		}
	}
	return nil
}
