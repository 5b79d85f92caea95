package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/store"
)

type programRepo struct {
	tx *sql.Tx
}

const programColumns = "id, event_id, service_id, name, start_time, duration, text, ext_text, created_at"

func scanProgram(scanner interface{ Scan(dest ...any) error }) (*catalog.Program, error) {
	var (
		id        int64
		eventID   int64
		serviceID int64
		name      string
		startRaw  int64
		duration  int64
		text      sql.NullString
		extText   sql.NullString
		createdAt int64
	)
	if err := scanner.Scan(&id, &eventID, &serviceID, &name, &startRaw, &duration, &text, &extText, &createdAt); err != nil {
		return nil, err
	}
	return &catalog.Program{
		ID:        id,
		EventID:   eventID,
		ServiceID: serviceID,
		Name:      name,
		StartTime: timeFromEpoch(startRaw),
		Duration:  duration,
		Text:      stringFromNull(text),
		ExtText:   stringFromNull(extText),
		CreatedAt: timeFromEpoch(createdAt),
	}, nil
}

func (r *programRepo) Search(ctx context.Context, q store.ProgramQuery) ([]*catalog.Program, error) {
	query := `SELECT ` + programColumns + `
        FROM programs
        WHERE (?1 IS NULL OR ?1 <= start_time)
          AND (?2 IS NULL OR start_time + duration < ?2)
        ORDER BY start_time DESC`
	args := []any{nullableEpoch(q.From), nullableEpoch(q.To)}

	page, size := q.Page, q.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}

	// Name matching folds half-width and full-width forms, which SQLite LIKE
	// cannot do; when a name filter is present the page window is applied
	// after folding in Go.
	if q.Name == "" {
		query += ` LIMIT ?3 OFFSET ?4`
		args = append(args, size, (page-1)*size)
	}

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	defer rows.Close()

	var programs []*catalog.Program
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.Name != "" {
		filtered := programs[:0]
		for _, program := range programs {
			if catalog.NameMatches(program.Name, q.Name) {
				filtered = append(filtered, program)
			}
		}
		offset := (page - 1) * size
		if offset >= len(filtered) {
			return nil, nil
		}
		end := offset + size
		if end > len(filtered) {
			end = len(filtered)
		}
		programs = filtered[offset:end]
	}
	return programs, nil
}

func (r *programRepo) GetByID(ctx context.Context, id int64) (*catalog.Program, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ?`, id)
	program, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return program, nil
}

func (r *programRepo) FindByKey(ctx context.Context, key catalog.ProgramKey) (*catalog.Program, error) {
	row := r.tx.QueryRowContext(
		ctx,
		`SELECT `+programColumns+` FROM programs WHERE event_id = ? AND service_id = ? AND start_time = ?`,
		key.EventID, key.ServiceID, epoch(key.StartTime),
	)
	program, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find program by key: %w", err)
	}
	return program, nil
}

func (r *programRepo) Create(ctx context.Context, desc catalog.ProgramDescriptor, createdAt time.Time) (int64, error) {
	res, err := r.tx.ExecContext(
		ctx,
		`INSERT INTO programs (event_id, service_id, name, start_time, duration, text, ext_text, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		desc.EventID,
		desc.ServiceID,
		desc.Name,
		epoch(desc.StartTime),
		desc.Duration,
		nullableString(desc.Text),
		nullableString(desc.ExtText),
		epoch(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert program: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *programRepo) UpdateDuration(ctx context.Context, id, duration int64) error {
	if _, err := r.tx.ExecContext(ctx, `UPDATE programs SET duration = ? WHERE id = ?`, duration, id); err != nil {
		return fmt.Errorf("update program duration: %w", err)
	}
	return nil
}

func (r *programRepo) GetOrCreate(ctx context.Context, desc catalog.ProgramDescriptor, createdAt, referenceTime time.Time) (int64, error) {
	return store.ResolveProgram(ctx, r, desc, createdAt, referenceTime)
}
