package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/store"
)

type viewRepo struct {
	tx *sql.Tx
}

func (r *viewRepo) Search(ctx context.Context, q store.ViewQuery) ([]*catalog.View, error) {
	var rows *sql.Rows
	var err error
	if q.ProgramID != nil {
		rows, err = r.tx.QueryContext(
			ctx,
			`SELECT program_id, viewed_time, created_at FROM views WHERE program_id = $1 ORDER BY created_at DESC`,
			*q.ProgramID,
		)
	} else {
		page, size := q.Page, q.Size
		if page < 1 {
			page = 1
		}
		if size < 1 {
			size = 50
		}
		rows, err = r.tx.QueryContext(
			ctx,
			`SELECT program_id, viewed_time, created_at FROM views ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			size, (page-1)*size,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("search views: %w", err)
	}
	defer rows.Close()

	var views []*catalog.View
	for rows.Next() {
		var programID, viewedTime, createdAt int64
		if err := rows.Scan(&programID, &viewedTime, &createdAt); err != nil {
			return nil, err
		}
		views = append(views, &catalog.View{
			ProgramID:  programID,
			ViewedTime: timeFromEpoch(viewedTime),
			CreatedAt:  timeFromEpoch(createdAt),
		})
	}
	return views, rows.Err()
}

func (r *viewRepo) Create(ctx context.Context, programID int64, viewedTime, createdAt time.Time) error {
	_, err := r.tx.ExecContext(
		ctx,
		`INSERT INTO views (program_id, viewed_time, created_at) VALUES ($1, $2, $3)`,
		programID, epoch(viewedTime), epoch(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

type digestionRepo struct {
	tx *sql.Tx
}

const viewedSecondsPerView = 5 * 60

func (r *digestionRepo) List(ctx context.Context) ([]*catalog.Digestion, error) {
	rows, err := r.tx.QueryContext(
		ctx,
		`SELECT programs.id, programs.name, programs.service_id, programs.start_time, programs.duration, views.viewed_time
         FROM programs
         LEFT OUTER JOIN views ON views.program_id = programs.id
         WHERE EXISTS (
             SELECT 1 FROM recordings
             WHERE program_id = programs.id AND watched_at IS NULL AND deleted_at IS NULL
         )
         ORDER BY programs.start_time, programs.id, views.viewed_time`,
	)
	if err != nil {
		return nil, fmt.Errorf("list digestions: %w", err)
	}
	defer rows.Close()

	var digestions []*catalog.Digestion
	var current *catalog.Digestion
	for rows.Next() {
		var (
			id         int64
			name       string
			serviceID  int64
			startTime  int64
			duration   int64
			viewedTime sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &serviceID, &startTime, &duration, &viewedTime); err != nil {
			return nil, err
		}
		if current == nil || current.ProgramID != id {
			current = &catalog.Digestion{
				ProgramID: id,
				Name:      name,
				ServiceID: serviceID,
				StartTime: timeFromEpoch(startTime),
				Duration:  duration,
			}
			digestions = append(digestions, current)
		}
		if viewedTime.Valid {
			current.ViewedTimes = append(current.ViewedTimes, timeFromEpoch(viewedTime.Int64))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	filtered := digestions[:0]
	for _, d := range digestions {
		if float64(len(d.ViewedTimes)*viewedSecondsPerView) < float64(d.Duration)*0.8 {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}
