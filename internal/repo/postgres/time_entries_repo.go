package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/geocoder89/clocktrack/internal/temporal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Every read goes through entryProjection so responses carry the
// task -> project -> client chain. The source must be aliased "te".
const entryProjection = `
SELECT te.id, te.start_time, te.end_time, te.description, te.task_id, te.user_id, te.created_at, te.updated_at,
	t.id, t.name, p.id, p.name, c.id, c.name, c.user_id
FROM %s
LEFT JOIN tasks t ON t.id = te.task_id
LEFT JOIN projects p ON p.id = t.project_id
LEFT JOIN clients c ON c.id = p.client_id`

type TimeEntriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTimeEntriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *TimeEntriesRepo {
	return &TimeEntriesRepo{pool: pool, prom: prom}
}

func (r *TimeEntriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TimeEntriesRepo) ListEntries(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error) {
	conds := []string{"te.user_id = $1"}
	args := []interface{}{userID}

	argsPosition := 2

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("te.start_time >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("te.start_time <= $%d", argsPosition))
		args = append(args, *filter.To)
		argsPosition++
	}

	if filter.TaskID != nil {
		conds = append(conds, fmt.Sprintf("te.task_id = $%d", argsPosition))
		args = append(args, *filter.TaskID)
	}

	query := fmt.Sprintf(entryProjection, "time_entries te") +
		" WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY te.start_time DESC, te.id DESC"

	out := make([]timeentry.TimeEntry, 0)

	err := r.observe("time_entries.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *TimeEntriesRepo) GetEntry(ctx context.Context, userID, entryID string) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.observe("time_entries.get", func() error {
		var err error
		e, err = scanEntry(r.pool.QueryRow(ctx,
			fmt.Sprintf(entryProjection, "time_entries te")+` WHERE te.id = $1 AND te.user_id = $2`,
			entryID, userID,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrNotFound
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

func (r *TimeEntriesRepo) GetRunning(ctx context.Context, userID string) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.observe("time_entries.get_running", func() error {
		var err error
		e, err = scanEntry(r.pool.QueryRow(ctx,
			fmt.Sprintf(entryProjection, "time_entries te")+` WHERE te.user_id = $1 AND te.end_time IS NULL`,
			userID,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrNoRunningTimer
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

// InsertEntry relies on time_entries_one_running_per_user for the single
// running timer; a concurrent start loses on the index, not on a read.
func (r *TimeEntriesRepo) InsertEntry(ctx context.Context, in timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.observe("time_entries.insert", func() error {
		var err error
		e, err = scanEntry(r.pool.QueryRow(ctx,
			`WITH te AS (
				INSERT INTO time_entries (id, user_id, task_id, start_time, end_time, description, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING *
			)`+fmt.Sprintf(entryProjection, "te"),
			in.ID, in.UserID, in.TaskID, in.StartTime, in.EndTime, in.Description, in.CreatedAt, in.UpdatedAt,
		))
		return err
	})
	if err != nil {
		return timeentry.TimeEntry{}, mapEntryWriteErr(err)
	}

	return e, nil
}

// StopRunning closes the running entry in one statement. The end is clamped to
// one microsecond after the start so the ordering check always holds.
func (r *TimeEntriesRepo) StopRunning(ctx context.Context, userID string, at time.Time) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.observe("time_entries.stop_running", func() error {
		var err error
		e, err = scanEntry(r.pool.QueryRow(ctx,
			`WITH te AS (
				UPDATE time_entries
				SET end_time = GREATEST($2::timestamptz, start_time + interval '1 microsecond'),
					updated_at = $2
				WHERE user_id = $1 AND end_time IS NULL
				RETURNING *
			)`+fmt.Sprintf(entryProjection, "te"),
			userID, at,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrNoRunningTimer
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

// UpdateEntry implements the read-modify-write for patches under a row lock.
func (r *TimeEntriesRepo) UpdateEntry(ctx context.Context, userID, entryID string, mutate func(current timeentry.TimeEntry) (timeentry.TimeEntry, error)) (out timeentry.TimeEntry, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current timeentry.TimeEntry
	err = r.observe("time_entries.update.lock", func() error {
		var e error
		current, e = scanEntry(tx.QueryRow(ctx,
			fmt.Sprintf(entryProjection, "time_entries te")+` WHERE te.id = $1 AND te.user_id = $2 FOR UPDATE OF te`,
			entryID, userID,
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = timeentry.ErrNotFound
		}
		return
	}

	next, err := mutate(current)
	if err != nil {
		return
	}

	err = r.observe("time_entries.update.write", func() error {
		var e error
		out, e = scanEntry(tx.QueryRow(ctx,
			`WITH te AS (
				UPDATE time_entries
				SET start_time = $3, end_time = $4, task_id = $5, description = $6, updated_at = $7
				WHERE id = $1 AND user_id = $2
				RETURNING *
			)`+fmt.Sprintf(entryProjection, "te"),
			entryID, userID, next.StartTime, next.EndTime, next.TaskID, next.Description, next.UpdatedAt,
		))
		return e
	})
	if err != nil {
		err = mapEntryWriteErr(err)
		return
	}

	err = tx.Commit(ctx)

	return
}

func (r *TimeEntriesRepo) DeleteEntry(ctx context.Context, userID, entryID string) error {
	var affected int64

	err := r.observe("time_entries.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM time_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return timeentry.ErrNotFound
	}

	return nil
}

func mapEntryWriteErr(err error) error {
	switch {
	case violates(err, "23505", constraintOneRunning):
		return timeentry.ErrTimerAlreadyRunning
	case violates(err, "23503", constraintEntryTaskFK):
		return task.ErrNotFound
	case violates(err, "23503", constraintEntryUserFK):
		// the token's subject has no users row
		return user.ErrNotFound
	case violates(err, "23514", constraintEntryOrder):
		return temporal.ErrInvalidRange
	default:
		return err
	}
}

func scanEntry(row pgx.Row) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry
	var (
		taskID, taskName       *string
		projectID, projectName *string
		clientID, clientName   *string
		clientUserID           *string
	)

	err := row.Scan(
		&e.ID,
		&e.StartTime,
		&e.EndTime,
		&e.Description,
		&e.TaskID,
		&e.UserID,
		&e.CreatedAt,
		&e.UpdatedAt,
		&taskID, &taskName,
		&projectID, &projectName,
		&clientID, &clientName, &clientUserID,
	)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	e.StartTime = e.StartTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.EndTime != nil {
		end := e.EndTime.UTC()
		e.EndTime = &end
	}

	if taskID != nil && projectID != nil && clientID != nil {
		e.Task = &timeentry.TaskDetails{
			ID:        *taskID,
			Name:      *taskName,
			ProjectID: *projectID,
			Project: timeentry.ProjectDetails{
				ID:       *projectID,
				Name:     *projectName,
				ClientID: *clientID,
				Client: timeentry.ClientDetails{
					ID:     *clientID,
					Name:   *clientName,
					UserID: *clientUserID,
				},
			},
		}
	}

	return e, nil
}
