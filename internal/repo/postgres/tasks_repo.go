package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := r.observe("tasks.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, project_id, created_at, updated_at
			FROM tasks
			WHERE project_id = $1
			ORDER BY name ASC, id ASC`,
			projectID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t task.Task
			if err := rows.Scan(&t.ID, &t.Name, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt); err != nil {
				return err
			}
			out = append(out, t)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *TasksRepo) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, name, project_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			t.ID, t.Name, t.ProjectID, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if violates(err, "23503", constraintTaskProject) {
			return task.Task{}, project.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) RenameTask(ctx context.Context, taskID, name string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.rename", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE tasks SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, project_id, created_at, updated_at`,
			taskID, name,
		).Scan(&t.ID, &t.Name, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

// DeleteTask leaves the task's time entries in place with task_id cleared.
func (r *TasksRepo) DeleteTask(ctx context.Context, taskID string) error {
	var affected int64

	err := r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}
