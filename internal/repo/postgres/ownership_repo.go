package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnershipRepo answers "does this id exist and belong to the user" in one
// query per entity, walking the client -> project -> task chain with joins.
type OwnershipRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOwnershipRepo(pool *pgxpool.Pool, prom *observability.Prom) *OwnershipRepo {
	return &OwnershipRepo{pool: pool, prom: prom}
}

func (r *OwnershipRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *OwnershipRepo) OwnedClient(ctx context.Context, userID, clientID string) (client.Client, error) {
	var c client.Client

	err := r.observe("ownership.client", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, user_id, created_at, updated_at
			FROM clients
			WHERE id = $1 AND user_id = $2`,
			clientID, userID,
		).Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, err
	}

	return c, nil
}

func (r *OwnershipRepo) OwnedProject(ctx context.Context, userID, projectID string) (project.Project, error) {
	var p project.Project

	err := r.observe("ownership.project", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT p.id, p.name, p.client_id, p.created_at, p.updated_at
			FROM projects p
			JOIN clients c ON c.id = p.client_id
			WHERE p.id = $1 AND c.user_id = $2`,
			projectID, userID,
		).Scan(&p.ID, &p.Name, &p.ClientID, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}

	return p, nil
}

func (r *OwnershipRepo) OwnedTask(ctx context.Context, userID, taskID string) (task.Task, error) {
	var t task.Task

	err := r.observe("ownership.task", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT t.id, t.name, t.project_id, t.created_at, t.updated_at
			FROM tasks t
			JOIN projects p ON p.id = t.project_id
			JOIN clients c ON c.id = p.client_id
			WHERE t.id = $1 AND c.user_id = $2`,
			taskID, userID,
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
