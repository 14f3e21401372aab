package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, prom: prom}
}

func (r *ProjectsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ProjectsRepo) ListProjects(ctx context.Context, clientID string) ([]project.Project, error) {
	out := make([]project.Project, 0)

	err := r.observe("projects.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, client_id, created_at, updated_at
			FROM projects
			WHERE client_id = $1
			ORDER BY name ASC, id ASC`,
			clientID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p project.Project
			if err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			out = append(out, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ProjectsRepo) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	err := r.observe("projects.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO projects (id, name, client_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.Name, p.ClientID, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		// the client was deleted between the ownership check and the insert
		if violates(err, "23503", constraintProjectClient) {
			return project.Project{}, client.ErrNotFound
		}
		return project.Project{}, err
	}

	return p, nil
}

func (r *ProjectsRepo) RenameProject(ctx context.Context, projectID, name string) (project.Project, error) {
	var p project.Project

	err := r.observe("projects.rename", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE projects SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, client_id, created_at, updated_at`,
			projectID, name,
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

func (r *ProjectsRepo) DeleteProject(ctx context.Context, projectID string) error {
	var affected int64

	err := r.observe("projects.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return project.ErrNotFound
	}

	return nil
}
