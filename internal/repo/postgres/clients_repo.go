package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClientsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewClientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ClientsRepo {
	return &ClientsRepo{pool: pool, prom: prom}
}

func (r *ClientsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ClientsRepo) ListClients(ctx context.Context, userID string) ([]client.Client, error) {
	out := make([]client.Client, 0)

	err := r.observe("clients.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, user_id, created_at, updated_at
			FROM clients
			WHERE user_id = $1
			ORDER BY name ASC, id ASC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c client.Client
			if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ClientsRepo) CreateClient(ctx context.Context, c client.Client) (client.Client, error) {
	err := r.observe("clients.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO clients (id, name, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Name, c.UserID, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if violates(err, "23503", constraintClientUserFK) {
			return client.Client{}, user.ErrNotFound
		}
		return client.Client{}, err
	}

	return c, nil
}

func (r *ClientsRepo) RenameClient(ctx context.Context, clientID, name string) (client.Client, error) {
	var c client.Client

	err := r.observe("clients.rename", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE clients SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, user_id, created_at, updated_at`,
			clientID, name,
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

// DeleteClient cascades to projects and tasks; time entries lose their task.
func (r *ClientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	var affected int64

	err := r.observe("clients.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, clientID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return client.ErrNotFound
	}

	return nil
}
