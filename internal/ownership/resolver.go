// Package ownership authorizes references along the user -> client -> project -> task chain.
//
// Every lookup is a single query that combines the existence and ownership
// predicates. "Does not exist" and "belongs to someone else" come back as the
// same not-found error, so callers cannot learn which ids other users own.
package ownership

import (
	"context"
	"errors"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/utils"
)

// Lookup is implemented by the store. Each method must return the entity's
// ErrNotFound when no row matches both id and owner.
type Lookup interface {
	OwnedClient(ctx context.Context, userID, clientID string) (client.Client, error)
	OwnedProject(ctx context.Context, userID, projectID string) (project.Project, error)
	OwnedTask(ctx context.Context, userID, taskID string) (task.Task, error)
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

func (r *Resolver) ResolveClient(ctx context.Context, userID, clientID string) (client.Client, error) {
	if !utils.IsUUID(clientID) {
		return client.Client{}, client.ErrNotFound
	}

	c, err := r.lookup.OwnedClient(ctx, userID, clientID)
	if err != nil {
		return client.Client{}, denyOr(err, client.ErrNotFound)
	}

	return c, nil
}

func (r *Resolver) ResolveProject(ctx context.Context, userID, projectID string) (project.Project, error) {
	if !utils.IsUUID(projectID) {
		return project.Project{}, project.ErrNotFound
	}

	p, err := r.lookup.OwnedProject(ctx, userID, projectID)
	if err != nil {
		return project.Project{}, denyOr(err, project.ErrNotFound)
	}

	return p, nil
}

func (r *Resolver) ResolveTask(ctx context.Context, userID, taskID string) (task.Task, error) {
	if !utils.IsUUID(taskID) {
		return task.Task{}, task.ErrNotFound
	}

	t, err := r.lookup.OwnedTask(ctx, userID, taskID)
	if err != nil {
		return task.Task{}, denyOr(err, task.ErrNotFound)
	}

	return t, nil
}

// denyOr returns notFound for a missing row and passes store failures through.
func denyOr(err, notFound error) error {
	if errors.Is(err, notFound) {
		return notFound
	}
	return err
}
