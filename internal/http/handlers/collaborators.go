package handlers

import (
	"context"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
)

// OwnershipResolver answers 404 for ids that are missing or owned by someone else.
type OwnershipResolver interface {
	ResolveClient(ctx context.Context, userID, clientID string) (client.Client, error)
	ResolveProject(ctx context.Context, userID, projectID string) (project.Project, error)
	ResolveTask(ctx context.Context, userID, taskID string) (task.Task, error)
}

type ClientsStore interface {
	ListClients(ctx context.Context, userID string) ([]client.Client, error)
	CreateClient(ctx context.Context, c client.Client) (client.Client, error)
	RenameClient(ctx context.Context, clientID, name string) (client.Client, error)
	DeleteClient(ctx context.Context, clientID string) error
}

type ProjectsStore interface {
	ListProjects(ctx context.Context, clientID string) ([]project.Project, error)
	CreateProject(ctx context.Context, p project.Project) (project.Project, error)
	RenameProject(ctx context.Context, projectID, name string) (project.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
}

type TasksStore interface {
	ListTasks(ctx context.Context, projectID string) ([]task.Task, error)
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	RenameTask(ctx context.Context, taskID, name string) (task.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// RunningInvalidator drops a user's cached running timer. Renames and deletes
// further up the chain change the task details embedded in that entry.
type RunningInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, string) {}

func orNop(inv RunningInvalidator) RunningInvalidator {
	if inv == nil {
		return nopInvalidator{}
	}
	return inv
}
