package ownership

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validID = "8d5f4f8e-1c2b-4a7e-9f3d-2b6c1e0a9d11"

type fakeLookup struct {
	calls int

	clientFn  func(userID, id string) (client.Client, error)
	projectFn func(userID, id string) (project.Project, error)
	taskFn    func(userID, id string) (task.Task, error)
}

func (f *fakeLookup) OwnedClient(_ context.Context, userID, id string) (client.Client, error) {
	f.calls++
	return f.clientFn(userID, id)
}

func (f *fakeLookup) OwnedProject(_ context.Context, userID, id string) (project.Project, error) {
	f.calls++
	return f.projectFn(userID, id)
}

func (f *fakeLookup) OwnedTask(_ context.Context, userID, id string) (task.Task, error) {
	f.calls++
	return f.taskFn(userID, id)
}

func TestResolveTask(t *testing.T) {
	boom := errors.New("connection reset")

	lookup := &fakeLookup{
		taskFn: func(userID, id string) (task.Task, error) {
			switch userID {
			case "alice":
				return task.Task{ID: id, Name: "Build"}, nil
			case "broken":
				return task.Task{}, boom
			default:
				return task.Task{}, task.ErrNotFound
			}
		},
	}
	r := NewResolver(lookup)
	ctx := context.Background()

	got, err := r.ResolveTask(ctx, "alice", validID)
	require.NoError(t, err)
	assert.Equal(t, validID, got.ID)

	_, err = r.ResolveTask(ctx, "bob", validID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = r.ResolveTask(ctx, "broken", validID)
	assert.ErrorIs(t, err, boom)

	// malformed ids never reach the store
	before := lookup.calls
	_, err = r.ResolveTask(ctx, "alice", "42")
	assert.ErrorIs(t, err, task.ErrNotFound)
	assert.Equal(t, before, lookup.calls)
}

func TestResolveClientAndProject(t *testing.T) {
	lookup := &fakeLookup{
		clientFn: func(userID, id string) (client.Client, error) {
			if userID != "alice" {
				return client.Client{}, client.ErrNotFound
			}
			return client.Client{ID: id, UserID: userID}, nil
		},
		projectFn: func(userID, id string) (project.Project, error) {
			if userID != "alice" {
				return project.Project{}, project.ErrNotFound
			}
			return project.Project{ID: id}, nil
		},
	}
	r := NewResolver(lookup)
	ctx := context.Background()

	_, err := r.ResolveClient(ctx, "alice", validID)
	require.NoError(t, err)
	_, err = r.ResolveClient(ctx, "bob", validID)
	assert.ErrorIs(t, err, client.ErrNotFound)
	_, err = r.ResolveClient(ctx, "alice", "nope")
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = r.ResolveProject(ctx, "alice", validID)
	require.NoError(t, err)
	_, err = r.ResolveProject(ctx, "bob", validID)
	assert.ErrorIs(t, err, project.ErrNotFound)
}
