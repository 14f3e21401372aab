//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/clocktrack/internal/db"
	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/ownership"
	"github.com/geocoder89/clocktrack/internal/repo/postgres"
	"github.com/geocoder89/clocktrack/internal/temporal"
	"github.com/geocoder89/clocktrack/internal/tracking"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "clocktrack",
			"POSTGRES_USER":     "clocktrack",
			"POSTGRES_PASSWORD": "clocktrack",
		},
		// postgres logs this once for the init server and once for the real one
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://clocktrack:clocktrack@%s:%s/clocktrack?sslmode=disable", host, port.Port())

	pool, err := db.NewPool(dsn, 20)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.MigrateUp(ctx, pool))

	return pool
}

type fixture struct {
	pool    *pgxpool.Pool
	entries *postgres.TimeEntriesRepo
	timer   *tracking.Timer
	manager *tracking.Manager
	userID  string
	taskID  string
}

func newFixture(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()

	users := postgres.NewUsersRepo(pool)
	u, err := users.Create(ctx, user.New(fmt.Sprintf("u-%d@example.com", time.Now().UnixNano()), "x", "U"))
	require.NoError(t, err)

	c, err := postgres.NewClientsRepo(pool, nil).CreateClient(ctx, client.NewFromCreateRequest(u.ID, client.CreateClientRequest{Name: "Acme"}))
	require.NoError(t, err)
	p, err := postgres.NewProjectsRepo(pool, nil).CreateProject(ctx, project.NewFromCreateRequest(project.CreateProjectRequest{ClientID: c.ID, Name: "Site"}))
	require.NoError(t, err)
	tk, err := postgres.NewTasksRepo(pool, nil).CreateTask(ctx, task.NewFromCreateRequest(task.CreateTaskRequest{ProjectID: p.ID, Name: "Build"}))
	require.NoError(t, err)

	entries := postgres.NewTimeEntriesRepo(pool, nil)
	owners := ownership.NewResolver(postgres.NewOwnershipRepo(pool, nil))

	return fixture{
		pool:    pool,
		entries: entries,
		timer:   tracking.NewTimer(entries, owners),
		manager: tracking.NewManager(entries, owners),
		userID:  u.ID,
		taskID:  tk.ID,
	}
}

func TestPostgres(t *testing.T) {
	pool := startPostgres(t)

	t.Run("concurrent starts leave one running timer", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()

		const n = 12
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.timer.Start(ctx, f.userID, timeentry.StartTimerRequest{})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			require.ErrorIs(t, err, timeentry.ErrTimerAlreadyRunning)
		}
		assert.Equal(t, 1, ok)

		var running int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM time_entries WHERE user_id = $1 AND end_time IS NULL`, f.userID,
		).Scan(&running))
		assert.Equal(t, 1, running)
	})

	t.Run("start and stop with task details", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()

		started, err := f.timer.Start(ctx, f.userID, timeentry.StartTimerRequest{TaskID: &f.taskID})
		require.NoError(t, err)
		require.NotNil(t, started.Task)
		assert.Equal(t, "Build", started.Task.Name)
		assert.Equal(t, "Site", started.Task.Project.Name)
		assert.Equal(t, "Acme", started.Task.Project.Client.Name)

		stopped, err := f.timer.Stop(ctx, f.userID)
		require.NoError(t, err)
		require.NotNil(t, stopped.EndTime)
		assert.True(t, stopped.EndTime.After(stopped.StartTime))

		_, err = f.timer.Stop(ctx, f.userID)
		require.ErrorIs(t, err, timeentry.ErrNoRunningTimer)

		running, err := f.manager.Running(ctx, f.userID)
		require.NoError(t, err)
		assert.Nil(t, running)
	})

	t.Run("reopening is rejected while another timer runs", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()

		closed, err := f.manager.CreateManual(ctx, f.userID, timeentry.CreateManualRequest{
			StartTime: "2024-01-01T09:00:00Z",
			EndTime:   ptr("2024-01-01T10:00:00Z"),
		})
		require.NoError(t, err)

		_, err = f.timer.Start(ctx, f.userID, timeentry.StartTimerRequest{})
		require.NoError(t, err)

		req := timeentry.UpdateRequest{}
		require.NoError(t, req.EndTime.UnmarshalJSON([]byte("null")))

		_, err = f.manager.Update(ctx, f.userID, closed.ID, req)
		require.ErrorIs(t, err, timeentry.ErrTimerAlreadyRunning)
	})

	t.Run("store constraints map to domain errors", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()

		start := temporal.Normalize(time.Now())
		missingTask := "00000000-0000-0000-0000-000000000000"

		_, err := f.entries.InsertEntry(ctx, timeentry.New(f.userID, start, nil, &missingTask, nil, start))
		require.ErrorIs(t, err, task.ErrNotFound)

		_, err = f.entries.InsertEntry(ctx, timeentry.New(f.userID, start, &start, nil, nil, start))
		require.ErrorIs(t, err, temporal.ErrInvalidRange)
	})

	t.Run("deleting a task keeps its entries", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()

		e, err := f.manager.CreateManual(ctx, f.userID, timeentry.CreateManualRequest{
			StartTime: "2024-01-01T09:00:00Z",
			EndTime:   ptr("2024-01-01T10:00:00Z"),
			TaskID:    &f.taskID,
		})
		require.NoError(t, err)

		require.NoError(t, postgres.NewTasksRepo(pool, nil).DeleteTask(ctx, f.taskID))

		got, err := f.entries.GetEntry(ctx, f.userID, e.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TaskID)
		assert.Nil(t, got.Task)
	})

	t.Run("a subject without a user row gets ErrNotFound", func(t *testing.T) {
		f := newFixture(t, pool)
		ctx := context.Background()
		ghost := uuid.NewString()

		_, err := f.timer.Start(ctx, ghost, timeentry.StartTimerRequest{})
		assert.ErrorIs(t, err, user.ErrNotFound)

		_, err = f.manager.CreateManual(ctx, ghost, timeentry.CreateManualRequest{
			StartTime: "2024-03-01T08:00:00Z",
			EndTime:   ptr("2024-03-01T09:00:00Z"),
		})
		assert.ErrorIs(t, err, user.ErrNotFound)

		_, err = postgres.NewClientsRepo(pool, nil).CreateClient(ctx, client.NewFromCreateRequest(ghost, client.CreateClientRequest{Name: "Ghost"}))
		assert.ErrorIs(t, err, user.ErrNotFound)

		// reads for an unknown user are simply empty
		entries, err := f.manager.List(ctx, ghost, timeentry.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("other users cannot see entries", func(t *testing.T) {
		f := newFixture(t, pool)
		other := newFixture(t, pool)
		ctx := context.Background()

		e, err := f.manager.CreateManual(ctx, f.userID, timeentry.CreateManualRequest{StartTime: "2024-01-01T09:00:00Z", EndTime: ptr("2024-01-01T10:00:00Z")})
		require.NoError(t, err)

		err = other.manager.Delete(ctx, other.userID, e.ID)
		require.True(t, errors.Is(err, timeentry.ErrNotFound))

		_, err = other.timer.Start(ctx, other.userID, timeentry.StartTimerRequest{TaskID: &f.taskID})
		require.ErrorIs(t, err, task.ErrNotFound)
	})
}

func ptr[T any](v T) *T { return &v }
