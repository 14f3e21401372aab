package tracking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/temporal"
)

// Timer is the per-user Idle/Running state machine.
type Timer struct {
	core
}

func NewTimer(store Store, tasks TaskResolver, opts ...Option) *Timer {
	return &Timer{core: newCore(store, tasks, opts...)}
}

// Start moves the user from Idle to Running.
func (t *Timer) Start(ctx context.Context, userID string, req timeentry.StartTimerRequest) (timeentry.TimeEntry, error) {
	// fast path; the unique index below is what actually guarantees a single timer
	_, err := t.store.GetRunning(ctx, userID)
	if err == nil {
		t.metrics.TimerConflict("start")
		return timeentry.TimeEntry{}, timeentry.ErrTimerAlreadyRunning
	}
	if !errors.Is(err, timeentry.ErrNoRunningTimer) {
		return timeentry.TimeEntry{}, err
	}

	taskID, err := t.resolveTaskRef(ctx, userID, req.TaskID)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	now := temporal.Normalize(t.now())
	entry := timeentry.New(userID, now, nil, taskID, req.Description, now)

	created, err := t.store.InsertEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, timeentry.ErrTimerAlreadyRunning) {
			t.metrics.TimerConflict("start")
		}
		return timeentry.TimeEntry{}, err
	}

	t.cache.Invalidate(ctx, userID)
	t.metrics.TimerStarted()

	slog.Default().InfoContext(ctx, "timer.start",
		"entry_id", created.ID,
		"task_id", deref(created.TaskID),
	)

	return created, nil
}

// Stop moves the user from Running to Idle by closing the running entry.
func (t *Timer) Stop(ctx context.Context, userID string) (timeentry.TimeEntry, error) {
	stopped, err := t.store.StopRunning(ctx, userID, temporal.Normalize(t.now()))
	if err != nil {
		if errors.Is(err, timeentry.ErrNoRunningTimer) {
			t.metrics.TimerConflict("stop")
		}
		return timeentry.TimeEntry{}, err
	}

	t.cache.Invalidate(ctx, userID)

	if stopped.EndTime != nil {
		d := stopped.EndTime.Sub(stopped.StartTime)
		t.metrics.TimerStopped(d)

		slog.Default().InfoContext(ctx, "timer.stop",
			"entry_id", stopped.ID,
			"duration_ms", d.Milliseconds(),
		)
	}

	return stopped, nil
}

// resolveTaskRef treats a missing or empty task id as "no task".
func (k *core) resolveTaskRef(ctx context.Context, userID string, taskID *string) (*string, error) {
	if taskID == nil || strings.TrimSpace(*taskID) == "" {
		return nil, nil
	}

	t, err := k.tasks.ResolveTask(ctx, userID, strings.TrimSpace(*taskID))
	if err != nil {
		return nil, err
	}

	return &t.ID, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
