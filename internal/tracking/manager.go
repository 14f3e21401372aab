package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/optional"
	"github.com/geocoder89/clocktrack/internal/temporal"
	"github.com/geocoder89/clocktrack/internal/utils"
)

// Manager implements the query and mutation operations on time entries.
// Every operation is scoped to the userID of the authenticated principal.
type Manager struct {
	core
}

func NewManager(store Store, tasks TaskResolver, opts ...Option) *Manager {
	return &Manager{core: newCore(store, tasks, opts...)}
}

// List returns the user's entries, newest start first.
func (m *Manager) List(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error) {
	if filter.TaskID != nil && !utils.IsUUID(*filter.TaskID) {
		// no entry can reference a task id that is not a uuid
		return []timeentry.TimeEntry{}, nil
	}

	entries, err := m.store.ListEntries(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []timeentry.TimeEntry{}
	}

	return entries, nil
}

// Running returns the running entry, or nil when the user is idle.
//
// The read and the cache fill are not atomic: a Start or Stop that commits and
// invalidates between them can be overwritten by the older state, which then
// lives until the cache TTL. Reads may be that stale; writes always go to the
// store.
func (m *Manager) Running(ctx context.Context, userID string) (*timeentry.TimeEntry, error) {
	if cached, ok := m.cache.Get(ctx, userID); ok {
		return cached, nil
	}

	e, err := m.store.GetRunning(ctx, userID)
	if err != nil {
		if errors.Is(err, timeentry.ErrNoRunningTimer) {
			m.cache.Set(ctx, userID, nil)
			return nil, nil
		}
		return nil, err
	}

	m.cache.Set(ctx, userID, &e)

	return &e, nil
}

// CreateManual records an entry with explicit times. Without an end time the
// entry is a running timer and the single-timer rule applies.
func (m *Manager) CreateManual(ctx context.Context, userID string, req timeentry.CreateManualRequest) (timeentry.TimeEntry, error) {
	start, err := temporal.ParseTimestamp(req.StartTime)
	if err != nil {
		return timeentry.TimeEntry{}, invalidStart()
	}

	end, err := temporal.ParseOptional(blankToNil(req.EndTime))
	if err != nil {
		return timeentry.TimeEntry{}, invalidEnd()
	}

	if err := temporal.ValidateOrder(start, end); err != nil {
		return timeentry.TimeEntry{}, invalidRange()
	}

	taskID, err := m.resolveTaskRef(ctx, userID, req.TaskID)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	now := temporal.Normalize(m.now())
	entry := timeentry.New(userID, start, end, taskID, req.Description, now)

	created, err := m.store.InsertEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, timeentry.ErrTimerAlreadyRunning) {
			m.metrics.TimerConflict("create")
		}
		return timeentry.TimeEntry{}, err
	}

	if created.Running() {
		m.cache.Invalidate(ctx, userID)
		m.metrics.TimerStarted()
	}

	return created, nil
}

// Update applies a partial update. Absent fields keep their stored value,
// explicit nulls clear endTime, taskId and description. Empty strings for
// startTime, endTime and taskId are ignored.
func (m *Manager) Update(ctx context.Context, userID, entryID string, req timeentry.UpdateRequest) (timeentry.TimeEntry, error) {
	if !utils.IsUUID(entryID) {
		return timeentry.TimeEntry{}, timeentry.ErrNotFound
	}

	if _, err := m.store.GetEntry(ctx, userID, entryID); err != nil {
		return timeentry.TimeEntry{}, err
	}

	patch, err := m.buildPatch(ctx, userID, req)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	now := temporal.Normalize(m.now())

	updated, err := m.store.UpdateEntry(ctx, userID, entryID, func(current timeentry.TimeEntry) (timeentry.TimeEntry, error) {
		next := patch.Apply(current)

		if err := temporal.ValidateOrder(next.StartTime, next.EndTime); err != nil {
			return timeentry.TimeEntry{}, invalidRange()
		}

		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		if errors.Is(err, timeentry.ErrTimerAlreadyRunning) {
			m.metrics.TimerConflict("reopen")
		}
		return timeentry.TimeEntry{}, err
	}

	m.cache.Invalidate(ctx, userID)

	return updated, nil
}

// Delete removes an owned entry.
func (m *Manager) Delete(ctx context.Context, userID, entryID string) error {
	if !utils.IsUUID(entryID) {
		return timeentry.ErrNotFound
	}

	if err := m.store.DeleteEntry(ctx, userID, entryID); err != nil {
		return err
	}

	m.cache.Invalidate(ctx, userID)

	return nil
}

func (m *Manager) buildPatch(ctx context.Context, userID string, req timeentry.UpdateRequest) (timeentry.Patch, error) {
	var patch timeentry.Patch

	// an empty string on update leaves the stored value unchanged; only an
	// explicit null clears a field
	if req.StartTime.Present && !isBlank(req.StartTime.Value) {
		// startTime is required on the entry, so null is not a valid value
		if req.StartTime.Value == nil {
			return patch, invalidStart()
		}

		start, err := temporal.ParseTimestamp(*req.StartTime.Value)
		if err != nil {
			return patch, invalidStart()
		}
		patch.StartTime = &start
	}

	if req.EndTime.Present && !isBlank(req.EndTime.Value) {
		if req.EndTime.Value == nil {
			patch.EndTime = optional.Null[time.Time]()
		} else {
			end, err := temporal.ParseTimestamp(*req.EndTime.Value)
			if err != nil {
				return patch, invalidEnd()
			}
			patch.EndTime = optional.Of(end)
		}
	}

	if req.TaskID.Present && !isBlank(req.TaskID.Value) {
		taskID, err := m.resolveTaskRef(ctx, userID, req.TaskID.Value)
		if err != nil {
			return patch, err
		}
		patch.TaskID = optional.Field[string]{Present: true, Value: taskID}
	}

	if req.Description.Present {
		patch.Description = req.Description
	}

	return patch, nil
}

// blankToNil folds an empty timestamp string into "not provided".
func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// isBlank reports a present, non-null value that is empty after trimming.
func isBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}
