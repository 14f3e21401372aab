// Package tracking owns the rules for time entries: the single running timer
// per user, the start/stop protocol, and the create/update/delete policy for
// entries.
package tracking

import (
	"context"
	"time"

	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
)

// Store is the transactional persistence the engine relies on.
//
// InsertEntry and UpdateEntry must enforce "at most one entry with a nil end
// time per user" atomically (a partial unique index in postgres, the mutex in
// the memory store) and report a violation as timeentry.ErrTimerAlreadyRunning.
type Store interface {
	ListEntries(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error)
	GetEntry(ctx context.Context, userID, entryID string) (timeentry.TimeEntry, error)
	GetRunning(ctx context.Context, userID string) (timeentry.TimeEntry, error)
	InsertEntry(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error)
	StopRunning(ctx context.Context, userID string, at time.Time) (timeentry.TimeEntry, error)
	// UpdateEntry locks the entry, hands the current row to mutate and writes
	// the result in the same transaction.
	UpdateEntry(ctx context.Context, userID, entryID string, mutate func(current timeentry.TimeEntry) (timeentry.TimeEntry, error)) (timeentry.TimeEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

type TaskResolver interface {
	ResolveTask(ctx context.Context, userID, taskID string) (task.Task, error)
}

// RunningCache fronts GetRunning. A cached nil entry means "idle".
type RunningCache interface {
	Get(ctx context.Context, userID string) (entry *timeentry.TimeEntry, ok bool)
	Set(ctx context.Context, userID string, entry *timeentry.TimeEntry)
	Invalidate(ctx context.Context, userID string)
}

type Metrics interface {
	TimerStarted()
	TimerStopped(d time.Duration)
	TimerConflict(op string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*timeentry.TimeEntry, bool) { return nil, false }
func (nopCache) Set(context.Context, string, *timeentry.TimeEntry)        {}
func (nopCache) Invalidate(context.Context, string)                       {}

type nopMetrics struct{}

func (nopMetrics) TimerStarted()              {}
func (nopMetrics) TimerStopped(time.Duration) {}
func (nopMetrics) TimerConflict(string)       {}

type Option func(*core)

func WithCache(c RunningCache) Option {
	return func(k *core) {
		if c != nil {
			k.cache = c
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(k *core) {
		if m != nil {
			k.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(k *core) {
		if now != nil {
			k.now = now
		}
	}
}

// core is the dependency set shared by Timer and Manager.
type core struct {
	store   Store
	tasks   TaskResolver
	cache   RunningCache
	metrics Metrics
	now     func() time.Time
}

func newCore(store Store, tasks TaskResolver, opts ...Option) core {
	k := core{
		store:   store,
		tasks:   tasks,
		cache:   nopCache{},
		metrics: nopMetrics{},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(&k)
	}

	return k
}
