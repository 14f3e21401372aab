package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/geocoder89/clocktrack/internal/cache/redisclient"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/utils"
)

// LookupRecorder receives hit/miss/error counts; *observability.Prom implements it.
type LookupRecorder interface {
	CacheLookup(backend, result string)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, string) {}

// runningValue distinguishes a cached "idle" from a missing key.
type runningValue struct {
	Running bool                 `json:"running"`
	Entry   *timeentry.TimeEntry `json:"entry,omitempty"`
}

func newRunningValue(e *timeentry.TimeEntry) runningValue {
	if e == nil {
		return runningValue{}
	}
	cp := *e
	return runningValue{Running: true, Entry: &cp}
}

func (v runningValue) entry() *timeentry.TimeEntry {
	if !v.Running || v.Entry == nil {
		return nil
	}
	cp := *v.Entry
	return &cp
}

// RunningTimers is the in-process running-timer cache.
type RunningTimers struct {
	c   *Cache[runningValue]
	rec LookupRecorder
}

func NewRunningTimers(ttl time.Duration, rec LookupRecorder) *RunningTimers {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &RunningTimers{c: New[runningValue](ttl), rec: rec}
}

func (r *RunningTimers) Get(_ context.Context, userID string) (*timeentry.TimeEntry, bool) {
	rv, ok := r.c.Get(utils.RunningTimerCacheKey(userID))
	if !ok {
		r.rec.CacheLookup("memory", "miss")
		return nil, false
	}

	r.rec.CacheLookup("memory", "hit")
	return rv.entry(), true
}

func (r *RunningTimers) Set(_ context.Context, userID string, e *timeentry.TimeEntry) {
	r.c.Set(utils.RunningTimerCacheKey(userID), newRunningValue(e))
}

func (r *RunningTimers) Invalidate(_ context.Context, userID string) {
	r.c.Delete(utils.RunningTimerCacheKey(userID))
}

// RedisRunningTimers shares the running-timer cache between api replicas.
// Redis failures degrade to a miss; the store stays authoritative.
type RedisRunningTimers struct {
	client *redisclient.Client
	ttl    time.Duration
	rec    LookupRecorder
}

func NewRedisRunningTimers(client *redisclient.Client, ttl time.Duration, rec LookupRecorder) *RedisRunningTimers {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &RedisRunningTimers{client: client, ttl: ttl, rec: rec}
}

func (r *RedisRunningTimers) Get(ctx context.Context, userID string) (*timeentry.TimeEntry, bool) {
	raw, err := r.client.Get(ctx, utils.RunningTimerCacheKey(userID))
	if err != nil {
		if redisclient.IsMiss(err) {
			r.rec.CacheLookup("redis", "miss")
			return nil, false
		}
		r.rec.CacheLookup("redis", "error")
		slog.Default().WarnContext(ctx, "running cache get failed", "err", err)
		return nil, false
	}

	var rv runningValue
	if err := json.Unmarshal(raw, &rv); err != nil {
		r.rec.CacheLookup("redis", "error")
		return nil, false
	}

	r.rec.CacheLookup("redis", "hit")
	return rv.entry(), true
}

func (r *RedisRunningTimers) Set(ctx context.Context, userID string, e *timeentry.TimeEntry) {
	raw, err := json.Marshal(newRunningValue(e))
	if err != nil {
		return
	}

	if err := r.client.Set(ctx, utils.RunningTimerCacheKey(userID), raw, r.ttl); err != nil {
		slog.Default().WarnContext(ctx, "running cache set failed", "err", err)
	}
}

func (r *RedisRunningTimers) Invalidate(ctx context.Context, userID string) {
	if err := r.client.Del(ctx, utils.RunningTimerCacheKey(userID)); err != nil {
		slog.Default().WarnContext(ctx, "running cache invalidate failed", "err", err)
	}
}
