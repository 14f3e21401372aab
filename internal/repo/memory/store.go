package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/temporal"
)

// Store keeps every collection behind one lock, which is what makes the
// running-timer check and the write a single atomic step here.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]client.Client
	projects map[string]project.Project
	tasks    map[string]task.Task
	entries  map[string]timeentry.TimeEntry
}

func NewStore() *Store {
	return &Store{
		clients:  make(map[string]client.Client),
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
		entries:  make(map[string]timeentry.TimeEntry),
	}
}

// ownership lookups

func (s *Store) OwnedClient(_ context.Context, userID, clientID string) (client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientID]
	if !ok || c.UserID != userID {
		return client.Client{}, client.ErrNotFound
	}
	return c, nil
}

func (s *Store) OwnedProject(_ context.Context, userID, projectID string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}
	if c, ok := s.clients[p.ClientID]; !ok || c.UserID != userID {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (s *Store) OwnedTask(_ context.Context, userID, taskID string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	d, ok := s.taskDetailsLocked(t.ID)
	if !ok || d.Project.Client.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// time entries

func (s *Store) ListEntries(_ context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]timeentry.TimeEntry, 0)
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if filter.From != nil && e.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.StartTime.After(*filter.To) {
			continue
		}
		if filter.TaskID != nil && (e.TaskID == nil || *e.TaskID != *filter.TaskID) {
			continue
		}
		out = append(out, s.enrichLocked(e))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (s *Store) GetEntry(_ context.Context, userID, entryID string) (timeentry.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID]
	if !ok || e.UserID != userID {
		return timeentry.TimeEntry{}, timeentry.ErrNotFound
	}
	return s.enrichLocked(e), nil
}

func (s *Store) GetRunning(_ context.Context, userID string) (timeentry.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.runningLocked(userID, "")
	if !ok {
		return timeentry.TimeEntry{}, timeentry.ErrNoRunningTimer
	}
	return s.enrichLocked(e), nil
}

func (s *Store) InsertEntry(_ context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEntryLocked(e); err != nil {
		return timeentry.TimeEntry{}, err
	}

	s.entries[e.ID] = stripDetails(e)
	return s.enrichLocked(e), nil
}

func (s *Store) StopRunning(_ context.Context, userID string, at time.Time) (timeentry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runningLocked(userID, "")
	if !ok {
		return timeentry.TimeEntry{}, timeentry.ErrNoRunningTimer
	}

	end := at
	if floor := e.StartTime.Add(time.Microsecond); end.Before(floor) {
		end = floor
	}
	e.EndTime = &end
	e.UpdatedAt = at

	s.entries[e.ID] = e
	return s.enrichLocked(e), nil
}

func (s *Store) UpdateEntry(_ context.Context, userID, entryID string, mutate func(current timeentry.TimeEntry) (timeentry.TimeEntry, error)) (timeentry.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[entryID]
	if !ok || current.UserID != userID {
		return timeentry.TimeEntry{}, timeentry.ErrNotFound
	}

	next, err := mutate(s.enrichLocked(current))
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	// identity and ownership are immutable
	next.ID = current.ID
	next.UserID = current.UserID
	next.CreatedAt = current.CreatedAt

	if err := s.checkEntryLocked(next); err != nil {
		return timeentry.TimeEntry{}, err
	}

	s.entries[next.ID] = stripDetails(next)
	return s.enrichLocked(next), nil
}

func (s *Store) DeleteEntry(_ context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || e.UserID != userID {
		return timeentry.ErrNotFound
	}

	delete(s.entries, entryID)
	return nil
}

// checkEntryLocked mirrors the postgres constraints on time_entries.
func (s *Store) checkEntryLocked(e timeentry.TimeEntry) error {
	if e.TaskID != nil {
		if _, ok := s.tasks[*e.TaskID]; !ok {
			return task.ErrNotFound
		}
	}

	if err := temporal.ValidateOrder(e.StartTime, e.EndTime); err != nil {
		return err
	}

	if e.Running() {
		if _, busy := s.runningLocked(e.UserID, e.ID); busy {
			return timeentry.ErrTimerAlreadyRunning
		}
	}

	return nil
}

// runningLocked finds the user's open entry, ignoring skipID.
func (s *Store) runningLocked(userID, skipID string) (timeentry.TimeEntry, bool) {
	for _, e := range s.entries {
		if e.UserID == userID && e.Running() && e.ID != skipID {
			return e, true
		}
	}
	return timeentry.TimeEntry{}, false
}

func (s *Store) enrichLocked(e timeentry.TimeEntry) timeentry.TimeEntry {
	e.Task = nil
	if e.TaskID == nil {
		return e
	}
	if d, ok := s.taskDetailsLocked(*e.TaskID); ok {
		e.Task = &d
	}
	return e
}

func (s *Store) taskDetailsLocked(taskID string) (timeentry.TaskDetails, bool) {
	t, ok := s.tasks[taskID]
	if !ok {
		return timeentry.TaskDetails{}, false
	}
	p, ok := s.projects[t.ProjectID]
	if !ok {
		return timeentry.TaskDetails{}, false
	}
	c, ok := s.clients[p.ClientID]
	if !ok {
		return timeentry.TaskDetails{}, false
	}

	return timeentry.TaskDetails{
		ID:        t.ID,
		Name:      t.Name,
		ProjectID: p.ID,
		Project: timeentry.ProjectDetails{
			ID:       p.ID,
			Name:     p.Name,
			ClientID: c.ID,
			Client:   timeentry.ClientDetails{ID: c.ID, Name: c.Name, UserID: c.UserID},
		},
	}, true
}

func stripDetails(e timeentry.TimeEntry) timeentry.TimeEntry {
	e.Task = nil
	return e
}
