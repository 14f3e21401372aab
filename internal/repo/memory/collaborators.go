package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
)

// clients

func (s *Store) ListClients(_ context.Context, userID string) ([]client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]client.Client, 0)
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return nameLess(out[i].Name, out[i].ID, out[j].Name, out[j].ID)
	})

	return out, nil
}

func (s *Store) CreateClient(_ context.Context, c client.Client) (client.Client, error) {
	s.mu.Lock()
	s.clients[c.ID] = c
	s.mu.Unlock()

	return c, nil
}

func (s *Store) RenameClient(_ context.Context, clientID, name string) (client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[clientID]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}

	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	s.clients[clientID] = c

	return c, nil
}

func (s *Store) DeleteClient(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[clientID]; !ok {
		return client.ErrNotFound
	}

	for id, p := range s.projects {
		if p.ClientID == clientID {
			s.deleteProjectLocked(id)
		}
	}
	delete(s.clients, clientID)

	return nil
}

// projects

func (s *Store) ListProjects(_ context.Context, clientID string) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]project.Project, 0)
	for _, p := range s.projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return nameLess(out[i].Name, out[i].ID, out[j].Name, out[j].ID)
	})

	return out, nil
}

func (s *Store) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[p.ClientID]; !ok {
		return project.Project{}, client.ErrNotFound
	}
	s.projects[p.ID] = p

	return p, nil
}

func (s *Store) RenameProject(_ context.Context, projectID, name string) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return project.Project{}, project.ErrNotFound
	}

	p.Name = name
	p.UpdatedAt = time.Now().UTC()
	s.projects[projectID] = p

	return p, nil
}

func (s *Store) DeleteProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return project.ErrNotFound
	}
	s.deleteProjectLocked(projectID)

	return nil
}

func (s *Store) deleteProjectLocked(projectID string) {
	for id, t := range s.tasks {
		if t.ProjectID == projectID {
			s.deleteTaskLocked(id)
		}
	}
	delete(s.projects, projectID)
}

// tasks

func (s *Store) ListTasks(_ context.Context, projectID string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return nameLess(out[i].Name, out[i].ID, out[j].Name, out[j].ID)
	})

	return out, nil
}

func (s *Store) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[t.ProjectID]; !ok {
		return task.Task{}, project.ErrNotFound
	}
	s.tasks[t.ID] = t

	return t, nil
}

func (s *Store) RenameTask(_ context.Context, taskID, name string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	s.tasks[taskID] = t

	return t, nil
}

func (s *Store) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return task.ErrNotFound
	}
	s.deleteTaskLocked(taskID)

	return nil
}

// deleteTaskLocked detaches entries instead of deleting them (ON DELETE SET NULL).
func (s *Store) deleteTaskLocked(taskID string) {
	for id, e := range s.entries {
		if e.TaskID != nil && *e.TaskID == taskID {
			e.TaskID = nil
			s.entries[id] = e
		}
	}
	delete(s.tasks, taskID)
}

func nameLess(aName, aID, bName, bID string) bool {
	if aName != bName {
		return aName < bName
	}
	return aID < bID
}
