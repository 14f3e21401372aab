package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// not found and not owned are the same error on purpose
var ErrNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	ProjectID string `json:"-"`
	Name      string `json:"name" binding:"required,notblank,max=200"`
}

type UpdateTaskRequest struct {
	Name string `json:"name" binding:"required,notblank,max=200"`
}

func NewFromCreateRequest(req CreateTaskRequest) Task {
	now := time.Now().UTC()

	return Task{
		ID:        uuid.NewString(),
		Name:      req.Name,
		ProjectID: req.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
