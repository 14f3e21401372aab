package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClientID  string    `json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("project not found")

type CreateProjectRequest struct {
	ClientID string `json:"-"`
	Name     string `json:"name" binding:"required,notblank,max=200"`
}

type UpdateProjectRequest struct {
	Name string `json:"name" binding:"required,notblank,max=200"`
}

func NewFromCreateRequest(req CreateProjectRequest) Project {
	now := time.Now().UTC()

	return Project{
		ID:        uuid.NewString(),
		Name:      req.Name,
		ClientID:  req.ClientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
