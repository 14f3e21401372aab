package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("client not found")

type CreateClientRequest struct {
	Name string `json:"name" binding:"required,notblank,max=200"`
}

type UpdateClientRequest struct {
	Name string `json:"name" binding:"required,notblank,max=200"`
}

func NewFromCreateRequest(userID string, req CreateClientRequest) Client {
	now := time.Now().UTC()

	return Client{
		ID:        uuid.NewString(),
		Name:      req.Name,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
