package db

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/security"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureUser creates the user unless one with that email already exists.
func EnsureUser(ctx context.Context, users UserStore, email, password, name string) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return user.User{}, err
	}

	u, err := users.Create(ctx, user.New(email, hash, name))
	if errors.Is(err, user.ErrEmailAlreadyUsed) {
		// lost a race with another seeder
		return users.GetByEmail(ctx, email)
	}

	return u, err
}
