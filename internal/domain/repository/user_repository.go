// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"credgate/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned by FindByUsername when no row matches. It is a normal outcome, not a fault.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned by Create when the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository is the user store contract the authentication service depends on.
// Any other error returned by an implementation is treated as a store fault.
type UserRepository interface {
	// FindByUsername retrieves a single user by username.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create persists a new user. A zero ID is filled in by the store.
	Create(ctx context.Context, user *entity.User) error

	// ListUsernames returns all registered usernames in ascending order.
	ListUsernames(ctx context.Context) ([]string, error)
}
