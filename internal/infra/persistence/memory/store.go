// Package memory implements an in-process user store for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"credgate/internal/domain/entity"
	"credgate/internal/domain/repository"
)

// Store keeps users in a map guarded by a RWMutex. Contents are lost on restart.
type Store struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

var _ repository.UserRepository = (*Store)(nil)

func NewStore() *Store {
	return &Store{users: make(map[string]entity.User)}
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "find user by username")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return &user, nil
}

func (s *Store) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "create user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return repository.ErrDuplicateUsername
	}

	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "generate user id")
		}
		user.ID = id
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	s.users[user.Username] = *user

	return nil
}

func (s *Store) ListUsernames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "list usernames")
	}

	s.mu.RLock()
	usernames := make([]string, 0, len(s.users))
	for username := range s.users {
		usernames = append(usernames, username)
	}
	s.mu.RUnlock()

	slices.Sort(usernames)

	return usernames, nil
}
