// Package memory is a process-local credential store. It honours the same
// uniqueness contract as the SQL stores and backs tests and throwaway runs.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/msomdec/sena-auth/internal/domain"
)

var errClosed = errors.New("memory store closed")

// DB implements domain.Database on top of an in-memory UserRepository.
type DB struct {
	users *UserRepository
}

func New() *DB {
	return &DB{users: NewUserRepository()}
}

func (db *DB) Migrate(context.Context) error { return nil }

func (db *DB) Ping(context.Context) error {
	return db.users.checkOpen()
}

func (db *DB) ProbeWrite(context.Context) error {
	return db.users.checkOpen()
}

func (db *DB) Users() domain.UserRepository { return db.users }

func (db *DB) Driver() string { return "memory" }

// Close marks the store closed; subsequent calls fail.
func (db *DB) Close() error {
	db.users.mu.Lock()
	db.users.closed = true
	db.users.mu.Unlock()
	return nil
}

// UserRepository keeps users in a slice ordered by insertion, with an
// index on username.
type UserRepository struct {
	mu         sync.RWMutex
	users      []domain.User
	byUsername map[string]int
	nextID     int64
	closed     bool
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byUsername: make(map[string]int),
		nextID:     1,
	}
}

func (r *UserRepository) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return errClosed
	}
	return nil
}

// Create checks and inserts under one lock.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errClosed
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return domain.ErrUserAlreadyExists
	}

	now := time.Now().UTC()
	if n := len(r.users); n > 0 && now.Before(r.users[n-1].CreatedAt) {
		now = r.users[n-1].CreatedAt
	}

	user.ID = r.nextID
	user.CreatedAt = now
	r.nextID++

	r.byUsername[user.Username] = len(r.users)
	r.users = append(r.users, *user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}
	i, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := r.users[i]
	return &u, nil
}

func (r *UserRepository) List(context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}
	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

func (r *UserRepository) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, errClosed
	}
	return len(r.users), nil
}

func (r *UserRepository) CountSince(_ context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, errClosed
	}
	count := 0
	for i := range r.users {
		if !r.users[i].CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *UserRepository) MostRecent(context.Context) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}
	if len(r.users) == 0 {
		return nil, domain.ErrNotFound
	}
	u := r.users[len(r.users)-1]
	return &u, nil
}
