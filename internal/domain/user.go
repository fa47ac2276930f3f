package domain

import (
	"context"
	"time"
)

// User is a stored credential record. PasswordHash never leaves the
// service layer; callers outside it receive a Profile.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the sanitized view of a User.
type Profile struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// Profile strips the password hash.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// UserRepository defines persistence operations for users.
//
// Create must enforce username uniqueness atomically and return
// ErrUserAlreadyExists when the username is taken, regardless of any
// check the caller made beforehand. Lookups return ErrNotFound on absence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	MostRecent(ctx context.Context) (*User, error)
}
