package domain

import (
	"context"
	"time"
)

// User is an account that can authenticate against the API.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the request identity for an authenticated user.
func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserRepository stores accounts. Usernames are unique, compared case-insensitively.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, username string) error
}
