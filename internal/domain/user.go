// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
	PasswordHash  string
	CreatedAt     time.Time
}

// Session is a snapshot of the authentication state at a point in time.
// IsLoading is true only until the first provider notification arrives;
// IsLoggedIn is true iff User is non-nil.
type Session struct {
	User       *User
	IsLoggedIn bool
	IsLoading  bool
}

// SessionToken represents an opaque web session token issued after sign-in.
type SessionToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// SessionTokenRepository defines the port for web session persistence.
type SessionTokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*SessionToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
