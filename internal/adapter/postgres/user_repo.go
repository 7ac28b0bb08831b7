package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"itemboard/internal/domain"
)

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, display_name, email_verified, password_hash, created_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.EmailVerified, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, display_name, email_verified, password_hash, created_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.EmailVerified, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create stores a new user.
func (d *DB) Create(ctx context.Context, u *domain.User) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO users (id, email, display_name, email_verified, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		u.ID, u.Email, u.DisplayName, u.EmailVerified, u.PasswordHash, u.CreatedAt,
	)
	return err
}

// SessionTokenRepo implements web session persistence on DB.
type SessionTokenRepo struct {
	db *DB
}

// NewSessionTokenRepo wraps a DB as a SessionTokenRepository.
func NewSessionTokenRepo(db *DB) *SessionTokenRepo {
	return &SessionTokenRepo{db: db}
}

// Create stores a new session token.
func (r *SessionTokenRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		token, userID, expiresAt, time.Now(),
	)
	return err
}

// GetByToken retrieves a session token.
func (r *SessionTokenRepo) GetByToken(ctx context.Context, token string) (*domain.SessionToken, error) {
	var st domain.SessionToken
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&st.Token, &st.UserID, &st.ExpiresAt, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Delete removes a session token.
func (r *SessionTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired removes all expired session tokens.
func (r *SessionTokenRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now())
	return err
}
