// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/mail"
	"sync"
	"time"

	"itemboard/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrSessionNotFound indicates that the requested web session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the web session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// minPasswordLength is the provider-side floor for new passwords.
const minPasswordLength = 6

// FederatedIdentity carries the verified claims of a federated sign-in.
type FederatedIdentity struct {
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// AuthService handles registration, sign-in and sign-out, and owns the
// ambient authenticated-user state that session subscribers observe.
type AuthService struct {
	users    domain.UserRepository
	tokens   domain.SessionTokenRepository
	tokenTTL time.Duration

	mu      sync.Mutex
	current *domain.User
	subs    map[int]func(*domain.User)
	nextSub int
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens domain.SessionTokenRepository, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		subs:     make(map[int]func(*domain.User)),
	}
}

// Register creates a new user with an email and password and signs them in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidEmail, err)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewAuthError(domain.AuthWeakPassword, nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnknown, err)
	}
	if existing != nil {
		return nil, domain.NewAuthError(domain.AuthEmailInUse, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnknown, err)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, domain.NewAuthError(domain.AuthUnknown, err)
	}

	slog.Info("user registered", slog.String("user_id", u.ID))
	s.setCurrent(u)
	return u, nil
}

// SignIn authenticates a user with an email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnknown, err)
	}
	if u == nil {
		return nil, domain.NewAuthError(domain.AuthUserNotFound, nil)
	}
	if u.PasswordHash == "" {
		// Federated-only account; no password to compare.
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, nil)
	}

	s.setCurrent(u)
	return u, nil
}

// SignInFederated signs in a user identified by a federated provider,
// provisioning the account on first login.
func (s *AuthService) SignInFederated(ctx context.Context, fid FederatedIdentity) (*domain.User, error) {
	if fid.Email == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidEmail, nil)
	}

	u, err := s.users.GetByEmail(ctx, fid.Email)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUnknown, err)
	}
	if u == nil {
		u = &domain.User{
			ID:            uuid.NewString(),
			Email:         fid.Email,
			DisplayName:   fid.DisplayName,
			EmailVerified: fid.EmailVerified,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			// Retry the lookup in case a concurrent callback created it.
			u, err = s.users.GetByEmail(ctx, fid.Email)
			if err != nil || u == nil {
				return nil, domain.NewAuthError(domain.AuthUnknown, err)
			}
		} else {
			slog.Info("federated user provisioned",
				slog.String("user_id", u.ID),
				slog.String("subject", fid.Subject),
			)
		}
	}

	s.setCurrent(u)
	return u, nil
}

// SignOut clears the ambient authenticated-user state. Safe to call when no
// session is active.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.setCurrent(nil)
	return nil
}

// SubscribeAuthState registers fn to receive the authenticated user after
// every state change. fn is invoked once with the current state on
// registration. The returned cancel function releases the subscription.
func (s *AuthService) SubscribeAuthState(fn func(*domain.User)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *AuthService) setCurrent(u *domain.User) {
	s.mu.Lock()
	s.current = u
	fns := make([]func(*domain.User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// IssueToken creates a web session token for an authenticated user.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(s.tokenTTL)
	if err := s.tokens.Create(ctx, userID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateToken checks a web session token and returns its user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	st, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(st.ExpiresAt) {
		_ = s.tokens.Delete(ctx, st.Token)
		return nil, ErrSessionExpired
	}

	u, err := s.users.GetByID(ctx, st.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrSessionNotFound
	}
	return u, nil
}

// RevokeToken invalidates a web session token.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	return s.tokens.Delete(ctx, token)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
