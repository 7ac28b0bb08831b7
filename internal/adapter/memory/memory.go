// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"itemboard/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu     sync.Mutex
	users  []*domain.User
	items  []domain.Item
	tokens map[string]*domain.SessionToken

	watchers  map[int]func()
	nextWatch int
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		tokens:   make(map[string]*domain.SessionToken),
		watchers: make(map[int]func()),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ItemStore = (*DB)(nil)
var _ domain.SessionTokenRepository = (*SessionTokenRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create stores a new user.
func (db *DB) Create(ctx context.Context, u *domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Email == u.Email {
			return errors.New("user already exists")
		}
	}
	db.users = append(db.users, u)
	return nil
}

// --- ItemStore ---

// Insert stores a new item, assigning its id.
func (db *DB) Insert(ctx context.Context, it *domain.Item) error {
	db.mu.Lock()
	it.ID = uuid.NewString()
	db.items = append(db.items, *it)
	db.mu.Unlock()

	db.notify()
	return nil
}

// List returns items matching ownerID (all items when ownerID is empty),
// ordered by CreatedAt descending.
func (db *DB) List(ctx context.Context, ownerID string) ([]domain.Item, error) {
	db.mu.Lock()
	out := make([]domain.Item, 0, len(db.items))
	for _, it := range db.items {
		if ownerID == "" || it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	db.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces an item's title and description.
func (db *DB) Update(ctx context.Context, id, title, description string, updatedAt time.Time) error {
	db.mu.Lock()
	found := false
	for i := range db.items {
		if db.items[i].ID == id {
			db.items[i].Title = title
			db.items[i].Description = description
			ts := updatedAt
			db.items[i].UpdatedAt = &ts
			found = true
			break
		}
	}
	db.mu.Unlock()

	if !found {
		return domain.NewStoreError(domain.StoreNotFound, nil)
	}
	db.notify()
	return nil
}

// Delete removes an item by id.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	found := false
	for i := range db.items {
		if db.items[i].ID == id {
			db.items = append(db.items[:i], db.items[i+1:]...)
			found = true
			break
		}
	}
	db.mu.Unlock()

	if !found {
		return domain.NewStoreError(domain.StoreNotFound, nil)
	}
	db.notify()
	return nil
}

// Watch registers fn to be invoked after every item mutation.
func (db *DB) Watch(ctx context.Context, fn func()) (func(), error) {
	db.mu.Lock()
	id := db.nextWatch
	db.nextWatch++
	db.watchers[id] = fn
	db.mu.Unlock()

	return func() {
		db.mu.Lock()
		delete(db.watchers, id)
		db.mu.Unlock()
	}, nil
}

func (db *DB) notify() {
	db.mu.Lock()
	fns := make([]func(), 0, len(db.watchers))
	for _, fn := range db.watchers {
		fns = append(fns, fn)
	}
	db.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// --- SessionTokenRepository ---

// SessionTokenRepo implements web session persistence.
type SessionTokenRepo struct {
	db *DB
}

// NewSessionTokenRepo creates a new session token repository.
func (db *DB) NewSessionTokenRepo() *SessionTokenRepo {
	return &SessionTokenRepo{db: db}
}

// Create stores a new session token.
func (r *SessionTokenRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.tokens[token] = &domain.SessionToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session token.
func (r *SessionTokenRepo) GetByToken(ctx context.Context, token string) (*domain.SessionToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if st, ok := r.db.tokens[token]; ok {
		return st, nil
	}
	return nil, nil
}

// Delete removes a session token.
func (r *SessionTokenRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tokens, token)
	return nil
}

// DeleteExpired removes all expired session tokens.
func (r *SessionTokenRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.tokens {
		if now.After(v.ExpiresAt) {
			delete(r.db.tokens, k)
		}
	}
	return nil
}
