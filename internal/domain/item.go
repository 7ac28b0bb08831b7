package domain

import (
	"context"
	"time"
)

// Item represents a user-owned record with a title and description.
// UpdatedAt is nil until the first update.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OwnerID     string     `json:"ownerId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ItemStore is the port for item persistence. List and Watch take an
// ownerID filter; the empty string matches all items. List returns items
// ordered by CreatedAt descending (store-assigned order among ties).
type ItemStore interface {
	Insert(ctx context.Context, it *Item) error
	List(ctx context.Context, ownerID string) ([]Item, error)
	Update(ctx context.Context, id, title, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error

	// Watch registers fn to be called after every change to the items
	// collection until the returned cancel function is invoked. The
	// callback carries no payload; watchers are expected to refetch.
	Watch(ctx context.Context, fn func()) (cancel func(), err error)
}
