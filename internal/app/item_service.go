package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"itemboard/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrTitleRequired indicates an empty item title.
	ErrTitleRequired = errors.New("title must not be empty")
	// ErrDescriptionRequired indicates an empty item description.
	ErrDescriptionRequired = errors.New("description must not be empty")
	// ErrOwnerRequired indicates a missing owner in owner-scoped mode.
	ErrOwnerRequired = errors.New("owner id is required")
)

var activeItemSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "itemboard_active_item_subscriptions",
	Help: "Number of live item subscriptions currently open.",
})

// ItemService implements item use cases over an ItemStore. With
// scopeByOwner set, reads and live subscriptions are filtered to the
// requesting owner; otherwise the collection is global and owner filters
// are ignored.
type ItemService struct {
	store        domain.ItemStore
	scopeByOwner bool
}

// NewItemService creates an ItemService backed by the given store.
func NewItemService(store domain.ItemStore, scopeByOwner bool) *ItemService {
	return &ItemService{store: store, scopeByOwner: scopeByOwner}
}

// Create stores a new item and returns its store-assigned id.
func (s *ItemService) Create(ctx context.Context, title, description, ownerID string) (string, error) {
	if title == "" {
		return "", ErrTitleRequired
	}
	if description == "" {
		return "", ErrDescriptionRequired
	}
	if s.scopeByOwner && ownerID == "" {
		return "", ErrOwnerRequired
	}

	it := &domain.Item{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

// ListOnce returns a point-in-time snapshot of the matching items, ordered
// by CreatedAt descending.
func (s *ItemService) ListOnce(ctx context.Context, ownerID string) ([]domain.Item, error) {
	return s.store.List(ctx, s.effectiveOwner(ownerID))
}

// Update replaces an item's title and description and stamps UpdatedAt.
// Id, owner and creation time are never touched.
func (s *ItemService) Update(ctx context.Context, id, title, description string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if description == "" {
		return ErrDescriptionRequired
	}
	return s.store.Update(ctx, id, title, description, time.Now().UTC())
}

// Delete removes an item. Deleting an absent id is treated as success.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	var serr *domain.StoreError
	if errors.As(err, &serr) && serr.Kind == domain.StoreNotFound {
		return nil
	}
	return err
}

// Subscribe registers a live query. onUpdate receives the complete current
// matching set, sorted by CreatedAt descending, once immediately and again
// after every change to the collection. Each delivery is a full snapshot,
// not a delta; rapid changes may be coalesced into a single refetch. A
// failed refetch is logged and skipped, leaving the consumer on its
// last-known snapshot. The returned cancel function stops deliveries and
// releases the underlying watch; it must be called exactly once when the
// consumer is done.
func (s *ItemService) Subscribe(ctx context.Context, ownerID string, onUpdate func([]domain.Item)) (cancel func(), err error) {
	if s.scopeByOwner && ownerID == "" {
		return nil, ErrOwnerRequired
	}
	owner := s.effectiveOwner(ownerID)

	refresh := make(chan struct{}, 1)
	refresh <- struct{}{} // first snapshot

	cancelWatch, err := s.store.Watch(ctx, func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	cancel = func() {
		once.Do(func() {
			cancelWatch()
			close(done)
		})
	}

	activeItemSubscriptions.Inc()
	go func() {
		defer activeItemSubscriptions.Dec()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				cancel()
				return
			case <-refresh:
				items, err := s.store.List(ctx, owner)
				if err != nil {
					slog.Warn("item snapshot refresh failed", slog.Any("error", err))
					continue
				}
				select {
				case <-done:
					return
				default:
				}
				onUpdate(items)
			}
		}
	}()

	return cancel, nil
}

func (s *ItemService) effectiveOwner(ownerID string) string {
	if !s.scopeByOwner {
		return ""
	}
	return ownerID
}
