package postgres

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"itemboard/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// itemsChannel is the NOTIFY channel signalled after every item mutation.
const itemsChannel = "items_changed"

// Insert stores a new item, assigning its id.
func (d *DB) Insert(ctx context.Context, it *domain.Item) error {
	id := uuid.NewString()
	var ownerID sql.NullString
	if it.OwnerID != "" {
		ownerID = sql.NullString{String: it.OwnerID, Valid: true}
	}

	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO items (id, title, description, owner_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, it.Title, it.Description, ownerID, it.CreatedAt.UTC(),
	)
	if err != nil {
		return storeErr(err)
	}
	it.ID = id

	d.notifyItems()
	return nil
}

// List returns items matching ownerID (all items when ownerID is empty),
// ordered by created_at descending. Ordering and filtering are delegated
// to the query; ties keep store-assigned order.
func (d *DB) List(ctx context.Context, ownerID string) ([]domain.Item, error) {
	const baseQuery = "SELECT id, title, description, COALESCE(owner_id, ''), created_at, updated_at FROM items"

	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == "" {
		rows, err = d.sql.QueryContext(ctx, baseQuery+" ORDER BY created_at DESC")
	} else {
		rows, err = d.sql.QueryContext(ctx, baseQuery+" WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var (
			it        domain.Item
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.OwnerID, &it.CreatedAt, &updatedAt); err != nil {
			return nil, storeErr(err)
		}
		if updatedAt.Valid {
			ts := updatedAt.Time
			it.UpdatedAt = &ts
		}
		out = append(out, it)
	}
	return out, storeErr(rows.Err())
}

// Update replaces an item's title and description. Owner and creation time
// are never touched.
func (d *DB) Update(ctx context.Context, id, title, description string, updatedAt time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE items SET title = $1, description = $2, updated_at = $3 WHERE id = $4",
		title, description, updatedAt.UTC(), id,
	)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewStoreError(domain.StoreNotFound, nil)
	}

	d.notifyItems()
	return nil
}

// Delete removes an item by id. Deleting an absent id is not an error.
func (d *DB) Delete(ctx context.Context, id string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return storeErr(err)
	}

	d.notifyItems()
	return nil
}

// Watch opens a LISTEN connection on the items channel and invokes fn for
// every notification until cancelled. A reconnect also triggers fn so that
// watchers refetch anything missed while disconnected.
func (d *DB) Watch(ctx context.Context, fn func()) (func(), error) {
	listener := pq.NewListener(d.connStr, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(itemsChannel); err != nil {
		_ = listener.Close()
		return nil, storeErr(err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-listener.Notify:
				// A nil notification marks a re-established connection;
				// either way the collection may have changed.
				fn()
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = listener.Close()
		})
	}, nil
}

func (d *DB) notifyItems() {
	// The mutation has already committed, so the signal must not die with
	// the request context. Delivery is still best effort; watchers
	// reconcile by refetching.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = d.sql.ExecContext(ctx, "SELECT pg_notify($1, '')", itemsChannel)
}
