package port

import (
	"context"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
)

// InventoryStore is the transactional persistence boundary for inventory
// and orders. Implementations must guarantee that concurrent order
// transactions touching the same item serialize their stock checks and
// decrements; the mechanism (row locks, single-writer) is theirs to choose.
type InventoryStore interface {
	// BeginOrderTx opens a transaction scoped to one order placement.
	BeginOrderTx(ctx context.Context) (OrderTx, error)

	// GetItem reads current committed state of one item.
	GetItem(ctx context.Context, itemID int64) (*domain.InventoryItem, error)

	// ListItems reads a page of items ordered by id.
	ListItems(ctx context.Context, offset, limit int) ([]domain.InventoryItem, error)

	// CreateItem persists a new item and assigns its id.
	CreateItem(ctx context.Context, item *domain.InventoryItem) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// OrderTx is a single order-placement transaction. Not safe for concurrent
// use. Exactly one of Commit or Rollback must be called; Rollback after a
// successful Commit is a no-op.
type OrderTx interface {
	// ItemForUpdate reads an item with its row held for update, never stale
	// relative to already-committed transactions.
	ItemForUpdate(ctx context.Context, itemID int64) (*domain.InventoryItem, error)

	// DecrementStock applies a decrement visible on commit and returns the
	// resulting quantity. Returns a *domain.StockError if quantity exceeds
	// current stock.
	DecrementStock(ctx context.Context, itemID int64, quantity int) (int, error)

	// CreateOrder persists the order and its lines and assigns the order id.
	CreateOrder(ctx context.Context, order *domain.Order) error

	Commit() error
	Rollback() error
}
