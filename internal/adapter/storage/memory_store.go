package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

// MemoryStore is an in-process InventoryStore. Order transactions are
// serialized by a single writer lock: BeginOrderTx blocks until the
// previous transaction commits or rolls back, which trivially satisfies
// the isolation contract.
type MemoryStore struct {
	txMu sync.Mutex // held for the lifetime of one order transaction

	mu          sync.RWMutex
	items       map[int64]*domain.InventoryItem
	orders      map[int64]*domain.Order
	nextItemID  int64
	nextOrderID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]*domain.InventoryItem),
		orders: make(map[int64]*domain.Order),
	}
}

func (s *MemoryStore) BeginOrderTx(ctx context.Context) (port.OrderTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &memoryOrderTx{
		store:   s,
		pending: make(map[int64]int),
	}, nil
}

func (s *MemoryStore) GetItem(ctx context.Context, itemID int64) (*domain.InventoryItem, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (s *MemoryStore) ListItems(ctx context.Context, offset, limit int) ([]domain.InventoryItem, error) {
	_ = ctx

	s.mu.RLock()
	all := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		all = append(all, *cloneItem(item))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []domain.InventoryItem{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = cloneItem(item)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// OrderCount reports the number of committed orders. Used by tests and the
// stress driver.
func (s *MemoryStore) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

type memoryOrderTx struct {
	store   *MemoryStore
	pending map[int64]int // itemID -> decrement applied on commit
	order   *domain.Order
	done    bool
}

func (tx *memoryOrderTx) ItemForUpdate(ctx context.Context, itemID int64) (*domain.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx.store.mu.RLock()
	item, ok := tx.store.items[itemID]
	if !ok {
		tx.store.mu.RUnlock()
		return nil, domain.ErrItemNotFound
	}
	out := cloneItem(item)
	tx.store.mu.RUnlock()

	out.StockQuantity -= tx.pending[itemID]
	return out, nil
}

func (tx *memoryOrderTx) DecrementStock(ctx context.Context, itemID int64, quantity int) (int, error) {
	item, err := tx.ItemForUpdate(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if quantity > item.StockQuantity {
		return 0, &domain.StockError{ItemID: itemID}
	}
	tx.pending[itemID] += quantity
	return item.StockQuantity - quantity, nil
}

func (tx *memoryOrderTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.store.mu.Lock()
	tx.store.nextOrderID++
	order.ID = tx.store.nextOrderID
	tx.store.mu.Unlock()

	tx.order = cloneOrder(order)
	return nil
}

func (tx *memoryOrderTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true

	now := time.Now().UTC()
	tx.store.mu.Lock()
	for itemID, qty := range tx.pending {
		if item, ok := tx.store.items[itemID]; ok {
			item.StockQuantity -= qty
			item.UpdatedAt = now
		}
	}
	if tx.order != nil {
		tx.store.orders[tx.order.ID] = tx.order
	}
	tx.store.mu.Unlock()

	tx.store.txMu.Unlock()
	return nil
}

func (tx *memoryOrderTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.txMu.Unlock()
	return nil
}

func cloneItem(item *domain.InventoryItem) *domain.InventoryItem {
	if item == nil {
		return nil
	}
	clone := *item
	return &clone
}

func cloneOrder(order *domain.Order) *domain.Order {
	if order == nil {
		return nil
	}
	clone := *order
	clone.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return &clone
}
