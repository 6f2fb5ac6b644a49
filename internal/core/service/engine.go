package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

// LineRequest is one (item, quantity) pair of an incoming order.
type LineRequest struct {
	InventoryID int64
	Quantity    int
}

// Engine validates and applies an order against the store as a single
// atomic unit. Either every line is decremented and the order persisted,
// or nothing changes.
type Engine struct {
	store port.InventoryStore
	log   *zap.Logger

	// commitMu serializes commit together with the post-commit callback,
	// so events enter the hub queue in commit order.
	commitMu sync.Mutex
}

func NewEngine(store port.InventoryStore, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store: store,
		log:   log.With(zap.String("component", "order_engine")),
	}
}

// PlaceOrder runs the order transaction. Lines are checked and decremented
// in ascending inventory id regardless of request order, so concurrent
// orders over overlapping item sets cannot deadlock on lock ordering.
// committed, when non-nil, runs after a successful commit while the engine
// still holds its commit-ordering lock; it must be fast and must not call
// back into the engine.
func (e *Engine) PlaceOrder(
	ctx context.Context,
	userID int64,
	lines []LineRequest,
	committed func(order *domain.Order, updated []domain.InventoryItem),
) (*domain.Order, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	byID := append([]LineRequest(nil), lines...)
	sort.Slice(byID, func(i, j int) bool { return byID[i].InventoryID < byID[j].InventoryID })

	tx, err := e.store.BeginOrderTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	// Availability pass: read every line under the transaction before
	// touching any stock, so a failing line leaves all inventory unchanged.
	items := make(map[int64]*domain.InventoryItem, len(byID))
	for _, ln := range byID {
		item, err := tx.ItemForUpdate(ctx, ln.InventoryID)
		if err != nil {
			if errors.Is(err, domain.ErrItemNotFound) {
				return nil, fmt.Errorf("%w: unknown inventory id %d", domain.ErrInvalidRequest, ln.InventoryID)
			}
			return nil, fmt.Errorf("read item %d: %w", ln.InventoryID, err)
		}
		if item.StockQuantity < ln.Quantity {
			return nil, &domain.StockError{ItemID: ln.InventoryID}
		}
		items[ln.InventoryID] = item
	}

	updated := make([]domain.InventoryItem, 0, len(byID))
	for _, ln := range byID {
		newQty, err := tx.DecrementStock(ctx, ln.InventoryID, ln.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement item %d: %w", ln.InventoryID, err)
		}
		item := items[ln.InventoryID]
		item.StockQuantity = newQty
		updated = append(updated, *item)
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	total := decimal.Zero
	for _, ln := range lines { // order lines keep the caller's sequence
		item := items[ln.InventoryID]
		line := domain.OrderLine{
			InventoryID: item.ID,
			Name:        item.Name,
			Quantity:    ln.Quantity,
			UnitPrice:   item.Price,
		}
		total = total.Add(line.Subtotal())
		orderLines = append(orderLines, line)
	}

	order := &domain.Order{
		UserID:      userID,
		Lines:       orderLines,
		TotalAmount: total,
		Status:      domain.OrderStatusConfirmed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	e.commitMu.Lock()
	err = tx.Commit()
	if err == nil {
		done = true
		if committed != nil {
			committed(order, updated)
		}
	}
	e.commitMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	e.log.Debug("order_committed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int("lines", len(orderLines)),
	)
	return order, nil
}

func validateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no line items", domain.ErrInvalidRequest)
	}
	seen := make(map[int64]struct{}, len(lines))
	for _, ln := range lines {
		if ln.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1 for item %d", domain.ErrInvalidRequest, ln.InventoryID)
		}
		if _, dup := seen[ln.InventoryID]; dup {
			return fmt.Errorf("%w: duplicate inventory id %d", domain.ErrInvalidRequest, ln.InventoryID)
		}
		seen[ln.InventoryID] = struct{}{}
	}
	return nil
}
