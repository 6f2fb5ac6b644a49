package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("order: invalid request")
	ErrInsufficientStock = errors.New("order: insufficient stock")
	ErrStoreUnavailable  = errors.New("store: unavailable")
	ErrItemNotFound      = errors.New("inventory: item not found")
	ErrOrderNotFound     = errors.New("order: not found")
)

// StockError names the first line item that could not be satisfied.
// errors.Is(err, ErrInsufficientStock) matches it.
type StockError struct {
	ItemID int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d", e.ItemID)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
