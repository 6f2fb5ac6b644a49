package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine captures the unit price at order time; it is a snapshot and
// must not be recomputed from current inventory after creation.
type OrderLine struct {
	InventoryID int64
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID          int64
	UserID      int64
	Lines       []OrderLine
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
}
