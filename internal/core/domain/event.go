package domain

import "github.com/shopspring/decimal"

func init() {
	// Wire amounts are plain JSON numbers, matching what clients parse.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	EventInventoryUpdated = "inventory_update"
	EventOrderPlaced      = "order_placed"
)

// DomainEvent is a broadcast-ready fact about committed state. Events are
// immutable once constructed and marshal directly to the wire format.
type DomainEvent interface {
	EventName() string
}

type InventoryUpdatedEvent struct {
	Type          string          `json:"type"`
	InventoryID   int64           `json:"inventory_id"`
	Name          string          `json:"name"`
	StockQuantity int             `json:"stock_quantity"`
	Price         decimal.Decimal `json:"price"`
}

func (InventoryUpdatedEvent) EventName() string { return EventInventoryUpdated }

func NewInventoryUpdatedEvent(item InventoryItem) InventoryUpdatedEvent {
	return InventoryUpdatedEvent{
		Type:          EventInventoryUpdated,
		InventoryID:   item.ID,
		Name:          item.Name,
		StockQuantity: item.StockQuantity,
		Price:         item.Price,
	}
}

type OrderPlacedItem struct {
	InventoryID int64           `json:"inventory_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderPlacedEvent struct {
	Type        string            `json:"type"`
	OrderID     int64             `json:"order_id"`
	UserID      int64             `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedItem `json:"items"`
}

func (OrderPlacedEvent) EventName() string { return EventOrderPlaced }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(o.Lines))
	for _, line := range o.Lines {
		items = append(items, OrderPlacedItem{
			InventoryID: line.InventoryID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return OrderPlacedEvent{
		Type:        EventOrderPlaced,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Items:       items,
	}
}
