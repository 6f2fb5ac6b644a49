package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

// OrderService sequences the transaction engine and the broadcast hub.
// Events go out strictly after the underlying transaction has committed;
// a failed order publishes nothing.
type OrderService struct {
	engine    *Engine
	publisher port.EventPublisher
	log       *zap.Logger
}

func NewOrderService(engine *Engine, publisher port.EventPublisher, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		engine:    engine,
		publisher: publisher,
		log:       log.With(zap.String("component", "order_service")),
	}
}

// SubmitOrder places the order and, on success, broadcasts one
// order_placed event followed by one inventory_update per distinct item.
func (s *OrderService) SubmitOrder(ctx context.Context, userID int64, lines []LineRequest) (*domain.Order, error) {
	order, err := s.engine.PlaceOrder(ctx, userID, lines, func(o *domain.Order, updated []domain.InventoryItem) {
		s.publisher.Publish(ctx, domain.NewOrderPlacedEvent(o))
		for _, item := range updated {
			s.publisher.Publish(ctx, domain.NewInventoryUpdatedEvent(item))
		}
	})
	if err != nil {
		s.log.Warn("order_rejected",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("order_placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("total", order.TotalAmount.String()),
	)
	return order, nil
}
