package port

import (
	"context"

	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
)

// EventPublisher fans a committed domain event out to every connected
// subscriber. Delivery failures are a subscriber-local concern and are
// never surfaced to the publisher.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.DomainEvent)
}
