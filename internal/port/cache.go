package port

import "context"

// IdempotencyGuard suppresses duplicate submissions at the request edge.
type IdempotencyGuard interface {
	// FirstSeen records the request id and returns false if it was
	// already recorded.
	FirstSeen(ctx context.Context, requestID string) (bool, error)
}
