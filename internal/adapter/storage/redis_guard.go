package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestKeyPrefix = "workbox:request:"
	requestKeyTTL    = 24 * time.Hour
)

// RedisGuard suppresses duplicate order submissions by request id using a
// SETNX key with a TTL.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) FirstSeen(ctx context.Context, requestID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, requestKeyPrefix+requestID, 1, requestKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
