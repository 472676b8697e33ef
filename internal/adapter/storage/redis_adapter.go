package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

const (
	levelKeyPrefix = "level:"
	levelTTL       = 12 * time.Hour
)

// RedisAdapter caches materialized quantities per (agent, item type). The
// ledger stays authoritative; writers invalidate the whole agent scope.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func levelKey(agentID string, itemType domain.ItemType) string {
	return levelKeyPrefix + agentID + ":" + string(itemType)
}

func (r *RedisAdapter) GetQuantity(ctx context.Context, agentID string, itemType domain.ItemType) (int, bool, error) {
	qty, err := r.client.Get(ctx, levelKey(agentID, itemType)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, agentID string, itemType domain.ItemType, quantity int) error {
	return r.client.Set(ctx, levelKey(agentID, itemType), quantity, levelTTL).Err()
}

func (r *RedisAdapter) InvalidateAgent(ctx context.Context, agentID string) error {
	types := domain.AllItemTypes()
	keys := make([]string, 0, len(types))
	for _, it := range types {
		keys = append(keys, levelKey(agentID, it))
	}
	return r.client.Del(ctx, keys...).Err()
}
