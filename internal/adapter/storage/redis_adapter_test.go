package storage

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

func getRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return rdb
}

func TestRedisAdapter_SetGetInvalidate(t *testing.T) {
	rdb := getRedis(t)
	defer rdb.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(rdb)
	agentID := "test-agent-cache"

	// start clean
	adapter.InvalidateAgent(ctx, agentID)

	if _, hit, err := adapter.GetQuantity(ctx, agentID, domain.ItemSIM); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	if err := adapter.SetQuantity(ctx, agentID, domain.ItemSIM, 12); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	qty, hit, err := adapter.GetQuantity(ctx, agentID, domain.ItemSIM)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !hit || qty != 12 {
		t.Errorf("expected hit with 12, got hit=%v qty=%d", hit, qty)
	}

	if err := adapter.InvalidateAgent(ctx, agentID); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, hit, _ := adapter.GetQuantity(ctx, agentID, domain.ItemSIM); hit {
		t.Error("expected miss after invalidation")
	}
}
