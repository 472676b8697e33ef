package port

import (
	"context"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

// CacheRepository is a read-side cache over materialized quantities. The
// ledger remains authoritative; every write path invalidates the agent's
// cached levels.
type CacheRepository interface {
	// GetQuantity returns (quantity, true) on a cache hit.
	GetQuantity(ctx context.Context, agentID string, itemType domain.ItemType) (int, bool, error)

	SetQuantity(ctx context.Context, agentID string, itemType domain.ItemType, quantity int) error

	// InvalidateAgent drops every cached level for the agent.
	InvalidateAgent(ctx context.Context, agentID string) error
}
