package port

import (
	"context"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

// LedgerRepository owns all durable inventory state: materialized quantities
// plus the append-only journal they derive from.
type LedgerRepository interface {
	// GetQuantity returns current materialized stock; zero for a pair that
	// has never been referenced. Never negative.
	GetQuantity(ctx context.Context, agentID string, itemType domain.ItemType) (int, error)

	// AppendJournal durably persists entries and updates materialized
	// quantities in the same transaction. All-or-nothing across the set.
	AppendJournal(ctx context.Context, entries []domain.JournalEntry) error

	// DeleteBatch removes every journal entry for (agentID, period) and
	// reverses their effect on materialized quantities, atomically.
	// Returns the number of entries removed.
	DeleteBatch(ctx context.Context, agentID, period string) (int, error)

	// FindExternalRef reports whether ref is already journaled for the
	// (agentID, itemType) scope in current ledger state.
	FindExternalRef(ctx context.Context, agentID string, itemType domain.ItemType, ref string) (bool, error)

	// GetLevels returns all materialized levels for one agent.
	GetLevels(ctx context.Context, agentID string) ([]domain.InventoryLevel, error)

	// SumLevels returns fleet-wide totals per item type.
	SumLevels(ctx context.Context) (map[domain.ItemType]int, error)

	// JournalForBatch returns the journal entries for (agentID, period),
	// oldest first.
	JournalForBatch(ctx context.Context, agentID, period string) ([]domain.JournalEntry, error)
}

// RegsRepository stores the daily registration count reported alongside a
// sales upload, one row per (agent, period), last upload wins.
type RegsRepository interface {
	UpsertDailyRegs(ctx context.Context, agentID, period string, count int) error
	SumRegsBetween(ctx context.Context, start, end string) (map[string]int, error)
}
