package domain

import "time"

// InventoryLevel is the materialized stock for one (agent, item type) pair.
// It is a cache over the journal: quantity must always equal the signed sum
// of journal deltas for the pair.
type InventoryLevel struct {
	AgentID   string
	ItemType  ItemType
	Quantity  int
	UpdatedAt time.Time
}

// TransactionRow is one normalized report line. Negative QuantityDelta is a
// sale (consumption), positive is replenishment. ExternalRef is the business
// key for duplicate detection (GSM number for SIM/SWAP rows); rows without a
// ref, such as credit top-up counts, are never duplicate-checked.
type TransactionRow struct {
	AgentID       string
	Period        string
	ItemType      ItemType
	QuantityDelta int
	ExternalRef   string
	ContactNumber string
	RechargeAmt   float64
	Notes         string
}

// JournalEntry is the immutable record of one applied row. The journal is
// append-only and is the source of truth for inventory quantities.
type JournalEntry struct {
	ID            int64
	AgentID       string
	Period        string
	ItemType      ItemType
	QuantityDelta int
	ExternalRef   string
	BatchID       string
	AppliedAt     time.Time
}

// Batch is the unit of ingestion: every row reported by one agent for one
// period. A batch fully supersedes any earlier batch for the same key.
type Batch struct {
	AgentID string
	Period  string
	Rows    []TransactionRow
}

// OutcomeSummary reports what happened to a batch. Skipped is always
// DuplicatesSkipped + InsufficientSkipped; Reasons carries per-row skip
// descriptions for the caller to render.
type OutcomeSummary struct {
	Inserted            int      `json:"inserted"`
	DuplicatesSkipped   int      `json:"duplicates_skipped"`
	InsufficientSkipped int      `json:"insufficient_skipped"`
	Skipped             int      `json:"skipped"`
	Reasons             []string `json:"reasons,omitempty"`
}
