package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/port"
)

// IngestService applies normalized report batches to the ledger with
// last-upload-wins semantics. It is the only writer of inventory state.
type IngestService struct {
	ledger port.LedgerRepository
	sims   port.SimRepository
	cache  port.CacheRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestService wires the engine to its storage ports. sims and cache
// may be nil: SIM sale marking and cache invalidation are then skipped.
func NewIngestService(ledger port.LedgerRepository, sims port.SimRepository, cache port.CacheRepository) *IngestService {
	return &IngestService{
		ledger: ledger,
		sims:   sims,
		cache:  cache,
		locks:  make(map[string]*sync.Mutex),
	}
}

// batchLock returns the mutex serializing ingests for one (agent, period).
// Concurrent uploads for the same key must not interleave the delete and
// append steps; distinct keys proceed in parallel. The map is never pruned:
// it holds one mutex per distinct key ever ingested, bounded by the number
// of agents times reporting days.
func (s *IngestService) batchLock(agentID, period string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := agentID + "|" + period
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// IngestSales applies one batch of sales rows for (agentID, period).
//
// Any previous batch for the same key is deleted first, even if the new
// batch is empty: a resubmission that fixes errors must not leave stale
// rows behind. Rows are then validated in input order against a running
// stock projection and the accepted set is journaled in one transaction.
// If that append fails the previous batch is already gone; callers must
// report "re-upload required", never partial success.
func (s *IngestService) IngestSales(ctx context.Context, agentID, period string, rows []domain.TransactionRow) (domain.OutcomeSummary, error) {
	lock := s.batchLock(agentID, period)
	lock.Lock()
	defer lock.Unlock()

	var summary domain.OutcomeSummary

	removed, err := s.ledger.DeleteBatch(ctx, agentID, period)
	if err != nil {
		return summary, fmt.Errorf("delete previous batch: %w", err)
	}
	if removed > 0 {
		log.Printf("ingest: replaced %d prior entries for agent=%s period=%s", removed, agentID, period)
	}

	batchID := uuid.New().String()
	appliedAt := time.Now()

	// Running projection per item type, seeded lazily from the ledger and
	// advanced by every accepted row so later rows in the batch see the
	// effect of earlier ones.
	projected := make(map[domain.ItemType]int)
	seenRefs := make(map[string]bool)
	var accepted []domain.JournalEntry
	var soldGSMs []string

	for i, row := range rows {
		refKey := string(row.ItemType) + "|" + row.ExternalRef
		if row.ExternalRef != "" {
			if seenRefs[refKey] {
				summary.DuplicatesSkipped++
				summary.Reasons = append(summary.Reasons, fmt.Sprintf("row %d: duplicate ref %s", i+1, row.ExternalRef))
				continue
			}
			exists, err := s.ledger.FindExternalRef(ctx, agentID, row.ItemType, row.ExternalRef)
			if err != nil {
				return summary, fmt.Errorf("duplicate check: %w", err)
			}
			if exists {
				summary.DuplicatesSkipped++
				summary.Reasons = append(summary.Reasons, fmt.Sprintf("row %d: duplicate ref %s", i+1, row.ExternalRef))
				continue
			}
		}

		avail, ok := projected[row.ItemType]
		if !ok {
			avail, err = s.ledger.GetQuantity(ctx, agentID, row.ItemType)
			if err != nil {
				return summary, fmt.Errorf("read quantity: %w", err)
			}
			projected[row.ItemType] = avail
		}

		if row.QuantityDelta < 0 && avail+row.QuantityDelta < 0 {
			summary.InsufficientSkipped++
			summary.Reasons = append(summary.Reasons, fmt.Sprintf("row %d: %s insufficient stock %d < %d", i+1, row.ItemType, avail, -row.QuantityDelta))
			continue
		}

		projected[row.ItemType] = avail + row.QuantityDelta
		if row.ExternalRef != "" {
			seenRefs[refKey] = true
		}
		accepted = append(accepted, domain.JournalEntry{
			AgentID:       agentID,
			Period:        period,
			ItemType:      row.ItemType,
			QuantityDelta: row.QuantityDelta,
			ExternalRef:   row.ExternalRef,
			BatchID:       batchID,
			AppliedAt:     appliedAt,
		})
		if row.ItemType == domain.ItemSIM && row.ExternalRef != "" {
			soldGSMs = append(soldGSMs, row.ExternalRef)
		}
		summary.Inserted++
	}

	if len(accepted) > 0 {
		if err := s.ledger.AppendJournal(ctx, accepted); err != nil {
			return domain.OutcomeSummary{}, fmt.Errorf("append journal: %w", err)
		}
	}

	s.markSold(ctx, soldGSMs)
	s.invalidate(ctx, agentID)

	summary.Skipped = summary.DuplicatesSkipped + summary.InsufficientSkipped
	log.Printf("ingest: agent=%s period=%s batch=%s inserted=%d dup=%d insufficient=%d",
		agentID, period, batchID, summary.Inserted, summary.DuplicatesSkipped, summary.InsufficientSkipped)
	return summary, nil
}

// replenishPeriodPrefix reserves a period keyspace for backoffice credits.
// DeleteBatch removes by (agent, period), so a replenishment journaled under
// a plain date would be swept by a same-day report re-upload.
const replenishPeriodPrefix = "replenish:"

// Replenish credits qty units to an agent outside any report batch, for
// example a backoffice transfer. The entry joins the journal under a
// reserved period so the conservation invariant keeps holding and report
// re-uploads can never sweep it.
func (s *IngestService) Replenish(ctx context.Context, agentID string, itemType domain.ItemType, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("replenish quantity must be positive, got %d", qty)
	}
	entry := domain.JournalEntry{
		AgentID:       agentID,
		Period:        replenishPeriodPrefix + time.Now().Format("2006-01-02"),
		ItemType:      itemType,
		QuantityDelta: qty,
		BatchID:       uuid.New().String(),
		AppliedAt:     time.Now(),
	}
	if err := s.ledger.AppendJournal(ctx, []domain.JournalEntry{entry}); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	s.invalidate(ctx, agentID)
	return nil
}

// DeleteBatch removes a previously ingested batch and reverses its effect.
// Exposed for the admin correction flow.
func (s *IngestService) DeleteBatch(ctx context.Context, agentID, period string) (int, error) {
	lock := s.batchLock(agentID, period)
	lock.Lock()
	defer lock.Unlock()

	removed, err := s.ledger.DeleteBatch(ctx, agentID, period)
	if err != nil {
		return 0, fmt.Errorf("delete batch: %w", err)
	}
	s.invalidate(ctx, agentID)
	return removed, nil
}

// markSold updates the SIM registry for GSMs sold in this batch.
// Best-effort: a GSM missing from the registry is not an error.
func (s *IngestService) markSold(ctx context.Context, gsms []string) {
	if s.sims == nil {
		return
	}
	for _, gsm := range gsms {
		if _, err := s.sims.MarkSold(ctx, gsm); err != nil {
			log.Printf("ingest: mark sold %s: %v", gsm, err)
		}
	}
}

func (s *IngestService) invalidate(ctx context.Context, agentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAgent(ctx, agentID); err != nil {
		log.Printf("ingest: cache invalidate agent=%s: %v", agentID, err)
	}
}
