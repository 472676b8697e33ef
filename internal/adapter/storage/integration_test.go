package storage

import (
	"context"
	"testing"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/core/service"
)

// End-to-end: the engine running over the real SQL adapter.

func TestEngineOverSQLite_ScenarioAndConservation(t *testing.T) {
	adapter := NewSQLAdapter(openTestDB(t))
	engine := service.NewIngestService(adapter, adapter, nil)
	ctx := context.Background()

	if err := engine.Replenish(ctx, "agentA", domain.ItemSIM, 10); err != nil {
		t.Fatalf("replenish failed: %v", err)
	}

	rows := []domain.TransactionRow{
		{AgentID: "agentA", Period: "2025-10-31", ItemType: domain.ItemSIM, QuantityDelta: -3, ExternalRef: "r1"},
		{AgentID: "agentA", Period: "2025-10-31", ItemType: domain.ItemSIM, QuantityDelta: -8, ExternalRef: "r2"},
		{AgentID: "agentA", Period: "2025-10-31", ItemType: domain.ItemSIM, QuantityDelta: -3, ExternalRef: "r1"},
	}
	summary, err := engine.IngestSales(ctx, "agentA", "2025-10-31", rows)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if summary.Inserted != 1 || summary.InsufficientSkipped != 1 || summary.DuplicatesSkipped != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	qty, _ := adapter.GetQuantity(ctx, "agentA", domain.ItemSIM)
	if qty != 7 {
		t.Errorf("expected quantity 7, got %d", qty)
	}

	// conservation across replenish + batch
	var sum int
	for _, period := range []string{"2025-10-31"} {
		entries, _ := adapter.JournalForBatch(ctx, "agentA", period)
		for _, e := range entries {
			if e.ItemType == domain.ItemSIM {
				sum += e.QuantityDelta
			}
		}
	}
	// plus the replenish entry written under its reserved period
	totals, _ := adapter.SumLevels(ctx)
	if totals[domain.ItemSIM] != 7 {
		t.Errorf("expected materialized total 7, got %d", totals[domain.ItemSIM])
	}
	if sum != -3 {
		t.Errorf("expected batch delta sum -3, got %d", sum)
	}
}

func TestEngineOverSQLite_LastUploadWinsAndSimMarking(t *testing.T) {
	adapter := NewSQLAdapter(openTestDB(t))
	engine := service.NewIngestService(adapter, adapter, nil)
	ctx := context.Background()

	if err := engine.Replenish(ctx, "u1", domain.ItemSIM, 5); err != nil {
		t.Fatalf("replenish failed: %v", err)
	}
	if _, err := adapter.InsertSim(ctx, domain.SimCard{
		GSM: "750000200", Location: domain.LocationBackoffice, Status: domain.SimStatusInStock,
	}); err != nil {
		t.Fatalf("insert sim failed: %v", err)
	}

	date := "2025-11-01"
	first := []domain.TransactionRow{
		{AgentID: "u1", Period: date, ItemType: domain.ItemSIM, QuantityDelta: -1, ExternalRef: "750000200"},
		{AgentID: "u1", Period: date, ItemType: domain.ItemSIM, QuantityDelta: -1, ExternalRef: "750000201"},
	}
	if _, err := engine.IngestSales(ctx, "u1", date, first); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	card, _ := adapter.GetByGSM(ctx, "750000200")
	if card == nil || card.Status != domain.SimStatusSold {
		t.Errorf("expected registered SIM marked sold, got %+v", card)
	}

	second := []domain.TransactionRow{
		{AgentID: "u1", Period: date, ItemType: domain.ItemSIM, QuantityDelta: -1, ExternalRef: "750000200"},
	}
	summary, err := engine.IngestSales(ctx, "u1", date, second)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if summary.Inserted != 1 || summary.DuplicatesSkipped != 0 {
		t.Errorf("re-upload must not self-collide: %+v", summary)
	}

	entries, _ := adapter.JournalForBatch(ctx, "u1", date)
	if len(entries) != 1 || entries[0].ExternalRef != "750000200" {
		t.Errorf("expected only second batch in journal, got %+v", entries)
	}
	qty, _ := adapter.GetQuantity(ctx, "u1", domain.ItemSIM)
	if qty != 4 {
		t.Errorf("expected quantity 4 after replacement, got %d", qty)
	}
}
