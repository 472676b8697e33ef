package service

import (
	"context"
	"fmt"
	"log"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/port"
)

// StockService is the read side: per-agent levels and fleet totals, with a
// read-through quantity cache in front of the ledger.
type StockService struct {
	ledger port.LedgerRepository
	cache  port.CacheRepository
}

func NewStockService(ledger port.LedgerRepository, cache port.CacheRepository) *StockService {
	return &StockService{ledger: ledger, cache: cache}
}

// Quantity returns current materialized stock for one (agent, item) pair,
// served from cache when possible.
func (s *StockService) Quantity(ctx context.Context, agentID string, itemType domain.ItemType) (int, error) {
	if s.cache != nil {
		qty, hit, err := s.cache.GetQuantity(ctx, agentID, itemType)
		if err != nil {
			log.Printf("stock: cache read agent=%s item=%s: %v", agentID, itemType, err)
		} else if hit {
			return qty, nil
		}
	}

	qty, err := s.ledger.GetQuantity(ctx, agentID, itemType)
	if err != nil {
		return 0, fmt.Errorf("read quantity: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetQuantity(ctx, agentID, itemType, qty); err != nil {
			log.Printf("stock: cache write agent=%s item=%s: %v", agentID, itemType, err)
		}
	}
	return qty, nil
}

// Levels returns all materialized levels for one agent, straight from the
// ledger.
func (s *StockService) Levels(ctx context.Context, agentID string) ([]domain.InventoryLevel, error) {
	return s.ledger.GetLevels(ctx, agentID)
}

// Summary returns fleet-wide totals per item type.
func (s *StockService) Summary(ctx context.Context) (map[domain.ItemType]int, error) {
	return s.ledger.SumLevels(ctx)
}
