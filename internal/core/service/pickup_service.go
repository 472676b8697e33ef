package service

import (
	"context"
	"fmt"
	"log"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/port"
)

// PickupService ingests pickup lists into the SIM registry. Duplicate GSM
// numbers are skipped, everything else is inserted; there is no stock
// invariant on this path.
type PickupService struct {
	sims port.SimRepository
}

func NewPickupService(sims port.SimRepository) *PickupService {
	return &PickupService{sims: sims}
}

func (s *PickupService) IngestPickup(ctx context.Context, cards []domain.SimCard) (domain.PickupSummary, error) {
	var summary domain.PickupSummary
	for _, card := range cards {
		if card.GSM == "" {
			summary.Errors = append(summary.Errors, "card without GSM number")
			continue
		}
		if card.Location == "" {
			card.Location = domain.LocationBackoffice
		}
		if card.Status == "" {
			card.Status = domain.SimStatusInStock
		}
		inserted, err := s.sims.InsertSim(ctx, card)
		if err != nil {
			return summary, fmt.Errorf("insert sim %s: %w", card.GSM, err)
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.DuplicatesSkipped++
		}
	}
	log.Printf("pickup: inserted=%d duplicates=%d", summary.Inserted, summary.DuplicatesSkipped)
	return summary, nil
}

// SimStatusByGSM returns the registry record for one GSM, or nil.
func (s *PickupService) SimStatusByGSM(ctx context.Context, gsm string) (*domain.SimCard, error) {
	return s.sims.GetByGSM(ctx, gsm)
}

// SimStatusByBox aggregates status counts for a box.
func (s *PickupService) SimStatusByBox(ctx context.Context, boxNo string) (map[domain.SimStatus]int, error) {
	return s.sims.CountByStatus(ctx, "box_no", boxNo)
}

// SimStatusByCarton aggregates status counts for a carton.
func (s *PickupService) SimStatusByCarton(ctx context.Context, cartonNo string) (map[domain.SimStatus]int, error) {
	return s.sims.CountByStatus(ctx, "carton_no", cartonNo)
}
