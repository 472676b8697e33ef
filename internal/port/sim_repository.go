package port

import (
	"context"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

// SimRepository holds the SIM registry populated from pickup lists,
// keyed uniquely by GSM number.
type SimRepository interface {
	// InsertSim inserts one card; returns false without error when the GSM
	// number is already registered.
	InsertSim(ctx context.Context, card domain.SimCard) (bool, error)

	// MarkSold flags a registered SIM as sold. Returns false when the GSM
	// is not in the registry.
	MarkSold(ctx context.Context, gsm string) (bool, error)

	GetByGSM(ctx context.Context, gsm string) (*domain.SimCard, error)

	// CountByStatus aggregates card counts per status for one box or carton.
	// field is "box_no" or "carton_no".
	CountByStatus(ctx context.Context, field, value string) (map[domain.SimStatus]int, error)
}
