package excel

import (
	"fmt"
	"strings"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

var (
	cartonAliases    = []string{"carton #", "carton", "carton_no", "carton no"}
	boxAliases       = []string{"box #", "box", "box_no", "box no"}
	pickupGSMAliases = []string{"gsm number", "gsm_number", "gsm", "number"}
	iccidAliases     = []string{"iccid", "iccid number", "iccid_no"}
	simTypeAliases   = []string{"type", "sim type", "sim_type"}
)

// NormalizePickup parses a pickup-list workbook into SIM cards destined for
// the registry. Rows without a GSM number are dropped silently, matching how
// warehouses pad these sheets with empty lines. note is attached to every
// card, typically the source filename.
func NormalizePickup(data []byte, note string) ([]domain.SimCard, error) {
	sheet, err := readFirstSheet(data)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(sheet) == 0 {
		return nil, nil
	}

	cols := headerIndex(sheet[0])
	cartonCol := findColumn(cols, cartonAliases)
	boxCol := findColumn(cols, boxAliases)
	gsmCol := findColumn(cols, pickupGSMAliases)
	iccidCol := findColumn(cols, iccidAliases)
	typeCol := findColumn(cols, simTypeAliases)

	var cards []domain.SimCard
	for _, rec := range sheet[1:] {
		gsm := cleanGSM(cell(rec, gsmCol))
		if gsm == "" {
			continue
		}
		cards = append(cards, domain.SimCard{
			CartonNo: strings.TrimSpace(cell(rec, cartonCol)),
			BoxNo:    strings.TrimSpace(cell(rec, boxCol)),
			GSM:      gsm,
			ICCID:    strings.TrimSpace(cell(rec, iccidCol)),
			SimType:  strings.TrimSpace(cell(rec, typeCol)),
			Location: domain.LocationBackoffice,
			Status:   domain.SimStatusInStock,
			Note:     note,
		})
	}
	return cards, nil
}
