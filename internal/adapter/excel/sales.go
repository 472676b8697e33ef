// Package excel parses uploaded report workbooks into normalized domain rows.
// Parsing never fails a whole upload over a bad row: invalid rows are excluded
// and reported back as row-level errors.
package excel

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

var (
	numberAliases   = []string{"number", "qty", "quantity"}
	rechargeAliases = []string{"recharge", "amount", "recharge_amount"}
	itemAliases     = []string{"item_code", "item code", "item", "code"}
	gsmAliases      = []string{"gsm number", "gsm_number", "gsm", "msisdn"}
	credit50Aliases = []string{"credit50", "credit_50", "credit-50"}
	credit100Alias  = []string{"credit100", "credit_100", "credit-100"}
	notesAliases    = []string{"notes", "remark", "remarks"}
	contactAliases  = []string{"contact_number", "contact number", "contact", "phone number", "phone"}
)

var digitsRe = regexp.MustCompile(`\D`)
var firstIntRe = regexp.MustCompile(`(\d+)`)

// gsmLength is the exact digit count a valid GSM number must have.
const gsmLength = 9

// NormalizeSales parses a sales workbook into transaction rows for one
// (agent, period). Returns the rows, per-row error strings for everything
// excluded, and the daily registration count extracted from the first Notes
// cell. A workbook without a Number column fails entirely, since that column
// carries the GSM identifiers.
func NormalizeSales(data []byte, period, agentID string) ([]domain.TransactionRow, []string, int) {
	sheet, err := readFirstSheet(data)
	if err != nil {
		return nil, []string{fmt.Sprintf("failed to read workbook: %v", err)}, 0
	}
	if len(sheet) == 0 {
		return nil, []string{"workbook has no rows"}, 0
	}

	cols := headerIndex(sheet[0])
	numberCol := findColumn(cols, numberAliases)
	itemCol := findColumn(cols, itemAliases)
	gsmCol := findColumn(cols, gsmAliases)
	rechargeCol := findColumn(cols, rechargeAliases)
	credit50Col := findColumn(cols, credit50Aliases)
	credit100Col := findColumn(cols, credit100Alias)
	notesCol := findColumn(cols, notesAliases)
	contactCol := findColumn(cols, contactAliases)

	if numberCol < 0 {
		return nil, []string{"missing Number column (used for GSM mobile numbers)"}, 0
	}

	dailyRegs := 0
	if notesCol >= 0 && len(sheet) > 1 {
		dailyRegs = extractFirstInt(cell(sheet[1], notesCol))
	}

	var rows []domain.TransactionRow
	var rowErrors []string

	for i, rec := range sheet[1:] {
		rowNum := i + 2 // 1-based with header row

		rawItem := strings.TrimSpace(cell(rec, itemCol))
		itemType, itemKnown := domain.ResolveItemType(rawItem)
		gsm := cleanGSM(cell(rec, gsmCol))
		if gsm == "" {
			gsm = cleanGSM(cell(rec, numberCol))
		}
		recharge := parseFloat(cell(rec, rechargeCol))
		credit50 := parseCount(cell(rec, credit50Col))
		credit100 := parseCount(cell(rec, credit100Col))
		notes := strings.TrimSpace(cell(rec, notesCol))
		contact := strings.TrimSpace(cell(rec, contactCol))

		base := domain.TransactionRow{
			AgentID:       agentID,
			Period:        period,
			ContactNumber: contact,
			RechargeAmt:   recharge,
			Notes:         notes,
		}

		switch {
		case itemKnown && (itemType == domain.ItemSIM || itemType == domain.ItemSwap):
			if gsm == "" {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d skipped: missing or invalid GSM number", rowNum))
				continue
			}
			if len(gsm) != gsmLength {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d skipped: GSM value %q must be exactly %d digits", rowNum, gsm, gsmLength))
				continue
			}
			row := base
			row.ItemType = itemType
			row.QuantityDelta = -1
			row.ExternalRef = gsm
			rows = append(rows, row)

		case itemKnown && itemType == domain.ItemCredit50:
			count := credit50
			if count <= 0 {
				count = parseCount(cell(rec, numberCol))
			}
			if count <= 0 {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d skipped: credit_50 row without a count", rowNum))
				continue
			}
			row := base
			row.ItemType = domain.ItemCredit50
			row.QuantityDelta = -count
			rows = append(rows, row)
			credit50 = 0

		case itemKnown && itemType == domain.ItemCredit100:
			count := credit100
			if count <= 0 {
				count = parseCount(cell(rec, numberCol))
			}
			if count <= 0 {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d skipped: credit_100 row without a count", rowNum))
				continue
			}
			row := base
			row.ItemType = domain.ItemCredit100
			row.QuantityDelta = -count
			rows = append(rows, row)
			credit100 = 0

		case rawItem != "":
			rowErrors = append(rowErrors, fmt.Sprintf("row %d skipped: unknown item %q", rowNum, rawItem))
			continue

		default:
			// No item code at all: keep the row only for its credit columns.
			if credit50 <= 0 && credit100 <= 0 {
				continue
			}
		}

		// Credit columns riding on the same row become separate rows so each
		// deduction is validated and journaled on its own.
		if credit50 > 0 {
			row := base
			row.ItemType = domain.ItemCredit50
			row.QuantityDelta = -credit50
			rows = append(rows, row)
		}
		if credit100 > 0 {
			row := base
			row.ItemType = domain.ItemCredit100
			row.QuantityDelta = -credit100
			rows = append(rows, row)
		}
	}

	return rows, rowErrors, dailyRegs
}

func readFirstSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	return f.GetRows(sheet)
}

// headerIndex maps normalized header names to column positions.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key != "" {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}
	return cols
}

func findColumn(cols map[string]int, aliases []string) int {
	for _, a := range aliases {
		if idx, ok := cols[a]; ok {
			return idx
		}
	}
	return -1
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// cleanGSM reduces a cell to its digits, shedding spreadsheet float
// artifacts like a trailing ".0".
func cleanGSM(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	return digitsRe.ReplaceAllString(s, "")
}

func parseCount(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".0"))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// extractFirstInt pulls the first integer out of a free-text cell, so
// "REG : 10" and "Daily 15" both work.
func extractFirstInt(s string) int {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
