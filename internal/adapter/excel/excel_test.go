package excel

import (
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/teleshop-ledger/internal/core/domain"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeSales_SimAndSwapRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Item Code", "Number", "Recharge", "Notes"},
		{"SIM", "750000001", 100, "REG : 10"},
		{"swap", "750000002", 0, ""},
	})

	rows, errs, regs := NormalizeSales(data, "2025-10-31", "u1")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if regs != 10 {
		t.Errorf("expected daily regs 10, got %d", regs)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].ItemType != domain.ItemSIM || rows[0].QuantityDelta != -1 || rows[0].ExternalRef != "750000001" {
		t.Errorf("unexpected sim row: %+v", rows[0])
	}
	if rows[0].AgentID != "u1" || rows[0].Period != "2025-10-31" {
		t.Errorf("row missing batch identity: %+v", rows[0])
	}
	if rows[0].RechargeAmt != 100 {
		t.Errorf("expected recharge 100, got %v", rows[0].RechargeAmt)
	}
	if rows[1].ItemType != domain.ItemSwap || rows[1].ExternalRef != "750000002" {
		t.Errorf("unexpected swap row: %+v", rows[1])
	}
}

func TestNormalizeSales_GSMValidation(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"item", "number"},
		{"SIM", "75000001"},      // 8 digits
		{"SIM", "7500000012345"}, // 13 digits
		{"SIM", ""},              // missing
		{"SIM", "750000001"},     // valid
	})

	rows, errs, _ := NormalizeSales(data, "2025-10-31", "u1")
	if len(rows) != 1 {
		t.Fatalf("expected 1 valid row, got %d", len(rows))
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 row errors, got %d: %v", len(errs), errs)
	}
	for _, e := range errs[:2] {
		if !strings.Contains(e, "9 digits") {
			t.Errorf("expected digit-count error, got %q", e)
		}
	}
}

func TestNormalizeSales_FloatArtifactGSM(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"item", "number"},
		{"SIM", "750000003.0"},
	})
	rows, errs, _ := NormalizeSales(data, "2025-10-31", "u1")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(rows) != 1 || rows[0].ExternalRef != "750000003" {
		t.Errorf("expected cleaned GSM 750000003, got %+v", rows)
	}
}

func TestNormalizeSales_CreditRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"item", "number", "credit50", "credit100"},
		{"credit50", "", 3, ""},
		{"credit_100", "2", "", ""},          // count falls back to Number
		{"SIM", "750000004", 1, 2},           // credit columns ride along
		{"", "", 4, ""},                      // credits without an item code
	})

	rows, errs, _ := NormalizeSales(data, "2025-10-31", "u1")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	var got []string
	for _, r := range rows {
		got = append(got, fmt.Sprintf("%s:%d", r.ItemType, r.QuantityDelta))
	}
	want := []string{
		"credit_50:-3",
		"credit_100:-2",
		"sim:-1",
		"credit_50:-1",
		"credit_100:-2",
		"credit_50:-4",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows %v, got %v", len(want), want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	// credit rows never carry a duplicate-detection ref
	for _, r := range rows {
		if r.ItemType != domain.ItemSIM && r.ExternalRef != "" {
			t.Errorf("credit row carries ref: %+v", r)
		}
	}
}

func TestNormalizeSales_UnknownItem(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"item", "number"},
		{"gadget", "5"},
	})
	rows, errs, _ := NormalizeSales(data, "2025-10-31", "u1")
	if len(rows) != 0 {
		t.Errorf("unknown items must not produce rows, got %+v", rows)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "unknown item") {
		t.Errorf("expected unknown-item error, got %v", errs)
	}
}

func TestNormalizeSales_MissingNumberColumn(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"item", "recharge"},
		{"SIM", 100},
	})
	rows, errs, _ := NormalizeSales(data, "2025-10-31", "u1")
	if len(rows) != 0 || len(errs) != 1 {
		t.Fatalf("expected hard failure, got rows=%v errs=%v", rows, errs)
	}
	if !strings.Contains(errs[0], "Number column") {
		t.Errorf("expected missing-column error, got %q", errs[0])
	}
}

func TestNormalizeSales_GarbageBytes(t *testing.T) {
	rows, errs, _ := NormalizeSales([]byte("not a workbook"), "2025-10-31", "u1")
	if len(rows) != 0 || len(errs) == 0 {
		t.Errorf("expected parse failure, got rows=%v errs=%v", rows, errs)
	}
}

func TestNormalizePickup(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Carton #", "Box #", "GSM Number", "ICCID", "Type"},
		{"C1", "B1", "750000010", "8925601234", "prepaid"},
		{"C1", "B1", "", "8925605678", "prepaid"}, // no GSM: dropped
		{"C1", "B2", "750000011.0", "", ""},
	})

	cards, err := NormalizePickup(data, "pickup.xlsx")
	if err != nil {
		t.Fatalf("pickup parse failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].GSM != "750000010" || cards[0].CartonNo != "C1" || cards[0].ICCID != "8925601234" {
		t.Errorf("unexpected first card: %+v", cards[0])
	}
	if cards[1].GSM != "750000011" {
		t.Errorf("expected float artifact stripped, got %q", cards[1].GSM)
	}
	for _, c := range cards {
		if c.Note != "pickup.xlsx" {
			t.Errorf("expected note on every card, got %+v", c)
		}
		if c.Location != domain.LocationBackoffice || c.Status != domain.SimStatusInStock {
			t.Errorf("expected backoffice in_stock defaults, got %+v", c)
		}
	}
}

func TestNormalizePickup_GarbageBytes(t *testing.T) {
	if _, err := NormalizePickup([]byte("junk"), "x"); err == nil {
		t.Error("expected error for malformed workbook")
	}
}
