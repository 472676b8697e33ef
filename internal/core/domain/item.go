package domain

import "strings"

type ItemType string

const (
	ItemSIM       ItemType = "sim"
	ItemSwap      ItemType = "swap"
	ItemCredit50  ItemType = "credit_50"
	ItemCredit100 ItemType = "credit_100"
)

// itemAliases maps the identifiers that appear in uploaded reports to
// canonical item types. Lookup is case-insensitive.
var itemAliases = map[string]ItemType{
	"sim":        ItemSIM,
	"simcard":    ItemSIM,
	"sim_card":   ItemSIM,
	"swap":       ItemSwap,
	"credit50":   ItemCredit50,
	"credit_50":  ItemCredit50,
	"credit-50":  ItemCredit50,
	"credit100":  ItemCredit100,
	"credit_100": ItemCredit100,
	"credit-100": ItemCredit100,
}

// ResolveItemType maps a free-text item identifier to its canonical type.
// Returns false for identifiers outside the alias table; such rows never
// reach the ingest engine.
func ResolveItemType(raw string) (ItemType, bool) {
	it, ok := itemAliases[strings.ToLower(strings.TrimSpace(raw))]
	return it, ok
}

func AllItemTypes() []ItemType {
	return []ItemType{ItemSIM, ItemSwap, ItemCredit50, ItemCredit100}
}
