package resolver

import (
	"strings"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/shopspring/decimal"
)

// NormalizePrice converts a vendor price into the entry's canonical unit.
// A price stated per pack is divided by the pack quantity; a price in the
// canonical unit, or in any other unit, is returned unchanged.
func NormalizePrice(price decimal.Decimal, priceUnit string, entry model.CatalogEntry) decimal.Decimal {
	stated := unitKey(priceUnit)
	canonical := unitKey(entry.Unit)
	pack := unitKey(entry.PackUnit)

	if stated == "" || stated == canonical {
		return price
	}
	if stated == pack && pack != canonical && entry.PackQty != nil && entry.PackQty.IsPositive() {
		return price.Div(*entry.PackQty)
	}
	return price
}

func unitKey(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}
