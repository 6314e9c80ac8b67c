package resolver

import (
	"testing"

	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	six := decimal.NewFromInt(6)
	zero := decimal.Zero

	pipe := model.CatalogEntry{Unit: "metre", PackQty: &six, PackUnit: "length"}
	loose := model.CatalogEntry{Unit: "piece"}
	broken := model.CatalogEntry{Unit: "metre", PackQty: &zero, PackUnit: "length"}

	tests := []struct {
		name      string
		entry     model.CatalogEntry
		price     string
		priceUnit string
		want      string
	}{
		{name: "canonical unit unchanged", entry: pipe, price: "20", priceUnit: "metre", want: "20"},
		{name: "empty unit unchanged", entry: pipe, price: "20", priceUnit: "", want: "20"},
		{name: "pack unit divides by pack quantity", entry: pipe, price: "120", priceUnit: "length", want: "20"},
		{name: "pack unit is case insensitive", entry: pipe, price: "120", priceUnit: " Length ", want: "20"},
		{name: "unknown unit unchanged", entry: pipe, price: "120", priceUnit: "roll", want: "120"},
		{name: "entry without pack", entry: loose, price: "15.5", priceUnit: "box", want: "15.5"},
		{name: "zero pack quantity ignored", entry: broken, price: "120", priceUnit: "length", want: "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(decimal.RequireFromString(tt.price), tt.priceUnit, tt.entry)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
