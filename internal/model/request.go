package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestLineItem is one line of a procurement request. It is owned by the
// procurement workflow and is read-only to the engine.
type RequestLineItem struct {
	RequestID     string  `json:"request_id"`
	LineID        string  `json:"line_id"`
	MaterialName  string  `json:"material_name"`
	SubType       string  `json:"sub_type"`
	Dimension     string  `json:"dimension"`
	DimensionUnit string  `json:"dimension_unit"`
	Quantity      float64 `json:"quantity"`
}

// Vendor is a supplier able to quote prices.
type Vendor struct {
	CreatedAt time.Time
	ID        string
	Name      string
}

// PriceSubmission is a vendor's reply to one procurement request.
type PriceSubmission struct {
	RequestID string       `json:"request_id"`
	VendorID  string       `json:"vendor_id"`
	Currency  string       `json:"currency"`
	Lines     []QuotedLine `json:"lines"`
}

// QuotedLine is the vendor's price for one request line.
type QuotedLine struct {
	LineID       string          `json:"line_id"`
	PriceUnit    string          `json:"price_unit"`
	Comment      string          `json:"comment"`
	Price        decimal.Decimal `json:"price"`
	LeadTimeDays int             `json:"lead_time_days"`
}
