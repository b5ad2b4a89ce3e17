package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one raw price observation appended by the ingestion process.
type PriceSample struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// Prices extracts the price column of an ordered window.
func Prices(samples []PriceSample) []decimal.Decimal {
	out := make([]decimal.Decimal, len(samples))
	for i, s := range samples {
		out[i] = s.Price
	}
	return out
}
