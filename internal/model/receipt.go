package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt represents a receipt extracted by the external OCR collaborator.
// Receipts are immutable to the matching engine. A zero Date means the OCR
// pass could not find one.
type Receipt struct {
	Date                 time.Time
	ID                   string
	RawMerchant          string // Merchant string as extracted by OCR
	Merchant             string // Canonical merchant name (derived)
	Source               string // e.g. "email", "upload"
	Total                decimal.Decimal
	Subtotal             *decimal.Decimal
	Tax                  *decimal.Decimal
	Tip                  *decimal.Decimal
	ExtractionConfidence float64
}

// HasDate reports whether OCR found a usable date.
func (r *Receipt) HasDate() bool {
	return !r.Date.IsZero()
}

// EffectiveTotal returns the amount to compare against. When the extracted
// total is missing or zero but itemized components exist, their sum is used
// instead; estimated reports when that fallback fired.
func (r *Receipt) EffectiveTotal() (total decimal.Decimal, estimated bool) {
	if !r.Total.IsZero() {
		return r.Total, false
	}

	sum := decimal.Zero
	found := false
	for _, part := range []*decimal.Decimal{r.Subtotal, r.Tax, r.Tip} {
		if part != nil {
			sum = sum.Add(*part)
			found = true
		}
	}

	if !found {
		return r.Total, false
	}
	return sum, true
}
