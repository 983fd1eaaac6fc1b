// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single bank transaction awaiting a receipt.
// Transactions are created by the ingestion layer and are immutable to the
// matching engine; only a caller may attach a receipt reference afterwards.
type Transaction struct {
	Date        time.Time
	ID          string
	RawMerchant string // Merchant string as reported by the bank
	Merchant    string // Canonical merchant name (derived)
	Description string // Free-text description from the statement
	Amount      decimal.Decimal
	HasReceipt  bool
}

// AbsAmount returns the unsigned transaction amount. Bank feeds report
// purchases as negative on some institutions and positive on others, so all
// amount comparisons work on the absolute value.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.RawMerchant)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
