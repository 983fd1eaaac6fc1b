// Package testutil provides test utilities: in-memory databases with
// migrations applied and builders for common fixture records.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgermatch/internal/model"
	"ledgermatch/internal/service"
	"ledgermatch/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite database with cleanup
// registered on the test.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// NewTransaction builds a transaction fixture with sensible defaults.
func NewTransaction(id, merchant string, amount float64, date time.Time) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        date,
		RawMerchant: merchant,
		Amount:      decimal.NewFromFloat(amount),
	}
}

// NewReceipt builds a receipt fixture with sensible defaults.
func NewReceipt(id, merchant string, total float64, date time.Time) model.Receipt {
	return model.Receipt{
		ID:                   id,
		Date:                 date,
		RawMerchant:          merchant,
		Source:               "upload",
		Total:                decimal.NewFromFloat(total),
		ExtractionConfidence: 0.9,
	}
}

// Day returns a UTC midnight timestamp for concise fixture dates.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
