package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
	"ledgermatch/internal/service"
)

func setupStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestMigrateIdempotent(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	txn := model.Transaction{
		ID:          "t1",
		Date:        day(10),
		RawMerchant: "SQ *BLUE BOTTLE",
		Description: "coffee",
		Amount:      decimal.NewFromFloat(-42.17),
	}
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, txn.RawMerchant, got.RawMerchant)
	assert.Equal(t, txn.Description, got.Description)
	assert.True(t, got.Amount.Equal(txn.Amount))
	assert.True(t, got.Date.Equal(day(10)))
	assert.False(t, got.HasReceipt)
}

func TestSaveTransactionsDeduplicates(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	txn := model.Transaction{
		ID:          "t1",
		Date:        day(10),
		RawMerchant: "SQ *BLUE BOTTLE",
		Amount:      decimal.NewFromFloat(42.17),
	}
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	// Same content under a new id hashes identically and is skipped.
	dup := txn
	dup.ID = "t2"
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{dup}))

	all, err := store.GetUnmatchedTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetUnmatchedTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	txns := []model.Transaction{
		{ID: "t1", Date: day(5), RawMerchant: "early", Amount: decimal.NewFromFloat(1)},
		{ID: "t2", Date: day(15), RawMerchant: "middle", Amount: decimal.NewFromFloat(2)},
		{ID: "t3", Date: day(25), RawMerchant: "late", Amount: decimal.NewFromFloat(3)},
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	start, end := day(10), day(20)
	got, err := store.GetUnmatchedTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].ID)
}

func TestMarkTransactionMatched(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		{ID: "t1", Date: day(10), RawMerchant: "vendor", Amount: decimal.NewFromFloat(10)},
		{ID: "t2", Date: day(11), RawMerchant: "vendor two", Amount: decimal.NewFromFloat(20)},
	}))
	require.NoError(t, store.SaveReceipts(ctx, []model.Receipt{
		{ID: "r1", Date: day(10), RawMerchant: "vendor", Total: decimal.NewFromFloat(10)},
	}))

	require.NoError(t, store.MarkTransactionMatched(ctx, "t1", "r1"))

	got, err := store.GetTransactionByID(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.HasReceipt)

	// Matched transactions leave the unmatched set.
	unmatched, err := store.GetUnmatchedTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "t2", unmatched[0].ID)

	// The receipt cannot be attached to a second transaction.
	err = store.MarkTransactionMatched(ctx, "t2", "r1")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Unknown endpoints are reported.
	require.NoError(t, store.SaveReceipts(ctx, []model.Receipt{
		{ID: "r2", Date: day(11), RawMerchant: "vendor two", Total: decimal.NewFromFloat(20)},
	}))
	assert.ErrorIs(t, store.MarkTransactionMatched(ctx, "missing", "r2"), common.ErrNotFound)
	assert.ErrorIs(t, store.MarkTransactionMatched(ctx, "t2", "missing"), common.ErrNotFound)
}

func TestReceiptRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	tip := decimal.NewFromFloat(6.50)
	receipt := model.Receipt{
		ID:                   "r1",
		Date:                 day(10),
		RawMerchant:          "Blue Bottle Coffee",
		Source:               "email",
		Total:                decimal.NewFromFloat(48.67),
		Tip:                  &tip,
		ExtractionConfidence: 0.92,
	}
	require.NoError(t, store.SaveReceipts(ctx, []model.Receipt{receipt}))

	got, err := store.GetReceiptByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, receipt.RawMerchant, got.RawMerchant)
	assert.Equal(t, receipt.Source, got.Source)
	assert.True(t, got.Total.Equal(receipt.Total))
	require.NotNil(t, got.Tip)
	assert.True(t, got.Tip.Equal(tip))
	assert.Nil(t, got.Subtotal)
	assert.InDelta(t, 0.92, got.ExtractionConfidence, 0.001)
}

func TestReceiptWithoutDate(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveReceipts(ctx, []model.Receipt{
		{ID: "r1", RawMerchant: "no date vendor", Total: decimal.NewFromFloat(10)},
	}))

	got, err := store.GetReceiptByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.HasDate())

	// Undated receipts always fall inside a date-range query.
	inRange, err := store.GetReceiptsByDateRange(ctx, day(1), day(2))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)
}

func TestGetReceiptsByDateRange(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveReceipts(ctx, []model.Receipt{
		{ID: "r1", Date: day(5), RawMerchant: "early", Total: decimal.NewFromFloat(1)},
		{ID: "r2", Date: day(15), RawMerchant: "middle", Total: decimal.NewFromFloat(2)},
		{ID: "r3", Date: day(25), RawMerchant: "late", Total: decimal.NewFromFloat(3)},
	}))

	got, err := store.GetReceiptsByDateRange(ctx, day(10), day(20))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

func TestAliasCRUD(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	alias := &model.AliasEntry{
		Pattern:   "bb coffee",
		Canonical: "blue bottle coffee",
		Source:    model.AliasSourceManual,
		UseCount:  1,
	}
	require.NoError(t, store.SaveAlias(ctx, alias))

	got, err := store.GetAlias(ctx, "bb coffee")
	require.NoError(t, err)
	assert.Equal(t, "blue bottle coffee", got.Canonical)
	assert.Equal(t, model.AliasSourceManual, got.Source)

	// Last writer wins on the pattern key.
	alias.Canonical = "blue bottle"
	alias.UseCount = 2
	require.NoError(t, store.SaveAlias(ctx, alias))
	got, err = store.GetAlias(ctx, "bb coffee")
	require.NoError(t, err)
	assert.Equal(t, "blue bottle", got.Canonical)
	assert.Equal(t, 2, got.UseCount)

	all, err := store.GetAllAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteAlias(ctx, "bb coffee"))
	_, err = store.GetAlias(ctx, "bb coffee")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteAlias(ctx, "bb coffee"), common.ErrNotFound)
}

func TestNegativeExamples(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	example := &model.NegativeExample{
		RawMerchant: "city parking garage",
		Canonical:   "city parking lot",
	}
	require.NoError(t, store.SaveNegativeExample(ctx, example))
	// Re-recording the same pair is a no-op.
	require.NoError(t, store.SaveNegativeExample(ctx, example))

	all, err := store.GetAllNegativeExamples(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "city parking garage", all[0].RawMerchant)
	assert.False(t, all[0].CreatedAt.IsZero())
}

func TestSaveFeedbackEvent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveFeedbackEvent(ctx, &model.FeedbackEvent{
		ID:          "f1",
		RawMerchant: "bb coffee",
		Canonical:   "blue bottle coffee",
		Accepted:    true,
	}))

	// The log is append-only; duplicate ids are rejected.
	err := store.SaveFeedbackEvent(ctx, &model.FeedbackEvent{
		ID:          "f1",
		RawMerchant: "bb coffee",
		Canonical:   "blue bottle coffee",
		Accepted:    false,
	})
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.GetTransactionByID(ctx, "")
	assert.Error(t, err)

	assert.Error(t, store.SaveAlias(ctx, nil))
	assert.Error(t, store.SaveAlias(ctx, &model.AliasEntry{Pattern: "x"}))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.GetAllAliases(canceled)
	assert.Error(t, err)
}
