package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
	"ledgermatch/internal/testutil"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	return eng
}

func TestMatchExactPair(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	m := result.Accepted[0]
	assert.Equal(t, "t1", m.TransactionID)
	assert.Equal(t, "r1", m.ReceiptID)
	assert.InDelta(t, 100, m.Confidence, 0.001)
	assert.Equal(t, model.TierAutoMatch, m.Tier)
	assert.True(t, m.Flags.Has(model.FlagNoAliasTable))

	assert.Empty(t, result.NeedsReview)
	assert.Empty(t, result.UnmatchedTransactionIDs)
	assert.Empty(t, result.UnmatchedReceiptIDs)
	assert.Equal(t, 1, result.Run.AutoMatched)
}

func TestMerchantGateBlocksCoincidentalAmount(t *testing.T) {
	eng := newTestEngine(t)

	// Same price, same day, unrelated merchants: identity fails, so the
	// amount must never rescue the pair.
	txns := []model.Transaction{
		testutil.NewTransaction("t1", "JOES COFFEE", 14.99, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "UNITED AIRLINES", 14.99, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Accepted)
	assert.Empty(t, result.NeedsReview)
	assert.Equal(t, []string{"t1"}, result.UnmatchedTransactionIDs)
	assert.Equal(t, []string{"r1"}, result.UnmatchedReceiptIDs)
}

func TestMatchTipBand(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "MARIOS PIZZA", 57.50, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	m := result.Accepted[0]
	assert.InDelta(t, 81.9, m.Confidence, 0.01)
	assert.Equal(t, model.TierHighConfidence, m.Tier)
	assert.True(t, m.Flags.Has(model.FlagTipLikely))
	assert.True(t, m.AmountDiff.Equal(decimal.NewFromFloat(7.50)))
}

func TestMatchMissingReceiptDate(t *testing.T) {
	eng := newTestEngine(t)

	receipt := model.Receipt{
		ID:          "r1",
		RawMerchant: "BLUE BOTTLE COFFEE",
		Total:       decimal.NewFromFloat(42.17),
	}

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, []model.Receipt{receipt}, nil)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	m := result.Accepted[0]
	assert.InDelta(t, 92.5, m.Confidence, 0.01)
	assert.Equal(t, model.TierAutoMatch, m.Tier)
	assert.True(t, m.Flags.Has(model.FlagMissingDate))
}

func TestMatchContextBoost(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "MARIOS PIZZA", 57.50, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 10)),
	}
	hints := map[string]model.ContextHints{
		"t1": {CalendarKeywords: []string{"pizza"}},
	}

	result, err := eng.Match(context.Background(), txns, receipts, hints)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	m := result.Accepted[0]
	assert.InDelta(t, 91.9, m.Confidence, 0.01)
	assert.Equal(t, model.TierAutoMatch, m.Tier)
	assert.True(t, m.Flags.Has(model.FlagContextBoosted))
}

func TestMatchTrueTieForcesReview(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
		testutil.NewReceipt("r2", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	// Indistinguishable candidates: nothing is auto-applied.
	assert.Empty(t, result.Accepted)
	require.Len(t, result.NeedsReview, 1)

	m := result.NeedsReview[0]
	assert.Equal(t, model.TierReview, m.Tier)
	assert.True(t, m.Flags.Has(model.FlagAmbiguous))

	// The losing receipt stays unmatched; the contested pair does not.
	assert.Empty(t, result.UnmatchedTransactionIDs)
	require.Len(t, result.UnmatchedReceiptIDs, 1)
}

func TestMatchCollisionResolvedByAmount(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 10)),
		testutil.NewReceipt("r2", "MARIOS PIZZA", 80.00, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	m := result.Accepted[0]
	assert.Equal(t, "r1", m.ReceiptID)
	assert.Equal(t, model.TierAutoMatch, m.Tier)
	// Collision penalty docked the otherwise perfect score.
	assert.InDelta(t, 98, m.Confidence, 0.01)

	assert.Equal(t, []string{"r2"}, result.UnmatchedReceiptIDs)
}

func TestMatchCollisionResolvedByDate(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
		testutil.NewTransaction("t2", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 12)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "t1", result.Accepted[0].TransactionID, "same-day transaction must win")
	assert.Equal(t, []string{"t2"}, result.UnmatchedTransactionIDs)
}

func TestMatchDeterministicAcrossInputOrder(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
		testutil.NewTransaction("t2", "MARIOS PIZZA", 57.50, testutil.Day(2026, 3, 11)),
		testutil.NewTransaction("t3", "SHELL OIL", 60.00, testutil.Day(2026, 3, 12)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 11)),
		testutil.NewReceipt("r2", "SHELL OIL", 60.00, testutil.Day(2026, 3, 12)),
		testutil.NewReceipt("r3", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	pairsOf := func(result *BatchResult) map[string]string {
		pairs := make(map[string]string)
		for _, m := range result.Accepted {
			pairs[m.TransactionID] = m.ReceiptID
		}
		return pairs
	}

	first, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	// Reverse both input slices; the assignment must not change.
	revTxns := []model.Transaction{txns[2], txns[1], txns[0]}
	revReceipts := []model.Receipt{receipts[2], receipts[1], receipts[0]}

	second, err := eng.Match(context.Background(), revTxns, revReceipts, nil)
	require.NoError(t, err)

	want := map[string]string{"t1": "r3", "t2": "r1", "t3": "r2"}
	assert.Equal(t, want, pairsOf(first))
	assert.Equal(t, want, pairsOf(second))
}

func TestMatchSingleWorkerMatchesParallel(t *testing.T) {
	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
		testutil.NewTransaction("t2", "MARIOS PIZZA", 57.50, testutil.Day(2026, 3, 11)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "MARIOS PIZZA", 50.00, testutil.Day(2026, 3, 11)),
		testutil.NewReceipt("r2", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}

	serialCfg := DefaultConfig()
	serialCfg.Workers = 1
	serial, err := New(serialCfg, nil)
	require.NoError(t, err)

	parallelCfg := DefaultConfig()
	parallelCfg.Workers = 8
	parallel, err := New(parallelCfg, nil)
	require.NoError(t, err)

	a, err := serial.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)
	b, err := parallel.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Accepted, b.Accepted)
	assert.Equal(t, a.NeedsReview, b.NeedsReview)
}

func TestMatchDuplicateIDsRejected(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
		testutil.NewTransaction("t1", "VENDOR", 20, testutil.Day(2026, 3, 11)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
	}

	_, err := eng.Match(context.Background(), txns, receipts, nil)
	assert.ErrorIs(t, err, common.ErrPreconditionViolated)

	dupReceipts := []model.Receipt{
		testutil.NewReceipt("r1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
		testutil.NewReceipt("r1", "VENDOR", 20, testutil.Day(2026, 3, 11)),
	}
	_, err = eng.Match(context.Background(),
		[]model.Transaction{testutil.NewTransaction("t1", "VENDOR", 10, testutil.Day(2026, 3, 10))},
		dupReceipts, nil)
	assert.ErrorIs(t, err, common.ErrPreconditionViolated)
}

func TestMatchEmptyBatch(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
	}

	result, err := eng.Match(context.Background(), txns, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Accepted)
	assert.Equal(t, []string{"t1"}, result.UnmatchedTransactionIDs)
}

func TestMatchCanceledContext(t *testing.T) {
	eng := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "VENDOR", 10, testutil.Day(2026, 3, 10)),
	}

	_, err := eng.Match(ctx, txns, receipts, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchInputsNotMutated(t *testing.T) {
	eng := newTestEngine(t)

	txns := []model.Transaction{
		testutil.NewTransaction("t1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}
	receipts := []model.Receipt{
		testutil.NewReceipt("r1", "BLUE BOTTLE COFFEE", 42.17, testutil.Day(2026, 3, 10)),
	}
	txnCopy := txns[0]
	receiptCopy := receipts[0]

	_, err := eng.Match(context.Background(), txns, receipts, nil)
	require.NoError(t, err)

	assert.Equal(t, txnCopy, txns[0])
	assert.Equal(t, receiptCopy, receipts[0])
}

func TestConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("gate out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.GateThreshold = 1.5
		assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
	})

	t.Run("negative weight", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DateWeight = -1
		assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
	})

	t.Run("non-descending tiers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tiers.Review = cfg.Tiers.HighConfidence
		assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
	})
}
