// Package engine implements the core reconciliation engine that scores
// receipt-to-transaction correspondences and resolves them into a valid
// one-to-one assignment per batch.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgermatch/internal/common"
	"ledgermatch/internal/learning"
	"ledgermatch/internal/match"
	"ledgermatch/internal/model"
	"ledgermatch/internal/normalize"
)

// centTolerance is the amount-difference resolution used when deciding
// whether two competing edges are truly tied.
var centTolerance = decimal.NewFromFloat(0.01)

// Engine scores batches of transactions against candidate receipts. An
// engine is bound to one immutable learning snapshot; construct a fresh
// engine per run to pick up feedback recorded since.
type Engine struct {
	config     Config
	normalizer *normalize.Normalizer
	merchants  *match.MerchantMatcher
	amounts    *match.AmountMatcher
	dates      *match.DateMatcher
	booster    *match.ContextBooster
}

// New creates an engine with the given configuration and learning
// snapshot. A nil snapshot is valid: alias resolution is disabled and
// every result carries the no_alias_table flag.
func New(config Config, snapshot *learning.Snapshot) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var resolver normalize.AliasResolver
	var negatives match.NegativeChecker
	if snapshot != nil {
		resolver = snapshot
		negatives = snapshot
	}

	normalizer := normalize.New(resolver)

	return &Engine{
		config:     config,
		normalizer: normalizer,
		merchants:  match.NewMerchantMatcher(config.Merchant, normalizer, negatives),
		amounts:    match.NewAmountMatcher(config.Amount),
		dates:      match.NewDateMatcher(config.Date),
		booster:    match.NewContextBooster(config.Context),
	}, nil
}

// BatchResult is the outcome of one scoring run.
type BatchResult struct {
	Run                     model.MatchRun
	Accepted                []model.MatchResult
	NeedsReview             []model.MatchResult
	UnmatchedTransactionIDs []string
	UnmatchedReceiptIDs     []string
}

// Match scores every (transaction, receipt) pair and resolves the
// candidate graph into a conflict-free assignment. Phase one is pairwise
// and runs across a bounded worker pool with no locking; phase two is the
// sequential collision resolution pass. hints may be nil.
//
// Inputs are never mutated. A duplicate transaction or receipt id is a
// precondition violation and fails the whole batch; data-quality problems
// (missing dates, unparseable amounts) only degrade scores.
func (e *Engine) Match(ctx context.Context, txns []model.Transaction, receipts []model.Receipt, hints map[string]model.ContextHints) (*BatchResult, error) {
	run := model.MatchRun{
		ID:                uuid.NewString(),
		StartedAt:         time.Now(),
		TotalTransactions: len(txns),
		TotalReceipts:     len(receipts),
	}

	if err := validateBatch(txns, receipts); err != nil {
		return nil, err
	}

	slog.Info("Starting match run",
		"run_id", run.ID,
		"transactions", len(txns),
		"receipts", len(receipts),
		"alias_table", e.normalizer.HasAliasTable())

	if len(txns) == 0 || len(receipts) == 0 {
		run.CompletedAt = time.Now()
		return &BatchResult{
			Run:                     run,
			UnmatchedTransactionIDs: collectTransactionIDs(txns),
			UnmatchedReceiptIDs:     collectReceiptIDs(receipts),
		}, nil
	}

	perTxn, err := e.scoreAllPairs(ctx, txns, receipts, hints)
	if err != nil {
		return nil, err
	}

	var candidates []model.MatchResult
	for _, results := range perTxn {
		for _, r := range results {
			if r.Tier != model.TierNoMatch {
				candidates = append(candidates, r)
			}
		}
	}

	e.applyCollisionPenalties(candidates)
	candidates = dropNoMatch(candidates)

	resolution := ResolveCollisions(candidates, e.config.TieEpsilon)

	result := &BatchResult{
		Run:         run,
		Accepted:    resolution.Accepted,
		NeedsReview: resolution.NeedsReview,
	}

	assignedTx := make(map[string]bool, len(resolution.Accepted))
	assignedRc := make(map[string]bool, len(resolution.Accepted))
	reviewTx := make(map[string]bool, len(resolution.NeedsReview))
	reviewRc := make(map[string]bool, len(resolution.NeedsReview))
	for _, m := range resolution.Accepted {
		assignedTx[m.TransactionID] = true
		assignedRc[m.ReceiptID] = true
		switch m.Tier {
		case model.TierAutoMatch:
			result.Run.AutoMatched++
		case model.TierHighConfidence:
			result.Run.HighConfidence++
		default:
			result.Run.NeedsReview++
		}
	}
	result.Run.NeedsReview += len(resolution.NeedsReview)
	for _, m := range resolution.NeedsReview {
		reviewTx[m.TransactionID] = true
		reviewRc[m.ReceiptID] = true
	}

	for _, txn := range txns {
		if !assignedTx[txn.ID] && !reviewTx[txn.ID] {
			result.UnmatchedTransactionIDs = append(result.UnmatchedTransactionIDs, txn.ID)
		}
	}
	for _, receipt := range receipts {
		if !assignedRc[receipt.ID] && !reviewRc[receipt.ID] {
			result.UnmatchedReceiptIDs = append(result.UnmatchedReceiptIDs, receipt.ID)
		}
	}
	result.Run.UnmatchedTransaction = len(result.UnmatchedTransactionIDs)
	result.Run.UnmatchedReceipts = len(result.UnmatchedReceiptIDs)
	result.Run.CompletedAt = time.Now()

	slog.Info("Match run complete",
		"run_id", run.ID,
		"auto_matched", result.Run.AutoMatched,
		"high_confidence", result.Run.HighConfidence,
		"needs_review", result.Run.NeedsReview,
		"unmatched_transactions", result.Run.UnmatchedTransaction,
		"unmatched_receipts", result.Run.UnmatchedReceipts,
		"duration", result.Run.Duration())

	return result, nil
}

// scoreAllPairs fans transaction scoring out across the worker pool.
// Workers only read immutable inputs and write disjoint slice slots, so no
// locking is needed and interleaving cannot affect the result set.
func (e *Engine) scoreAllPairs(ctx context.Context, txns []model.Transaction, receipts []model.Receipt, hints map[string]model.ContextHints) ([][]model.MatchResult, error) {
	workers := e.config.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(txns) {
		workers = len(txns)
	}

	workChan := make(chan int, len(txns))
	for i := range txns {
		workChan <- i
	}
	close(workChan)

	results := make([][]model.MatchResult, len(txns))
	var completed atomic.Int64

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				txn := txns[i]
				scored := make([]model.MatchResult, 0, len(receipts))
				for j := range receipts {
					scored = append(scored, e.ScorePair(&txn, &receipts[j], hints[txn.ID]))
				}
				results[i] = scored

				if e.config.OnProgress != nil {
					e.config.OnProgress(int(completed.Add(1)), len(txns))
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// applyCollisionPenalties docks confidence from edges whose endpoints have
// competing candidates, then re-tiers them. Counting is done over the
// whole candidate set so the penalty is independent of slice order.
func (e *Engine) applyCollisionPenalties(candidates []model.MatchResult) {
	if e.config.CollisionPenalty <= 0 {
		return
	}

	txCount := make(map[string]int)
	rcCount := make(map[string]int)
	for _, c := range candidates {
		txCount[c.TransactionID]++
		rcCount[c.ReceiptID]++
	}

	for i := range candidates {
		c := &candidates[i]
		extra := txCount[c.TransactionID] - 1
		if rivals := rcCount[c.ReceiptID] - 1; rivals > extra {
			extra = rivals
		}
		if extra <= 0 {
			continue
		}

		penalty := e.config.CollisionPenalty * float64(extra)
		if penalty > e.config.MaxCollisionPenalty {
			penalty = e.config.MaxCollisionPenalty
		}

		c.Confidence -= penalty
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		c.Tier = e.config.Tiers.TierFor(c.Confidence)
		c.Reasoning = fmt.Sprintf("%s, collision (-%.1f)", c.Reasoning, penalty)
	}
}

func validateBatch(txns []model.Transaction, receipts []model.Receipt) error {
	seenTx := make(map[string]bool, len(txns))
	for _, txn := range txns {
		if txn.ID == "" {
			return fmt.Errorf("%w: transaction with empty id", common.ErrPreconditionViolated)
		}
		if seenTx[txn.ID] {
			return fmt.Errorf("%w: duplicate transaction id %q", common.ErrPreconditionViolated, txn.ID)
		}
		seenTx[txn.ID] = true
	}

	seenRc := make(map[string]bool, len(receipts))
	for _, receipt := range receipts {
		if receipt.ID == "" {
			return fmt.Errorf("%w: receipt with empty id", common.ErrPreconditionViolated)
		}
		if seenRc[receipt.ID] {
			return fmt.Errorf("%w: duplicate receipt id %q", common.ErrPreconditionViolated, receipt.ID)
		}
		seenRc[receipt.ID] = true
	}

	return nil
}

func dropNoMatch(candidates []model.MatchResult) []model.MatchResult {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Tier != model.TierNoMatch {
			kept = append(kept, c)
		}
	}
	return kept
}

func collectTransactionIDs(txns []model.Transaction) []string {
	ids := make([]string, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.ID)
	}
	return ids
}

func collectReceiptIDs(receipts []model.Receipt) []string {
	ids := make([]string, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, r.ID)
	}
	return ids
}
