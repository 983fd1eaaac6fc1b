package engine

import (
	"fmt"
	"strings"

	"ledgermatch/internal/model"
)

// ScorePair computes the full scored correspondence for one
// (transaction, receipt) pair. It is side-effect free and safe to call
// from multiple goroutines.
//
// The merchant gate is evaluated first: a merchant score below the gate
// threshold forces NO_MATCH with confidence zero regardless of amount and
// date, which are still computed and recorded for diagnostics. This is
// what stops a coincidental $14.99 from matching the wrong merchant.
func (e *Engine) ScorePair(txn *model.Transaction, receipt *model.Receipt, hints model.ContextHints) model.MatchResult {
	merchant := e.merchants.Compare(txn.RawMerchant, receipt.RawMerchant)
	amount := e.amounts.Compare(txn.Amount, receipt)

	canonical, _ := e.normalizer.Canonicalize(txn.RawMerchant)
	date := e.dates.Compare(txn.Date, receipt, canonical)

	result := model.MatchResult{
		TransactionID: txn.ID,
		ReceiptID:     receipt.ID,
		Scores: model.ComponentScores{
			Merchant: merchant.Score,
			Amount:   amount.Score,
			Date:     date.Score,
		},
		AmountDiff: amount.Diff,
	}

	if !e.normalizer.HasAliasTable() {
		result.Flags.Add(model.FlagNoAliasTable)
	}
	if merchant.Capped {
		result.Flags.Add(model.FlagFuzzyCapped)
	}
	if amount.TipLikely {
		result.Flags.Add(model.FlagTipLikely)
	}
	if amount.Estimated {
		result.Flags.Add(model.FlagAmountEstimated)
	}
	if date.Missing {
		result.Flags.Add(model.FlagMissingDate)
	}

	if merchant.Score < e.config.GateThreshold {
		result.Confidence = 0
		result.Tier = model.TierNoMatch
		result.Reasoning = fmt.Sprintf(
			"merchant %.2f below gate %.2f; amount %.2f and date %.2f recorded for diagnostics only",
			merchant.Score, e.config.GateThreshold, amount.Score, date.Score)
		return result
	}

	amountWeight := e.config.BaseAmountWeight + e.config.AmountWeightMerchantShift*merchant.Score
	amountPoints := amountWeight * amount.Score
	datePoints := e.config.DateWeight * date.Score
	merchantPoints := e.config.MerchantBonusWeight * merchant.Score

	contextBonus := e.booster.Boost(txn, hints)
	if contextBonus > 0 {
		result.Flags.Add(model.FlagContextBoosted)
	}

	confidence := amountPoints + datePoints + merchantPoints + contextBonus
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	result.Confidence = confidence
	result.Tier = e.config.Tiers.TierFor(confidence)

	var reasons []string
	reasons = append(reasons, fmt.Sprintf("merchant %.2f (+%.1f)", merchant.Score, merchantPoints))
	reasons = append(reasons, fmt.Sprintf("amount %.2f (+%.1f)", amount.Score, amountPoints))
	reasons = append(reasons, fmt.Sprintf("date %.2f (+%.1f)", date.Score, datePoints))
	if contextBonus > 0 {
		reasons = append(reasons, fmt.Sprintf("context (+%.1f)", contextBonus))
	}
	result.Reasoning = strings.Join(reasons, ", ")

	return result
}
