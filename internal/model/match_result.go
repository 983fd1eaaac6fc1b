package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is the workflow bucket a match confidence falls into. It controls
// what the downstream reviewer/auto-apply collaborator does with the match.
type Tier string

// Tier constants, from strongest to weakest.
const (
	TierAutoMatch      Tier = "AUTO_MATCH"
	TierHighConfidence Tier = "HIGH_CONFIDENCE"
	TierReview         Tier = "REVIEW"
	TierLowConfidence  Tier = "LOW_CONFIDENCE"
	TierNoMatch        Tier = "NO_MATCH"
)

// TierThresholds defines the lower bound of each tier. The thresholds
// partition [0,100] exactly: a confidence maps to the highest tier whose
// bound it meets.
type TierThresholds struct {
	AutoMatch      float64
	HighConfidence float64
	Review         float64
	LowConfidence  float64
}

// DefaultTierThresholds returns the standard tier partition.
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		AutoMatch:      85,
		HighConfidence: 70,
		Review:         50,
		LowConfidence:  30,
	}
}

// TierFor maps a confidence value to its tier.
func (t TierThresholds) TierFor(confidence float64) Tier {
	switch {
	case confidence >= t.AutoMatch:
		return TierAutoMatch
	case confidence >= t.HighConfidence:
		return TierHighConfidence
	case confidence >= t.Review:
		return TierReview
	case confidence >= t.LowConfidence:
		return TierLowConfidence
	default:
		return TierNoMatch
	}
}

// Flag marks a noteworthy condition observed while scoring a pair.
type Flag string

// Flag constants.
const (
	FlagTipLikely       Flag = "tip_likely"
	FlagAmbiguous       Flag = "ambiguous"
	FlagNoAliasTable    Flag = "no_alias_table"
	FlagMissingDate     Flag = "missing_date"
	FlagAmountEstimated Flag = "amount_estimated"
	FlagContextBoosted  Flag = "context_boosted"
	FlagFuzzyCapped     Flag = "fuzzy_capped"
)

// FlagSet is an unordered set of flags on a match result.
type FlagSet map[Flag]struct{}

// Add inserts a flag into the set, allocating on first use.
func (f *FlagSet) Add(flag Flag) {
	if *f == nil {
		*f = make(FlagSet)
	}
	(*f)[flag] = struct{}{}
}

// Has reports whether the flag is present.
func (f FlagSet) Has(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// List returns the flags in sorted order for deterministic output.
func (f FlagSet) List() []Flag {
	flags := make([]Flag, 0, len(f))
	for flag := range f {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// Clone returns an independent copy of the set.
func (f FlagSet) Clone() FlagSet {
	if f == nil {
		return nil
	}
	clone := make(FlagSet, len(f))
	for flag := range f {
		clone[flag] = struct{}{}
	}
	return clone
}

// ComponentScores holds the individual similarity scores that fed into a
// match confidence. All values are in [0,1].
type ComponentScores struct {
	Merchant float64
	Amount   float64
	Date     float64
}

// MatchResult is a scored correspondence between one transaction and one
// receipt. Results are produced once per scoring run and consumed by the
// review/auto-apply collaborator; the engine never persists them.
type MatchResult struct {
	TransactionID string
	ReceiptID     string
	Confidence    float64 // 0-100
	Tier          Tier
	Scores        ComponentScores
	AmountDiff    decimal.Decimal // transaction minus receipt, signed
	Reasoning     string
	Flags         FlagSet
}
