package match

import (
	"github.com/shopspring/decimal"

	"ledgermatch/internal/model"
)

// AmountConfig tunes amount comparison bands. The tip band is asymmetric:
// a transaction may exceed its receipt (gratuity added after the total was
// printed) but never the reverse.
type AmountConfig struct {
	ExactTolerance decimal.Decimal // absolute difference for a perfect score
	ExactPercent   float64         // or percentage difference
	CloseTolerance decimal.Decimal // absolute difference for a near match
	ClosePercent   float64         // or percentage difference
	TipMaxPercent  float64         // ceiling for the tip-tolerance band
}

// DefaultAmountConfig returns the standard amount tolerance bands.
func DefaultAmountConfig() AmountConfig {
	return AmountConfig{
		ExactTolerance: decimal.NewFromFloat(0.50),
		ExactPercent:   0.02,
		CloseTolerance: decimal.NewFromFloat(2.00),
		ClosePercent:   0.05,
		TipMaxPercent:  0.25,
	}
}

// AmountScore is the result of one amount comparison.
type AmountScore struct {
	Diff      decimal.Decimal // transaction minus receipt, signed
	Score     float64
	TipLikely bool
	Estimated bool // receipt total was reconstructed from components
}

// AmountMatcher compares a transaction amount against a receipt total.
type AmountMatcher struct {
	config AmountConfig
}

// NewAmountMatcher creates an amount matcher.
func NewAmountMatcher(config AmountConfig) *AmountMatcher {
	return &AmountMatcher{config: config}
}

// Compare scores how well a transaction amount corresponds to a receipt.
// The transaction amount is compared unsigned; a missing or zero receipt
// total falls back to the summed subtotal/tax/tip components when present.
func (m *AmountMatcher) Compare(txAmount decimal.Decimal, receipt *model.Receipt) AmountScore {
	total, estimated := receipt.EffectiveTotal()

	abs := txAmount.Abs()
	diff := abs.Sub(total)
	result := AmountScore{Diff: diff, Estimated: estimated}

	if total.Sign() <= 0 {
		// Nothing usable to compare against; degrade, never error.
		return result
	}

	absDiff := diff.Abs()
	pct, _ := absDiff.Div(total).Float64()

	switch {
	case absDiff.LessThanOrEqual(m.config.ExactTolerance) || pct <= m.config.ExactPercent:
		result.Score = 1.0
	case absDiff.LessThanOrEqual(m.config.CloseTolerance) || pct <= m.config.ClosePercent:
		result.Score = 0.85
	case diff.Sign() > 0 && pct <= m.config.TipMaxPercent:
		// Transaction exceeds the printed total by a plausible gratuity.
		// Scale from 0.7 at a token tip down to 0.5 at the band ceiling.
		result.Score = 0.7 - 0.2*(pct/m.config.TipMaxPercent)
		result.TipLikely = true
	default:
		result.Score = 0
	}

	return result
}
