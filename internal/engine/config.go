package engine

import (
	"fmt"

	"ledgermatch/internal/common"
	"ledgermatch/internal/match"
	"ledgermatch/internal/model"
)

// Config holds all tunables for the matching engine. Everything is passed
// in at construction; the engine reads no environment or global state, so
// independently configured instances can coexist.
type Config struct {
	// OnProgress, when set, is called after each transaction's candidates
	// are scored. It may be called from multiple goroutines.
	OnProgress func(completed, total int)

	Merchant match.MerchantConfig
	Amount   match.AmountConfig
	Date     match.DateConfig
	Context  match.ContextConfig
	Tiers    model.TierThresholds

	// GateThreshold is the minimum merchant score required before amount
	// and date may influence the tier at all.
	GateThreshold float64

	// BaseAmountWeight and AmountWeightMerchantShift control how much a
	// close amount is worth: the effective amount weight is
	// base + shift*merchantScore, so higher merchant certainty licenses
	// more trust in the amount.
	BaseAmountWeight          float64
	AmountWeightMerchantShift float64
	DateWeight                float64
	MerchantBonusWeight       float64

	// CollisionPenalty is subtracted per extra candidate competing for a
	// transaction or receipt, up to MaxCollisionPenalty.
	CollisionPenalty    float64
	MaxCollisionPenalty float64

	// TieEpsilon is the confidence distance within which two competing
	// edges count as a true tie and force review.
	TieEpsilon float64

	// Workers bounds the phase-one scoring pool.
	Workers int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Merchant:                  match.DefaultMerchantConfig(),
		Amount:                    match.DefaultAmountConfig(),
		Date:                      match.DefaultDateConfig(),
		Context:                   match.DefaultContextConfig(),
		Tiers:                     model.DefaultTierThresholds(),
		GateThreshold:             0.5,
		BaseAmountWeight:          40,
		AmountWeightMerchantShift: 15,
		DateWeight:                25,
		MerchantBonusWeight:       25,
		CollisionPenalty:          2,
		MaxCollisionPenalty:       10,
		TieEpsilon:                0.5,
		Workers:                   4,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.GateThreshold < 0 || c.GateThreshold > 1 {
		return fmt.Errorf("%w: gate threshold %.2f outside [0,1]", common.ErrInvalidConfig, c.GateThreshold)
	}
	if c.BaseAmountWeight < 0 || c.DateWeight < 0 || c.MerchantBonusWeight < 0 || c.AmountWeightMerchantShift < 0 {
		return fmt.Errorf("%w: component weights must be non-negative", common.ErrInvalidConfig)
	}
	if c.TieEpsilon < 0 {
		return fmt.Errorf("%w: tie epsilon must be non-negative", common.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative", common.ErrInvalidConfig)
	}

	t := c.Tiers
	if !(t.AutoMatch > t.HighConfidence && t.HighConfidence > t.Review && t.Review > t.LowConfidence && t.LowConfidence > 0) {
		return fmt.Errorf("%w: tier thresholds must strictly descend", common.ErrInvalidConfig)
	}

	return nil
}
