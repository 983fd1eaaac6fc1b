package config

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"ledgermatch/internal/engine"
)

// SetDefaults registers the engine's default tunables with viper so a bare
// config file overrides only what it names.
func SetDefaults() {
	defaults := engine.DefaultConfig()

	viper.SetDefault("matching.gate_threshold", defaults.GateThreshold)
	viper.SetDefault("matching.base_amount_weight", defaults.BaseAmountWeight)
	viper.SetDefault("matching.amount_weight_merchant_shift", defaults.AmountWeightMerchantShift)
	viper.SetDefault("matching.date_weight", defaults.DateWeight)
	viper.SetDefault("matching.merchant_bonus_weight", defaults.MerchantBonusWeight)
	viper.SetDefault("matching.collision_penalty", defaults.CollisionPenalty)
	viper.SetDefault("matching.max_collision_penalty", defaults.MaxCollisionPenalty)
	viper.SetDefault("matching.tie_epsilon", defaults.TieEpsilon)
	viper.SetDefault("matching.workers", defaults.Workers)

	viper.SetDefault("matching.merchant.min_fuzzy_similarity", defaults.Merchant.MinFuzzySimilarity)
	viper.SetDefault("matching.amount.exact_tolerance", defaults.Amount.ExactTolerance.InexactFloat64())
	viper.SetDefault("matching.amount.close_tolerance", defaults.Amount.CloseTolerance.InexactFloat64())
	viper.SetDefault("matching.amount.tip_max_percent", defaults.Amount.TipMaxPercent)
	viper.SetDefault("matching.date.window_days", defaults.Date.WindowDays)
	viper.SetDefault("matching.date.category_windows", defaults.Date.CategoryWindows)
	viper.SetDefault("matching.date.merchant_categories", defaults.Date.MerchantCategories)

	viper.SetDefault("tiers.auto_match", defaults.Tiers.AutoMatch)
	viper.SetDefault("tiers.high_confidence", defaults.Tiers.HighConfidence)
	viper.SetDefault("tiers.review", defaults.Tiers.Review)
	viper.SetDefault("tiers.low_confidence", defaults.Tiers.LowConfidence)
}

// EngineConfig builds an engine configuration from viper, starting from the
// defaults and applying whatever the config file or environment set.
func EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()

	cfg.GateThreshold = viper.GetFloat64("matching.gate_threshold")
	cfg.BaseAmountWeight = viper.GetFloat64("matching.base_amount_weight")
	cfg.AmountWeightMerchantShift = viper.GetFloat64("matching.amount_weight_merchant_shift")
	cfg.DateWeight = viper.GetFloat64("matching.date_weight")
	cfg.MerchantBonusWeight = viper.GetFloat64("matching.merchant_bonus_weight")
	cfg.CollisionPenalty = viper.GetFloat64("matching.collision_penalty")
	cfg.MaxCollisionPenalty = viper.GetFloat64("matching.max_collision_penalty")
	cfg.TieEpsilon = viper.GetFloat64("matching.tie_epsilon")
	cfg.Workers = viper.GetInt("matching.workers")

	cfg.Merchant.MinFuzzySimilarity = viper.GetFloat64("matching.merchant.min_fuzzy_similarity")
	cfg.Amount.ExactTolerance = decimal.NewFromFloat(viper.GetFloat64("matching.amount.exact_tolerance"))
	cfg.Amount.CloseTolerance = decimal.NewFromFloat(viper.GetFloat64("matching.amount.close_tolerance"))
	cfg.Amount.TipMaxPercent = viper.GetFloat64("matching.amount.tip_max_percent")
	cfg.Date.WindowDays = viper.GetInt("matching.date.window_days")
	if err := viper.UnmarshalKey("matching.date.category_windows", &cfg.Date.CategoryWindows); err != nil {
		slog.Warn("Invalid category windows in config, using defaults", "error", err)
	}
	if err := viper.UnmarshalKey("matching.date.merchant_categories", &cfg.Date.MerchantCategories); err != nil {
		slog.Warn("Invalid merchant categories in config, using defaults", "error", err)
	}

	cfg.Tiers.AutoMatch = viper.GetFloat64("tiers.auto_match")
	cfg.Tiers.HighConfidence = viper.GetFloat64("tiers.high_confidence")
	cfg.Tiers.Review = viper.GetFloat64("tiers.review")
	cfg.Tiers.LowConfidence = viper.GetFloat64("tiers.low_confidence")

	return cfg
}
