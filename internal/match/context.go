package match

import (
	"strings"

	"ledgermatch/internal/model"
)

// ContextConfig bounds the bonus external hints can add.
type ContextConfig struct {
	KeywordBonus float64 // calendar keyword overlap
	ContactBonus float64 // known-contact name overlap
	MaxBonus     float64 // hard ceiling on the combined bonus
}

// DefaultContextConfig returns the standard context bonus bounds.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		KeywordBonus: 10,
		ContactBonus: 5,
		MaxBonus:     15,
	}
}

// ContextBooster converts pre-resolved calendar/contact hints into a
// bounded confidence bonus. It is additive only: it is applied after the
// merchant gate and can never create a match on its own.
type ContextBooster struct {
	config ContextConfig
}

// NewContextBooster creates a context booster.
func NewContextBooster(config ContextConfig) *ContextBooster {
	return &ContextBooster{config: config}
}

// Boost returns the bonus for a transaction given its external hints.
func (b *ContextBooster) Boost(txn *model.Transaction, hints model.ContextHints) float64 {
	if hints.Empty() {
		return 0
	}

	haystack := strings.ToLower(txn.RawMerchant + " " + txn.Description)

	bonus := 0.0
	if anyOverlap(haystack, hints.CalendarKeywords) {
		bonus += b.config.KeywordBonus
	}
	if anyOverlap(haystack, hints.ContactNames) {
		bonus += b.config.ContactBonus
	}

	if bonus > b.config.MaxBonus {
		bonus = b.config.MaxBonus
	}
	return bonus
}

func anyOverlap(haystack string, needles []string) bool {
	for _, needle := range needles {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
