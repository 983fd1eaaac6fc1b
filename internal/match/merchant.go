// Package match implements the pairwise component matchers: merchant
// identity, amount, date, and context. Each matcher is side-effect free and
// safe for concurrent use over immutable inputs.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"ledgermatch/internal/normalize"
)

// MerchantConfig tunes merchant identity comparison.
type MerchantConfig struct {
	// MinFuzzySimilarity is the floor below which fuzzy similarity
	// collapses to zero. The floored score is the gate signal.
	MinFuzzySimilarity float64
	// MinContainmentLen is the minimum length of the shorter string for
	// the containment shortcut to apply.
	MinContainmentLen int
	// NegativeCap is the ceiling applied to fuzzy scores for pairs a
	// human has rejected.
	NegativeCap float64
}

// DefaultMerchantConfig returns the standard merchant matching thresholds.
func DefaultMerchantConfig() MerchantConfig {
	return MerchantConfig{
		MinFuzzySimilarity: 0.6,
		MinContainmentLen:  4,
		NegativeCap:        0,
	}
}

// NegativeChecker reports whether a merchant pair was rejected by a human.
// Implemented by the learning snapshot; nil disables the check.
type NegativeChecker interface {
	IsNegative(a, b string) bool
}

// MerchantScore is the result of one merchant comparison.
type MerchantScore struct {
	Score float64
	// AliasEquivalent is set when both sides resolved to the same
	// canonical name through different alias patterns.
	AliasEquivalent bool
	// Capped is set when a negative example capped the fuzzy score.
	Capped bool
}

// MerchantMatcher compares merchant identities. Identity is established
// before any fuzzy tolerance: exact canonical equality, alias equivalence,
// and containment are tried in order, and only then a floored edit-distance
// and token-overlap similarity.
type MerchantMatcher struct {
	normalizer *normalize.Normalizer
	negatives  NegativeChecker
	config     MerchantConfig
}

// NewMerchantMatcher creates a merchant matcher. negatives may be nil.
func NewMerchantMatcher(config MerchantConfig, normalizer *normalize.Normalizer, negatives NegativeChecker) *MerchantMatcher {
	return &MerchantMatcher{
		config:     config,
		normalizer: normalizer,
		negatives:  negatives,
	}
}

// Compare scores the identity similarity of two raw merchant strings in [0,1].
func (m *MerchantMatcher) Compare(aRaw, bRaw string) MerchantScore {
	cleanA := normalize.Clean(aRaw)
	cleanB := normalize.Clean(bRaw)
	canonA, _ := m.normalizer.Canonicalize(aRaw)
	canonB, _ := m.normalizer.Canonicalize(bRaw)

	if canonA == "" || canonB == "" {
		return MerchantScore{Score: 0}
	}

	if canonA == canonB {
		if cleanA == cleanB {
			return MerchantScore{Score: 1.0}
		}
		// Same canonical identity reached from different raw variants.
		return MerchantScore{Score: 0.95, AliasEquivalent: true}
	}

	shorter, longer := canonA, canonB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) >= m.config.MinContainmentLen && strings.Contains(longer, shorter) {
		return MerchantScore{Score: 0.8}
	}

	sim := fuzzySimilarity(canonA, canonB)
	if sim < m.config.MinFuzzySimilarity {
		sim = 0
	}

	if sim > m.config.NegativeCap && m.isNegativePair(cleanA, cleanB, canonA, canonB) {
		return MerchantScore{Score: m.config.NegativeCap, Capped: true}
	}

	return MerchantScore{Score: sim}
}

func (m *MerchantMatcher) isNegativePair(cleanA, cleanB, canonA, canonB string) bool {
	if m.negatives == nil {
		return false
	}
	return m.negatives.IsNegative(cleanA, cleanB) ||
		m.negatives.IsNegative(canonA, canonB) ||
		m.negatives.IsNegative(cleanA, canonB) ||
		m.negatives.IsNegative(canonA, cleanB)
}

// fuzzySimilarity blends normalized edit distance with token overlap and
// returns the stronger of the two signals.
func fuzzySimilarity(a, b string) float64 {
	editSim := 0.0
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen > 0 {
		dist := levenshtein.ComputeDistance(a, b)
		editSim = 1.0 - float64(dist)/float64(maxLen)
	}

	overlap := tokenOverlap(strings.Fields(a), strings.Fields(b))

	if overlap > editSim {
		return overlap
	}
	return editSim
}

// tokenOverlap computes Jaccard similarity over word tokens.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, tok := range a {
		set[tok] = struct{}{}
	}

	intersection := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}
