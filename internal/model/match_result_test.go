package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForPartition(t *testing.T) {
	thresholds := DefaultTierThresholds()

	tests := []struct {
		confidence float64
		want       Tier
	}{
		{100, TierAutoMatch},
		{85, TierAutoMatch},
		{84.999, TierHighConfidence},
		{70, TierHighConfidence},
		{69.999, TierReview},
		{50, TierReview},
		{49.999, TierLowConfidence},
		{30, TierLowConfidence},
		{29.999, TierNoMatch},
		{0, TierNoMatch},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, thresholds.TierFor(tt.confidence),
			"confidence %.3f", tt.confidence)
	}
}

func TestFlagSet(t *testing.T) {
	var flags FlagSet

	assert.False(t, flags.Has(FlagTipLikely))
	assert.Empty(t, flags.List())

	flags.Add(FlagTipLikely)
	flags.Add(FlagAmbiguous)
	flags.Add(FlagTipLikely) // duplicate is a no-op

	assert.True(t, flags.Has(FlagTipLikely))
	assert.True(t, flags.Has(FlagAmbiguous))
	assert.Equal(t, []Flag{FlagAmbiguous, FlagTipLikely}, flags.List())
}

func TestFlagSetCloneIndependent(t *testing.T) {
	var flags FlagSet
	flags.Add(FlagTipLikely)

	clone := flags.Clone()
	clone.Add(FlagAmbiguous)

	assert.False(t, flags.Has(FlagAmbiguous))
	assert.True(t, clone.Has(FlagTipLikely))

	var nilSet FlagSet
	assert.Nil(t, nilSet.Clone())
}
