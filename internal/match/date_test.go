package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgermatch/internal/model"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func receiptOn(d int) *model.Receipt {
	return &model.Receipt{ID: "r1", RawMerchant: "vendor", Date: day(d)}
}

func TestDateCompareDecay(t *testing.T) {
	m := NewDateMatcher(DefaultDateConfig())

	tests := []struct {
		name      string
		txDay     int
		rcDay     int
		wantScore float64
		daysApart int
	}{
		{"same day", 10, 10, 1.0, 0},
		{"one day apart", 11, 10, 1.0 - 1.0/7.0, 1},
		{"three days apart", 10, 13, 1.0 - 3.0/7.0, 3},
		{"window edge", 10, 17, 0.0, 7},
		{"outside window", 10, 20, 0.0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := m.Compare(day(tt.txDay), receiptOn(tt.rcDay), "vendor")
			assert.InDelta(t, tt.wantScore, score.Score, 0.001)
			assert.Equal(t, tt.daysApart, score.DaysApart)
			assert.False(t, score.Missing)
		})
	}
}

func TestDateCompareTimeOfDayIgnored(t *testing.T) {
	m := NewDateMatcher(DefaultDateConfig())

	late := time.Date(2026, time.March, 10, 23, 55, 0, 0, time.UTC)
	score := m.Compare(late, receiptOn(10), "vendor")
	assert.InDelta(t, 1.0, score.Score, 0.001)
}

func TestDateCompareMissing(t *testing.T) {
	m := NewDateMatcher(DefaultDateConfig())

	score := m.Compare(day(10), &model.Receipt{ID: "r1", RawMerchant: "vendor"}, "vendor")
	assert.InDelta(t, 0.5, score.Score, 0.001)
	assert.True(t, score.Missing)
}

func TestDateCompareCategoryWindow(t *testing.T) {
	cfg := DefaultDateConfig()
	cfg.MerchantCategories = map[string]string{"delta air": "travel"}
	m := NewDateMatcher(cfg)

	// Ten days out: dead in the default window, alive in the travel window.
	normal := m.Compare(day(10), receiptOn(20), "corner store")
	assert.Equal(t, 0.0, normal.Score)

	travel := m.Compare(day(10), receiptOn(20), "delta air")
	assert.InDelta(t, 1.0-10.0/14.0, travel.Score, 0.001)
}
