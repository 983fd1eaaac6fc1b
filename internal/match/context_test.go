package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledgermatch/internal/model"
)

func TestContextBoost(t *testing.T) {
	b := NewContextBooster(DefaultContextConfig())
	txn := &model.Transaction{
		ID:          "t1",
		RawMerchant: "HILTON GARDEN INN PORTLAND",
		Description: "lodging during conference",
	}

	tests := []struct {
		name  string
		hints model.ContextHints
		want  float64
	}{
		{"no hints", model.ContextHints{}, 0},
		{
			"keyword hit",
			model.ContextHints{CalendarKeywords: []string{"conference"}},
			10,
		},
		{
			"contact hit",
			model.ContextHints{ContactNames: []string{"Hilton"}},
			5,
		},
		{
			"both capped at max",
			model.ContextHints{
				CalendarKeywords: []string{"conference", "portland"},
				ContactNames:     []string{"hilton"},
			},
			15,
		},
		{
			"no overlap",
			model.ContextHints{CalendarKeywords: []string{"dentist"}},
			0,
		},
		{
			"blank hints ignored",
			model.ContextHints{CalendarKeywords: []string{"  ", ""}},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, b.Boost(txn, tt.hints), 0.001)
		})
	}
}
