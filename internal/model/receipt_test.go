package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReceiptEffectiveTotal(t *testing.T) {
	d := func(v float64) *decimal.Decimal {
		dec := decimal.NewFromFloat(v)
		return &dec
	}

	t.Run("printed total wins", func(t *testing.T) {
		r := Receipt{Total: decimal.NewFromFloat(50), Subtotal: d(40)}
		total, estimated := r.EffectiveTotal()
		assert.True(t, total.Equal(decimal.NewFromFloat(50)))
		assert.False(t, estimated)
	})

	t.Run("components summed when total missing", func(t *testing.T) {
		r := Receipt{Subtotal: d(40), Tax: d(3.50), Tip: d(6.50)}
		total, estimated := r.EffectiveTotal()
		assert.True(t, total.Equal(decimal.NewFromFloat(50)))
		assert.True(t, estimated)
	})

	t.Run("partial components still sum", func(t *testing.T) {
		r := Receipt{Subtotal: d(40)}
		total, estimated := r.EffectiveTotal()
		assert.True(t, total.Equal(decimal.NewFromFloat(40)))
		assert.True(t, estimated)
	})

	t.Run("nothing available", func(t *testing.T) {
		r := Receipt{}
		total, estimated := r.EffectiveTotal()
		assert.True(t, total.IsZero())
		assert.False(t, estimated)
	})
}

func TestReceiptHasDate(t *testing.T) {
	assert.False(t, (&Receipt{}).HasDate())
	assert.True(t, (&Receipt{Date: time.Now()}).HasDate())
}

func TestTransactionHashStable(t *testing.T) {
	base := Transaction{
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		RawMerchant: "SQ *BLUE BOTTLE",
		Amount:      decimal.NewFromFloat(42.17),
	}

	same := base
	assert.Equal(t, base.GenerateHash(), same.GenerateHash())

	shifted := base
	shifted.Amount = decimal.NewFromFloat(42.18)
	assert.NotEqual(t, base.GenerateHash(), shifted.GenerateHash())
}
