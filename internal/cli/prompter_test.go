package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgermatch/internal/model"
	"ledgermatch/internal/testutil"
)

func reviewItems(n int) []ReviewItem {
	items := make([]ReviewItem, 0, n)
	names := []string{"BLUE BOTTLE COFFEE", "MARIOS PIZZA", "SHELL OIL"}
	for i := 0; i < n; i++ {
		name := names[i%len(names)]
		items = append(items, ReviewItem{
			Transaction: testutil.NewTransaction("t"+string(rune('1'+i)), name, 42.17, testutil.Day(2026, 3, 10+i)),
			Receipt:     testutil.NewReceipt("r"+string(rune('1'+i)), name, 42.17, testutil.Day(2026, 3, 10+i)),
			Match: model.MatchResult{
				TransactionID: "t" + string(rune('1'+i)),
				ReceiptID:     "r" + string(rune('1'+i)),
				Confidence:    75,
				Tier:          model.TierHighConfidence,
				Reasoning:     "merchant 1.00 (+25.0), amount 1.00 (+55.0)",
			},
		})
	}
	return items
}

func TestReviewMatchesDecisions(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\nr\ns\n"), &out)

	decisions, err := p.ReviewMatches(context.Background(), reviewItems(3))
	require.NoError(t, err)
	require.Len(t, decisions, 3)

	assert.Equal(t, DecisionAccept, decisions[0].Decision)
	assert.Equal(t, DecisionReject, decisions[1].Decision)
	assert.Equal(t, DecisionSkip, decisions[2].Decision)
	assert.Contains(t, out.String(), "BLUE BOTTLE COFFEE")
}

func TestReviewMatchesQuitEarly(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\nq\n"), &out)

	decisions, err := p.ReviewMatches(context.Background(), reviewItems(3))
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, DecisionAccept, decisions[0].Decision)
}

func TestReviewMatchesInvalidChoiceReprompts(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("x\n\na\n"), &out)

	decisions, err := p.ReviewMatches(context.Background(), reviewItems(1))
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, DecisionAccept, decisions[0].Decision)
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestReviewMatchesCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\n"), &out)

	decisions, err := p.ReviewMatches(ctx, reviewItems(2))
	assert.Error(t, err)
	assert.Empty(t, decisions)
}

func TestReviewMatchesEmptyQueue(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	decisions, err := p.ReviewMatches(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
