package model

import "time"

// FeedbackEvent records a human decision on a proposed match. Accepted
// events strengthen the alias table; rejected events become negative
// examples that cap future fuzzy merchant scores for the same pair.
type FeedbackEvent struct {
	CreatedAt   time.Time
	ID          string
	RawMerchant string
	Canonical   string
	Accepted    bool
}

// NegativeExample marks a (raw merchant, canonical) pair a human has
// rejected. The merchant matcher caps its fuzzy score for this pair below
// the gate on subsequent runs.
type NegativeExample struct {
	CreatedAt   time.Time
	RawMerchant string
	Canonical   string
}
