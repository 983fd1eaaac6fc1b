package model

import "time"

// MatchRun summarizes one batch scoring run.
type MatchRun struct {
	StartedAt            time.Time
	CompletedAt          time.Time
	ID                   string
	TotalTransactions    int
	TotalReceipts        int
	AutoMatched          int
	HighConfidence       int
	NeedsReview          int
	UnmatchedTransaction int
	UnmatchedReceipts    int
}

// Duration returns the elapsed wall time of the run.
func (r *MatchRun) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
