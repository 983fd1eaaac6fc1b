package engine

import (
	"sort"

	"ledgermatch/internal/model"
)

// Resolution is the outcome of collision resolution for one batch.
type Resolution struct {
	// Accepted holds the conflict-free one-to-one assignment.
	Accepted []model.MatchResult
	// NeedsReview holds edges that could not be accepted outright:
	// true ties within epsilon and the best edges of entities that lost
	// every candidate, all flagged ambiguous.
	NeedsReview []model.MatchResult
}

// ResolveCollisions reduces the candidate bipartite graph to a valid
// one-to-one assignment. Edges are processed in descending confidence
// order; ties break by smallest absolute amount difference, then lowest
// receipt id, then transaction id, so the pass is fully deterministic.
// It mutates shared assignment state and must run sequentially, once per
// batch, after all pairwise scores exist.
func ResolveCollisions(candidates []model.MatchResult, epsilon float64) Resolution {
	sortCandidates(candidates)

	txEdges := make(map[string]int)
	rcEdges := make(map[string]int)
	for _, c := range candidates {
		txEdges[c.TransactionID]++
		rcEdges[c.ReceiptID]++
	}

	txTaken := make(map[string]bool)
	rcTaken := make(map[string]bool)
	emitted := make(map[string]bool)

	var resolution Resolution

	for i, edge := range candidates {
		if txTaken[edge.TransactionID] || rcTaken[edge.ReceiptID] {
			continue
		}

		txTaken[edge.TransactionID] = true
		rcTaken[edge.ReceiptID] = true
		emitted[edgeKey(edge)] = true

		if hasTrueTie(candidates, i, txTaken, rcTaken, epsilon) {
			// Scores within epsilon and identical amount difference:
			// nothing but ordering separates the contenders, so demand a
			// human decision instead of choosing arbitrarily.
			resolution.NeedsReview = append(resolution.NeedsReview, downgrade(edge))
			continue
		}

		resolution.Accepted = append(resolution.Accepted, edge)
	}

	// Entities that had several candidates but lost all of them keep
	// their best edge as a review proposal.
	for _, edge := range candidates {
		if emitted[edgeKey(edge)] {
			continue
		}
		multiTx := !txTaken[edge.TransactionID] && txEdges[edge.TransactionID] > 1
		multiRc := !rcTaken[edge.ReceiptID] && rcEdges[edge.ReceiptID] > 1
		if !multiTx && !multiRc {
			continue
		}

		emitted[edgeKey(edge)] = true
		if multiTx {
			txTaken[edge.TransactionID] = true
		}
		if multiRc {
			rcTaken[edge.ReceiptID] = true
		}
		resolution.NeedsReview = append(resolution.NeedsReview, downgrade(edge))
	}

	return resolution
}

// hasTrueTie reports whether another viable edge contends with
// candidates[i] so closely that picking one would be arbitrary: it shares
// an endpoint, its confidence is within epsilon, and its absolute amount
// difference is equal to the cent.
func hasTrueTie(candidates []model.MatchResult, i int, txTaken, rcTaken map[string]bool, epsilon float64) bool {
	edge := candidates[i]
	for j := i + 1; j < len(candidates); j++ {
		other := candidates[j]
		if edge.Confidence-other.Confidence > epsilon {
			break
		}
		if other.TransactionID != edge.TransactionID && other.ReceiptID != edge.ReceiptID {
			continue
		}
		if other.TransactionID != edge.TransactionID && txTaken[other.TransactionID] {
			continue
		}
		if other.ReceiptID != edge.ReceiptID && rcTaken[other.ReceiptID] {
			continue
		}
		if edge.AmountDiff.Abs().Sub(other.AmountDiff.Abs()).Abs().LessThanOrEqual(centTolerance) {
			return true
		}
	}
	return false
}

// downgrade caps an edge at REVIEW and marks it ambiguous. Edges already
// at or below REVIEW keep their tier.
func downgrade(edge model.MatchResult) model.MatchResult {
	edge.Flags = edge.Flags.Clone()
	edge.Flags.Add(model.FlagAmbiguous)
	if edge.Tier == model.TierAutoMatch || edge.Tier == model.TierHighConfidence {
		edge.Tier = model.TierReview
	}
	return edge
}

func sortCandidates(candidates []model.MatchResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if cmp := a.AmountDiff.Abs().Cmp(b.AmountDiff.Abs()); cmp != 0 {
			return cmp < 0
		}
		if a.ReceiptID != b.ReceiptID {
			return a.ReceiptID < b.ReceiptID
		}
		return a.TransactionID < b.TransactionID
	})
}

func edgeKey(edge model.MatchResult) string {
	return edge.TransactionID + "\x1f" + edge.ReceiptID
}
