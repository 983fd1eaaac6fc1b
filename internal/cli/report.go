package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"ledgermatch/internal/engine"
	"ledgermatch/internal/model"
)

// RenderBatchReport writes the human-readable summary of a match run:
// counts per tier, the accepted assignments, the review queue, and what
// remains unmatched on each side.
func RenderBatchReport(w io.Writer, result *engine.BatchResult) error {
	var b strings.Builder

	b.WriteString(FormatTitle("Match Run Summary") + "\n")
	b.WriteString(renderRunStats(result) + "\n")

	if len(result.Accepted) > 0 {
		b.WriteString("\n" + TitleStyle.UnsetMargins().Render("Accepted") + "\n")
		b.WriteString(renderMatchTable(result.Accepted))
	}
	if len(result.NeedsReview) > 0 {
		b.WriteString("\n" + WarningStyle.Bold(true).Render("Needs review") + "\n")
		b.WriteString(renderMatchTable(result.NeedsReview))
	}
	if len(result.UnmatchedTransactionIDs) > 0 {
		b.WriteString("\n" + SubtleStyle.Render(fmt.Sprintf("Unmatched transactions: %s",
			strings.Join(result.UnmatchedTransactionIDs, ", "))) + "\n")
	}
	if len(result.UnmatchedReceiptIDs) > 0 {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Unmatched receipts: %s",
			strings.Join(result.UnmatchedReceiptIDs, ", "))) + "\n")
	}

	_, err := fmt.Fprint(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderRunStats(result *engine.BatchResult) string {
	run := result.Run
	lines := []string{
		fmt.Sprintf("%s %d transactions × %d receipts in %s",
			ChartIcon, run.TotalTransactions, run.TotalReceipts, run.Duration().Round(time.Millisecond)),
		fmt.Sprintf("  %s  %s  %s",
			SuccessStyle.Render(fmt.Sprintf("auto %d", run.AutoMatched)),
			InfoStyle.Render(fmt.Sprintf("high %d", run.HighConfidence)),
			WarningStyle.Render(fmt.Sprintf("review %d", run.NeedsReview))),
		fmt.Sprintf("  %s",
			SubtleStyle.Render(fmt.Sprintf("unmatched: %d transactions, %d receipts",
				run.UnmatchedTransaction, run.UnmatchedReceipts))),
	}
	return strings.Join(lines, "\n")
}

func renderMatchTable(matches []model.MatchResult) string {
	var b strings.Builder
	header := fmt.Sprintf("%-14s %-14s %6s  %-15s %s",
		"TRANSACTION", "RECEIPT", "CONF", "TIER", "FLAGS")
	b.WriteString(TableHeaderStyle.Render(header) + "\n")

	for _, m := range matches {
		flags := m.Flags.List()
		labels := make([]string, len(flags))
		for i, f := range flags {
			labels[i] = string(f)
		}
		row := fmt.Sprintf("%-14s %-14s %6.1f  %-15s %s",
			truncate(m.TransactionID, 14),
			truncate(m.ReceiptID, 14),
			m.Confidence,
			TierStyle(string(m.Tier)).Render(string(m.Tier)),
			SubtleStyle.Render(strings.Join(labels, ",")))
		b.WriteString(row + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
