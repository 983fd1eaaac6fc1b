package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"ledgermatch/internal/model"
)

// Decision is the outcome of reviewing one proposed match.
type Decision int

const (
	// DecisionSkip leaves the proposal undecided.
	DecisionSkip Decision = iota
	// DecisionAccept confirms the proposal.
	DecisionAccept
	// DecisionReject marks the proposal wrong.
	DecisionReject
)

// ReviewItem is one proposed match with the records it joins, presented to
// the reviewer together.
type ReviewItem struct {
	Transaction model.Transaction
	Receipt     model.Receipt
	Match       model.MatchResult
}

// ReviewDecision pairs a reviewed item with the human verdict.
type ReviewDecision struct {
	Item     ReviewItem
	Decision Decision
}

// Prompter runs the interactive review session over proposals the engine
// could not settle on its own.
type Prompter struct {
	writer io.Writer
	reader *LineReader
}

// NewPrompter creates a review prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		writer: writer,
		reader: NewLineReader(reader),
	}
}

// ReviewMatches walks the reviewer through each proposal and collects
// decisions. Quitting early or cancellation returns the decisions made so
// far; items never shown carry no decision at all.
func (p *Prompter) ReviewMatches(ctx context.Context, items []ReviewItem) ([]ReviewDecision, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if _, err := fmt.Fprintln(p.writer, FormatTitle(fmt.Sprintf("Reviewing %d proposed matches", len(items)))); err != nil {
		return nil, fmt.Errorf("failed to write review header: %w", err)
	}

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription("Reviewing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	decisions := make([]ReviewDecision, 0, len(items))
	for _, item := range items {
		select {
		case <-ctx.Done():
			return decisions, ctx.Err()
		default:
		}

		if _, err := fmt.Fprintln(p.writer, "\n"+RenderBox("Proposed Match", p.formatItem(item))); err != nil {
			return decisions, fmt.Errorf("failed to write match box: %w", err)
		}

		choice, err := p.promptChoice(ctx, "[a]ccept / [r]eject / [s]kip / [q]uit", []string{"a", "r", "s", "q"})
		if err != nil {
			return decisions, err
		}

		switch choice {
		case "a":
			decisions = append(decisions, ReviewDecision{Item: item, Decision: DecisionAccept})
			p.println(FormatSuccess("Match accepted"))
		case "r":
			decisions = append(decisions, ReviewDecision{Item: item, Decision: DecisionReject})
			p.println(FormatWarning("Match rejected"))
		case "s":
			decisions = append(decisions, ReviewDecision{Item: item, Decision: DecisionSkip})
			p.println(SubtleStyle.Render("Skipped"))
		case "q":
			p.println(FormatInfo("Review session ended early"))
			return decisions, nil
		}

		_ = bar.Add(1)
	}

	_ = bar.Finish()
	return decisions, nil
}

func (p *Prompter) formatItem(item ReviewItem) string {
	var b strings.Builder

	txnDate := item.Transaction.Date.Format("2006-01-02")
	fmt.Fprintf(&b, "%s  %s  %s\n",
		BoldStyle.Render("Transaction"),
		txnDate,
		item.Transaction.AbsAmount().StringFixed(2))
	fmt.Fprintf(&b, "  %s\n", item.Transaction.RawMerchant)
	if item.Transaction.Description != "" {
		fmt.Fprintf(&b, "  %s\n", SubtleStyle.Render(item.Transaction.Description))
	}

	receiptDate := "no date"
	if item.Receipt.HasDate() {
		receiptDate = item.Receipt.Date.Format("2006-01-02")
	}
	total, estimated := item.Receipt.EffectiveTotal()
	totalLabel := total.StringFixed(2)
	if estimated {
		totalLabel += " (estimated)"
	}
	fmt.Fprintf(&b, "%s      %s  %s\n",
		BoldStyle.Render("Receipt"),
		receiptDate,
		totalLabel)
	fmt.Fprintf(&b, "  %s\n\n", item.Receipt.RawMerchant)

	tier := TierStyle(string(item.Match.Tier)).Render(string(item.Match.Tier))
	fmt.Fprintf(&b, "Confidence %.1f  %s\n", item.Match.Confidence, tier)
	fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(item.Match.Reasoning))

	if flags := item.Match.Flags.List(); len(flags) > 0 {
		labels := make([]string, len(flags))
		for i, f := range flags {
			labels[i] = string(f)
		}
		fmt.Fprintf(&b, "Flags: %s\n", WarningStyle.Render(strings.Join(labels, ", ")))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}

		p.println(FormatWarning(fmt.Sprintf("Invalid choice %q", line)))
	}
}

func (p *Prompter) println(msg string) {
	_, _ = fmt.Fprintln(p.writer, msg)
}
