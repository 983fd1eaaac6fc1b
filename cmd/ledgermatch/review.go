package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ledgermatch/internal/cli"
	"ledgermatch/internal/common"
	"ledgermatch/internal/config"
	"ledgermatch/internal/engine"
	"ledgermatch/internal/learning"
	"ledgermatch/internal/model"
	"ledgermatch/internal/service"
	"ledgermatch/internal/tui"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review proposed matches interactively",
		Long: `Run a match pass and walk through everything the engine could not
settle on its own: REVIEW-tier results, ambiguous ties, and accepted
matches below the auto threshold.

Accepting a match attaches the receipt and teaches the alias table;
rejecting records a negative example so the pair scores lower next time.`,
		RunE: runReview,
	}

	cmd.Flags().StringP("start-date", "s", "", "Start of the transaction window (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End of the transaction window (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 30, "Number of days to match (used if start/end dates not specified)")
	cmd.Flags().Bool("plain", false, "Use the line-based prompter instead of the full-screen interface")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")
	days, _ := cmd.Flags().GetInt("days")
	plain, _ := cmd.Flags().GetBool("plain")

	start, end, err := parseDateRange(startStr, endStr, days)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(os.Stdout)
	ctx := interrupts.HandleInterrupts(cmd.Context())

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	learner, err := initLearning(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to load learning data: %w", err)
	}

	transactions, err := store.GetUnmatchedTransactions(ctx, service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	receipts, err := store.GetReceiptsByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to load receipts: %w", err)
	}

	eng, err := engine.New(config.EngineConfig(), learner.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	result, err := eng.Match(ctx, transactions, receipts, nil)
	if err != nil {
		return fmt.Errorf("match run failed: %w", err)
	}

	items, err := buildReviewQueue(cmd, store, result)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(cli.FormatInfo("Nothing to review"))
		return nil
	}

	var decisions []cli.ReviewDecision
	if plain {
		prompter := cli.NewPrompter(os.Stdin, os.Stdout)
		decisions, err = prompter.ReviewMatches(ctx, items)
	} else {
		decisions, err = tui.Run(ctx, items)
	}
	if err != nil && !interrupts.WasInterrupted() {
		return fmt.Errorf("review session failed: %w", err)
	}

	return applyDecisions(cmd, store, learner, decisions)
}

// buildReviewQueue assembles review items for everything that needs a
// human: the explicit review queue plus accepted matches below AUTO_MATCH.
func buildReviewQueue(cmd *cobra.Command, store service.Storage, result *engine.BatchResult) ([]cli.ReviewItem, error) {
	ctx := cmd.Context()

	pending := result.NeedsReview
	for _, m := range result.Accepted {
		if m.Tier != model.TierAutoMatch {
			pending = append(pending, m)
		}
	}

	items := make([]cli.ReviewItem, 0, len(pending))
	for _, m := range pending {
		txn, err := store.GetTransactionByID(ctx, m.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transaction %s: %w", m.TransactionID, err)
		}
		receipt, err := store.GetReceiptByID(ctx, m.ReceiptID)
		if err != nil {
			return nil, fmt.Errorf("failed to load receipt %s: %w", m.ReceiptID, err)
		}
		items = append(items, cli.ReviewItem{
			Transaction: *txn,
			Receipt:     *receipt,
			Match:       m,
		})
	}
	return items, nil
}

// applyDecisions persists review outcomes: accepted matches attach the
// receipt and feed the alias table, rejections feed negative examples.
func applyDecisions(cmd *cobra.Command, store service.Storage, learner *learning.Store, decisions []cli.ReviewDecision) error {
	ctx := cmd.Context()

	retryOpts := service.RetryOptions{MaxAttempts: 3}
	recordFeedback := func(raw, canonical string, accept bool) error {
		return common.WithRetry(ctx, func() error {
			return learner.RecordFeedback(ctx, raw, canonical, accept)
		}, retryOpts)
	}

	accepted, rejected, skipped := 0, 0, 0
	for _, d := range decisions {
		switch d.Decision {
		case cli.DecisionAccept:
			if err := store.MarkTransactionMatched(ctx, d.Item.Transaction.ID, d.Item.Receipt.ID); err != nil {
				return fmt.Errorf("failed to attach receipt: %w", err)
			}
			if err := recordFeedback(d.Item.Transaction.RawMerchant, d.Item.Receipt.RawMerchant, true); err != nil {
				slog.Warn("Failed to record accept feedback",
					"transaction", d.Item.Transaction.ID, "error", err)
			}
			accepted++
		case cli.DecisionReject:
			if err := recordFeedback(d.Item.Transaction.RawMerchant, d.Item.Receipt.RawMerchant, false); err != nil {
				slog.Warn("Failed to record reject feedback",
					"transaction", d.Item.Transaction.ID, "error", err)
			}
			rejected++
		case cli.DecisionSkip:
			skipped++
		}
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Review complete: %d accepted, %d rejected, %d skipped", accepted, rejected, skipped)))
	return nil
}
