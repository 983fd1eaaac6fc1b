package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ledgermatch/internal/cli"
	"ledgermatch/internal/config"
	"ledgermatch/internal/engine"
	"ledgermatch/internal/model"
	"ledgermatch/internal/service"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Score transactions against receipts",
		Long: `Score every unmatched transaction against candidate receipts and
resolve the results into a one-to-one assignment.

AUTO_MATCH results are applied to the database when --apply is set;
everything in the review queue is left for 'ledgermatch review'.`,
		RunE: runMatch,
	}

	cmd.Flags().StringP("start-date", "s", "", "Start of the transaction window (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End of the transaction window (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 30, "Number of days to match (used if start/end dates not specified)")
	cmd.Flags().Bool("apply", false, "Attach auto-matched receipts to their transactions")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")
	days, _ := cmd.Flags().GetInt("days")
	apply, _ := cmd.Flags().GetBool("apply")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	start, end, err := parseDateRange(startStr, endStr, days)
	if err != nil {
		return err
	}

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

	slog.Info("Loaded batch",
		"transactions", len(transactions),
		"receipts", len(receipts),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"))

	cfg := config.EngineConfig()
	if !noProgress && len(transactions) > 0 {
		bar := progressbar.NewOptions(len(transactions),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Scoring"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		cfg.OnProgress = func(completed, _ int) {
			_ = bar.Set(completed)
		}
	}

	eng, err := engine.New(cfg, learner.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	result, err := eng.Match(ctx, transactions, receipts, nil)
	if err != nil {
		return fmt.Errorf("match run failed: %w", err)
	}

	if err := cli.RenderBatchReport(os.Stdout, result); err != nil {
		return err
	}

	if apply {
		return applyAutoMatches(cmd, store, result)
	}
	return nil
}

// applyAutoMatches attaches receipts for AUTO_MATCH results only. Lower
// tiers always go through review, no matter how close to the threshold.
func applyAutoMatches(cmd *cobra.Command, store service.Storage, result *engine.BatchResult) error {
	ctx := cmd.Context()

	applied := 0
	for _, m := range result.Accepted {
		if m.Tier != model.TierAutoMatch {
			continue
		}
		if err := store.MarkTransactionMatched(ctx, m.TransactionID, m.ReceiptID); err != nil {
			return fmt.Errorf("failed to attach receipt %s to transaction %s: %w",
				m.ReceiptID, m.TransactionID, err)
		}
		applied++
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Applied %d auto-matches", applied)))
	return nil
}
