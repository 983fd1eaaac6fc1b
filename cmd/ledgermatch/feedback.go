package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgermatch/internal/cli"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <raw-merchant> <canonical>",
		Short: "Record a merchant correspondence decision directly",
		Long: `Record an accept or reject decision for a merchant pair without a
review session. Accepting teaches the alias table; rejecting records a
negative example that caps the pair's fuzzy score on later runs.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeedback,
	}

	cmd.Flags().Bool("reject", false, "Record a rejection instead of an acceptance")

	return cmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reject, _ := cmd.Flags().GetBool("reject")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	learner, err := initLearning(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to load learning data: %w", err)
	}

	if err := learner.RecordFeedback(ctx, args[0], args[1], !reject); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if reject {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded rejection: %q is not %q", args[0], args[1])))
	} else {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded acceptance: %q → %q", args[0], args[1])))
	}
	return nil
}
