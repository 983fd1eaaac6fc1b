package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledgermatch/internal/cli"
	"ledgermatch/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions or receipts from JSON",
		Long: `Import records exported by a bank feed or receipt extractor.

Transactions are deduplicated by content hash, so importing the same
statement twice is safe. Receipts are keyed by id and re-imports update
in place.`,
	}

	cmd.AddCommand(importTransactionsCmd())
	cmd.AddCommand(importReceiptsCmd())

	return cmd
}

// transactionRecord is the wire format for one imported transaction.
type transactionRecord struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// receiptRecord is the wire format for one imported receipt.
type receiptRecord struct {
	ID                   string           `json:"id"`
	Date                 string           `json:"date"`
	Merchant             string           `json:"merchant"`
	Source               string           `json:"source"`
	Total                decimal.Decimal  `json:"total"`
	Subtotal             *decimal.Decimal `json:"subtotal"`
	Tax                  *decimal.Decimal `json:"tax"`
	Tip                  *decimal.Decimal `json:"tip"`
	ExtractionConfidence float64          `json:"extraction_confidence"`
}

func importTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions <file>",
		Short: "Import bank transactions from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportTransactions,
	}
	cmd.Flags().Bool("dry-run", false, "Parse and report without saving")
	return cmd
}

func runImportTransactions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var records []transactionRecord
	if err := readJSONFile(args[0], &records); err != nil {
		return err
	}

	transactions := make([]model.Transaction, 0, len(records))
	for i, rec := range records {
		if rec.Merchant == "" {
			return fmt.Errorf("transaction %d has no merchant", i)
		}
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return fmt.Errorf("transaction %d has invalid date %q: %w", i, rec.Date, err)
		}

		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		transactions = append(transactions, model.Transaction{
			ID:          id,
			Date:        date,
			RawMerchant: rec.Merchant,
			Description: rec.Description,
			Amount:      rec.Amount,
		})
	}

	if dryRun {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Dry run: %d transactions parsed, nothing saved", len(transactions))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", len(transactions))))
	return nil
}

func importReceiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts <file>",
		Short: "Import extracted receipts from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportReceipts,
	}
	cmd.Flags().Bool("dry-run", false, "Parse and report without saving")
	return cmd
}

func runImportReceipts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var records []receiptRecord
	if err := readJSONFile(args[0], &records); err != nil {
		return err
	}

	receipts := make([]model.Receipt, 0, len(records))
	for i, rec := range records {
		if rec.Merchant == "" {
			return fmt.Errorf("receipt %d has no merchant", i)
		}

		// A missing date is data, not an error; the engine scores it
		// neutrally.
		var date time.Time
		if rec.Date != "" {
			var err error
			date, err = time.Parse("2006-01-02", rec.Date)
			if err != nil {
				return fmt.Errorf("receipt %d has invalid date %q: %w", i, rec.Date, err)
			}
		}

		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		receipts = append(receipts, model.Receipt{
			ID:                   id,
			Date:                 date,
			RawMerchant:          rec.Merchant,
			Source:               rec.Source,
			Total:                rec.Total,
			Subtotal:             rec.Subtotal,
			Tax:                  rec.Tax,
			Tip:                  rec.Tip,
			ExtractionConfidence: rec.ExtractionConfidence,
		})
	}

	if dryRun {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Dry run: %d receipts parsed, nothing saved", len(receipts))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveReceipts(ctx, receipts); err != nil {
		return fmt.Errorf("failed to save receipts: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d receipts", len(receipts))))
	return nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
