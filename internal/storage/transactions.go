package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
	"ledgermatch/internal/service"
)

// SaveTransactions stores a batch of transactions, skipping duplicates by
// content hash so re-importing the same statement is safe.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (id, hash, date, raw_merchant, merchant, description, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.ID == "" {
			return fmt.Errorf("transaction %d has empty id", i)
		}
		if txn.RawMerchant == "" {
			return fmt.Errorf("transaction %s has empty raw merchant", txn.ID)
		}

		_, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.GenerateHash(),
			txn.Date.UTC(),
			txn.RawMerchant,
			txn.Merchant,
			txn.Description,
			txn.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

// GetUnmatchedTransactions returns transactions without an attached
// receipt, newest first, honoring the optional date range and limit.
func (s *SQLiteStorage) GetUnmatchedTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, date, raw_merchant, merchant, description, amount, receipt_id
		FROM transactions
		WHERE receipt_id IS NULL`
	var args []any

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, filter.EndDate.UTC())
	}
	query += " ORDER BY date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, raw_merchant, merchant, description, amount, receipt_id
		FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// MarkTransactionMatched attaches a receipt to a transaction. Both records
// must exist and the receipt must not already be attached elsewhere.
func (s *SQLiteStorage) MarkTransactionMatched(ctx context.Context, transactionID, receiptID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}
	if err := validateString(receiptID, "receiptID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM receipts WHERE id = ?", receiptID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check receipt: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("receipt %s: %w", receiptID, common.ErrNotFound)
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE receipt_id = ? AND id != ?", receiptID, transactionID).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check receipt assignment: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("receipt %s already attached to another transaction: %w", receiptID, common.ErrDuplicateEntry)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE transactions SET receipt_id = ? WHERE id = ?", receiptID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction matched: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var amountStr string
	var receiptID sql.NullString

	err := row.Scan(&txn.ID, &txn.Date, &txn.RawMerchant, &txn.Merchant, &txn.Description, &amountStr, &receiptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if strings.Contains(err.Error(), "database disk image is malformed") {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabaseCorrupted, err)
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	txn.Date = txn.Date.UTC()
	txn.HasReceipt = receiptID.Valid

	return &txn, nil
}

var _ service.Storage = (*SQLiteStorage)(nil)
