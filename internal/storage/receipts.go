package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
)

// SaveReceipts stores a batch of receipts. Existing ids are replaced so a
// re-extraction of the same receipt updates it in place.
func (s *SQLiteStorage) SaveReceipts(ctx context.Context, receipts []model.Receipt) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(receipts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO receipts
			(id, date, raw_merchant, merchant, source, total, subtotal, tax, tip, extraction_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range receipts {
		receipt := &receipts[i]
		if receipt.ID == "" {
			return fmt.Errorf("receipt %d has empty id", i)
		}
		if receipt.RawMerchant == "" {
			return fmt.Errorf("receipt %s has empty raw merchant", receipt.ID)
		}

		var date any
		if receipt.HasDate() {
			date = receipt.Date.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			receipt.ID,
			date,
			receipt.RawMerchant,
			receipt.Merchant,
			receipt.Source,
			receipt.Total.String(),
			decimalPtrString(receipt.Subtotal),
			decimalPtrString(receipt.Tax),
			decimalPtrString(receipt.Tip),
			receipt.ExtractionConfidence,
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt %s: %w", receipt.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipts: %w", err)
	}
	return nil
}

// GetReceiptsByDateRange returns receipts dated within [start, end].
// Receipts with no extracted date are always included; they may still
// match any transaction in the window.
func (s *SQLiteStorage) GetReceiptsByDateRange(ctx context.Context, start, end time.Time) ([]model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, raw_merchant, merchant, source, total, subtotal, tax, tip, extraction_confidence
		FROM receipts
		WHERE date IS NULL OR (date >= ? AND date <= ?)
		ORDER BY date, id`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []model.Receipt
	for rows.Next() {
		receipt, scanErr := scanReceipt(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		receipts = append(receipts, *receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	return receipts, nil
}

// GetReceiptByID retrieves a single receipt.
func (s *SQLiteStorage) GetReceiptByID(ctx context.Context, id string) (*model.Receipt, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, raw_merchant, merchant, source, total, subtotal, tax, tip, extraction_confidence
		FROM receipts WHERE id = ?`, id)

	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func scanReceipt(row rowScanner) (*model.Receipt, error) {
	var receipt model.Receipt
	var date sql.NullTime
	var totalStr string
	var subtotal, tax, tip sql.NullString

	err := row.Scan(&receipt.ID, &date, &receipt.RawMerchant, &receipt.Merchant,
		&receipt.Source, &totalStr, &subtotal, &tax, &tip, &receipt.ExtractionConfidence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}

	if date.Valid {
		receipt.Date = date.Time.UTC()
	}

	receipt.Total, err = decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total %q: %w", totalStr, err)
	}
	if receipt.Subtotal, err = decimalPtrFromNull(subtotal); err != nil {
		return nil, err
	}
	if receipt.Tax, err = decimalPtrFromNull(tax); err != nil {
		return nil, err
	}
	if receipt.Tip, err = decimalPtrFromNull(tip); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func decimalPtrString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtrFromNull(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse decimal %q: %w", v.String, err)
	}
	return &d, nil
}
