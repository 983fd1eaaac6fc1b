package storage

import (
	"context"
	"fmt"
	"time"

	"ledgermatch/internal/model"
)

// SaveNegativeExample records a rejected (raw merchant, canonical) pair.
// Re-recording the same pair is a no-op.
func (s *SQLiteStorage) SaveNegativeExample(ctx context.Context, example *model.NegativeExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if example == nil {
		return fmt.Errorf("example cannot be nil")
	}
	if err := validateString(example.RawMerchant, "rawMerchant"); err != nil {
		return err
	}
	if err := validateString(example.Canonical, "canonical"); err != nil {
		return err
	}

	createdAt := example.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO negative_examples (raw_merchant, canonical, created_at)
		VALUES (?, ?, ?)`,
		example.RawMerchant, example.Canonical, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save negative example: %w", err)
	}
	return nil
}

// GetAllNegativeExamples returns every rejected pair.
func (s *SQLiteStorage) GetAllNegativeExamples(ctx context.Context) ([]model.NegativeExample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT raw_merchant, canonical, created_at
		FROM negative_examples ORDER BY raw_merchant, canonical`)
	if err != nil {
		return nil, fmt.Errorf("failed to query negative examples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var examples []model.NegativeExample
	for rows.Next() {
		var example model.NegativeExample
		if err := rows.Scan(&example.RawMerchant, &example.Canonical, &example.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan negative example: %w", err)
		}
		example.CreatedAt = example.CreatedAt.UTC()
		examples = append(examples, example)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate negative examples: %w", err)
	}

	return examples, nil
}

// SaveFeedbackEvent appends a human decision to the feedback log. The log
// is append-only; events are never updated or deleted.
func (s *SQLiteStorage) SaveFeedbackEvent(ctx context.Context, event *model.FeedbackEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := validateString(event.ID, "id"); err != nil {
		return err
	}
	if err := validateString(event.RawMerchant, "rawMerchant"); err != nil {
		return err
	}
	if err := validateString(event.Canonical, "canonical"); err != nil {
		return err
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_events (id, raw_merchant, canonical, accepted, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.RawMerchant, event.Canonical, event.Accepted, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save feedback event: %w", err)
	}
	return nil
}
