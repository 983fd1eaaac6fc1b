// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"ledgermatch/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Storage defines the contract for our persistence layer. The matching
// engine itself never touches storage; it is used by the CLI to stage
// records and by the learning store to persist feedback.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetUnmatchedTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	MarkTransactionMatched(ctx context.Context, transactionID, receiptID string) error

	// Receipt operations
	SaveReceipts(ctx context.Context, receipts []model.Receipt) error
	GetReceiptsByDateRange(ctx context.Context, start, end time.Time) ([]model.Receipt, error)
	GetReceiptByID(ctx context.Context, id string) (*model.Receipt, error)

	// Alias table operations
	GetAlias(ctx context.Context, pattern string) (*model.AliasEntry, error)
	SaveAlias(ctx context.Context, alias *model.AliasEntry) error
	DeleteAlias(ctx context.Context, pattern string) error
	GetAllAliases(ctx context.Context) ([]model.AliasEntry, error)

	// Learning operations
	SaveNegativeExample(ctx context.Context, example *model.NegativeExample) error
	GetAllNegativeExamples(ctx context.Context) ([]model.NegativeExample, error)
	SaveFeedbackEvent(ctx context.Context, event *model.FeedbackEvent) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
