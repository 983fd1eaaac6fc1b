package main

import (
	"context"
	"fmt"
	"time"

	"ledgermatch/internal/config"
	"ledgermatch/internal/learning"
	"ledgermatch/internal/service"
	"ledgermatch/internal/storage"
)

// initStorage opens the database at its configured location and brings the
// schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initLearning loads the learning store and its initial snapshot. A failed
// refresh is not fatal: matching degrades to no alias table.
func initLearning(ctx context.Context, store service.Storage) (*learning.Store, error) {
	learner := learning.NewStore(store)
	if err := learner.Refresh(ctx); err != nil {
		return nil, err
	}
	return learner, nil
}

// parseDateRange resolves --start-date/--end-date/--days into a concrete
// range ending today.
func parseDateRange(startStr, endStr string, days int) (start, end time.Time, err error) {
	end = time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
	}

	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
	} else {
		if days <= 0 {
			days = 30
		}
		start = end.AddDate(0, 0, -days)
	}

	if start.After(end) {
		return start, end, fmt.Errorf("start date %s after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return start, end, nil
}
