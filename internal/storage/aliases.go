package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
)

// GetAlias retrieves an alias entry by its exact pattern.
func (s *SQLiteStorage) GetAlias(ctx context.Context, pattern string) (*model.AliasEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return nil, err
	}

	var alias model.AliasEntry
	var source string
	err := s.db.QueryRowContext(ctx, `
		SELECT pattern, canonical, source, use_count, last_updated
		FROM aliases WHERE pattern = ?`, pattern).
		Scan(&alias.Pattern, &alias.Canonical, &source, &alias.UseCount, &alias.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alias %q: %w", pattern, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alias: %w", err)
	}

	alias.Source = model.AliasSource(source)
	alias.LastUpdated = alias.LastUpdated.UTC()
	return &alias, nil
}

// SaveAlias inserts or replaces an alias mapping. The table is
// last-writer-wins per pattern key.
func (s *SQLiteStorage) SaveAlias(ctx context.Context, alias *model.AliasEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if alias == nil {
		return fmt.Errorf("alias cannot be nil")
	}
	if err := validateString(alias.Pattern, "pattern"); err != nil {
		return err
	}
	if err := validateString(alias.Canonical, "canonical"); err != nil {
		return err
	}

	source := alias.Source
	if source == "" {
		source = model.AliasSourceManual
	}
	lastUpdated := alias.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aliases (pattern, canonical, source, use_count, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pattern) DO UPDATE SET
			canonical = excluded.canonical,
			source = excluded.source,
			use_count = excluded.use_count,
			last_updated = excluded.last_updated`,
		alias.Pattern, alias.Canonical, string(source), alias.UseCount, lastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save alias: %w", err)
	}
	return nil
}

// DeleteAlias removes an alias mapping.
func (s *SQLiteStorage) DeleteAlias(ctx context.Context, pattern string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM aliases WHERE pattern = ?", pattern)
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alias %q: %w", pattern, common.ErrNotFound)
	}
	return nil
}

// GetAllAliases returns every alias mapping, ordered by pattern.
func (s *SQLiteStorage) GetAllAliases(ctx context.Context) ([]model.AliasEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, canonical, source, use_count, last_updated
		FROM aliases ORDER BY pattern`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var aliases []model.AliasEntry
	for rows.Next() {
		var alias model.AliasEntry
		var source string
		if err := rows.Scan(&alias.Pattern, &alias.Canonical, &source, &alias.UseCount, &alias.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		alias.Source = model.AliasSource(source)
		alias.LastUpdated = alias.LastUpdated.UTC()
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}

	return aliases, nil
}
