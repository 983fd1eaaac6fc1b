package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ledgermatch/internal/common"
	"ledgermatch/internal/model"
	"ledgermatch/internal/normalize"
	"ledgermatch/internal/service"
)

// Store is the learning store: it records accept/reject feedback and serves
// the resulting alias table and negative examples to the matchers as an
// immutable snapshot. Writes are infrequent and serialized; reads are
// lock-free via an atomically swapped snapshot.
type Store struct {
	storage  service.Storage
	snapshot atomic.Pointer[Snapshot]
	writeMu  sync.Mutex
}

// NewStore creates a learning store backed by the given storage.
// Call Refresh before scoring to load the initial snapshot.
func NewStore(storage service.Storage) *Store {
	return &Store{storage: storage}
}

// Snapshot returns the current immutable snapshot. It may be nil if
// Refresh has never succeeded; callers must treat that as a missing alias
// table and degrade, not fail.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Refresh loads aliases and negative examples from storage and swaps in a
// fresh snapshot. In-flight readers keep the snapshot they already hold.
func (s *Store) Refresh(ctx context.Context) error {
	aliases, err := s.storage.GetAllAliases(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrAliasTableUnavailable, err)
	}

	negatives, err := s.storage.GetAllNegativeExamples(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrAliasTableUnavailable, err)
	}

	snap := NewSnapshot(aliases, negatives)
	s.snapshot.Store(snap)

	slog.Debug("Refreshed learning snapshot",
		"aliases", snap.AliasCount(),
		"negatives", len(negatives))

	return nil
}

// RecordFeedback persists a human decision on a merchant correspondence.
// Acceptance appends or strengthens an alias mapping; rejection records a
// negative example that caps the fuzzy score for this pair on later runs.
// Failures are returned for the caller to retry and never affect an
// in-flight scoring run.
func (s *Store) RecordFeedback(ctx context.Context, rawMerchant, canonical string, accepted bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	pattern := normalize.Clean(rawMerchant)
	canonical = normalize.Clean(canonical)
	if pattern == "" || canonical == "" {
		return fmt.Errorf("%w: empty merchant in feedback", common.ErrFeedbackWriteFailed)
	}

	event := &model.FeedbackEvent{
		ID:          uuid.NewString(),
		RawMerchant: pattern,
		Canonical:   canonical,
		Accepted:    accepted,
		CreatedAt:   time.Now(),
	}
	if err := s.storage.SaveFeedbackEvent(ctx, event); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFeedbackWriteFailed, err)
	}

	if accepted {
		if err := s.recordAccepted(ctx, pattern, canonical); err != nil {
			return err
		}
	} else {
		example := &model.NegativeExample{
			RawMerchant: pattern,
			Canonical:   canonical,
			CreatedAt:   time.Now(),
		}
		if err := s.storage.SaveNegativeExample(ctx, example); err != nil {
			return fmt.Errorf("%w: %v", common.ErrFeedbackWriteFailed, err)
		}
	}

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	slog.Info("Recorded feedback",
		"merchant", pattern,
		"canonical", canonical,
		"accepted", accepted)

	return nil
}

func (s *Store) recordAccepted(ctx context.Context, pattern, canonical string) error {
	alias := &model.AliasEntry{
		Pattern:     pattern,
		Canonical:   canonical,
		Source:      model.AliasSourceAuto,
		UseCount:    1,
		LastUpdated: time.Now(),
	}

	existing, err := s.storage.GetAlias(ctx, pattern)
	switch {
	case err == nil && existing != nil:
		alias.UseCount = existing.UseCount + 1
		if existing.Source == model.AliasSourceManual {
			alias.Source = model.AliasSourceAutoConfirmed
		} else {
			alias.Source = existing.Source
		}
	case err != nil && !errors.Is(err, common.ErrNotFound):
		// A transient read failure must not silently reset the mapping's
		// history; surface it for retry instead.
		return fmt.Errorf("%w: %v", common.ErrFeedbackWriteFailed, err)
	}

	if err := s.storage.SaveAlias(ctx, alias); err != nil {
		return fmt.Errorf("%w: %v", common.ErrFeedbackWriteFailed, err)
	}

	return nil
}
