package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

// AppendCycleLog appends one diagnostic entry to the sync trail. The trail is
// write-only from the sync engine's point of view.
func (s *Store) AppendCycleLog(ctx context.Context, entry *domain.CycleLogEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	if entry.Level == "" {
		entry.Level = "info"
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("store: appending cycle log: %w", err)
	}
	return nil
}

// ListCycleLog returns the most recent limit entries, newest first.
func (s *Store) ListCycleLog(ctx context.Context, limit int) ([]domain.CycleLogEntry, error) {
	var entries []domain.CycleLogEntry
	q := s.db.WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("store: listing cycle log: %w", err)
	}
	return entries, nil
}
