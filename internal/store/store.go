// Package store is the keyed persistent record store backing the
// synchronizer: transactions, accounts, category mappings and the sync cycle
// log, with the predicate lookups the sync engine needs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

// Store wraps a gorm handle over the local sqlite database. One sync cycle
// uses the store single-threaded except for the balance fan-out, which sqlite
// serializes internally.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&domain.Transaction{},
		&domain.ChangeEntry{},
		&domain.Account{},
		&domain.CategoryMapping{},
		&domain.CycleLogEntry{},
	); err != nil {
		return nil, fmt.Errorf("store: migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetTransaction returns the transaction with the given id, or (nil, nil)
// when none exists.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting transaction %s: %w", id, err)
	}
	return &tx, nil
}

// SaveTransaction inserts or fully replaces a transaction row.
func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("store: saving transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListTransactionsByState returns all transactions in the given sync state,
// oldest first.
func (s *Store) ListTransactionsByState(ctx context.Context, state domain.SyncState) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("sync_state = ?", state).
		Order("date asc").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("store: listing %s transactions: %w", state, err)
	}
	return txs, nil
}

// CountTransactionsByState returns how many transactions sit in the given state.
func (s *Store) CountTransactionsByState(ctx context.Context, state domain.SyncState) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("sync_state = ?", state).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("store: counting %s transactions: %w", state, err)
	}
	return n, nil
}

// AppendChange appends one entry to a transaction's change history.
func (s *Store) AppendChange(ctx context.Context, entry *domain.ChangeEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("store: appending change for %s: %w", entry.TransactionID, err)
	}
	return nil
}

// ListChanges returns a transaction's change history in append order.
func (s *Store) ListChanges(ctx context.Context, transactionID string) ([]domain.ChangeEntry, error) {
	var entries []domain.ChangeEntry
	err := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("store: listing changes for %s: %w", transactionID, err)
	}
	return entries, nil
}

// PurgeSyncedBefore deletes Complete and Never transactions dated before the
// cutoff, along with their change histories. Pending and Skipped records are
// never purged.
func (s *Store) PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("sync_state IN ?", []domain.SyncState{domain.SyncStateComplete, domain.SyncStateNever}).
		Where("date < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("store: selecting purge candidates: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Where("transaction_id IN ?", ids).Delete(&domain.ChangeEntry{}).Error; err != nil {
		return 0, fmt.Errorf("store: purging change histories: %w", err)
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Transaction{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: purging transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
