package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

// GetAccount returns the account with the given id, or (nil, nil) when none
// exists.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var acc domain.Account
	err := s.db.WithContext(ctx).First(&acc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting account %s: %w", id, err)
	}
	return &acc, nil
}

// UpsertAccount inserts or fully replaces an account row.
func (s *Store) UpsertAccount(ctx context.Context, acc *domain.Account) error {
	if err := s.db.WithContext(ctx).Save(acc).Error; err != nil {
		return fmt.Errorf("store: upserting account %s: %w", acc.ID, err)
	}
	return nil
}

// ListAccounts returns all known accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accs []domain.Account
	if err := s.db.WithContext(ctx).Order("name asc").Find(&accs).Error; err != nil {
		return nil, fmt.Errorf("store: listing accounts: %w", err)
	}
	return accs, nil
}
