package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

// GetCategoryMapping returns the mapping for a classification code, or
// (nil, nil) when the code has never been seen.
func (s *Store) GetCategoryMapping(ctx context.Context, code string) (*domain.CategoryMapping, error) {
	var m domain.CategoryMapping
	err := s.db.WithContext(ctx).First(&m, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting category mapping %s: %w", code, err)
	}
	return &m, nil
}

// SaveCategoryMapping inserts or replaces a category mapping row.
func (s *Store) SaveCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error {
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("store: saving category mapping %s: %w", m.Code, err)
	}
	return nil
}

// ListCategoryMappings returns every known mapping ordered by code.
func (s *Store) ListCategoryMappings(ctx context.Context) ([]domain.CategoryMapping, error) {
	var ms []domain.CategoryMapping
	if err := s.db.WithContext(ctx).Order("code asc").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("store: listing category mappings: %w", err)
	}
	return ms, nil
}

// CountUnmappedCategories counts mappings still waiting for a user-assigned
// remote category. Skip-sentinel mappings are considered resolved.
func (s *Store) CountUnmappedCategories(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&domain.CategoryMapping{}).
		Where("remote_category_id = ?", "").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("store: counting unmapped categories: %w", err)
	}
	return n, nil
}
