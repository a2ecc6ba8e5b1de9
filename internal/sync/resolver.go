package sync

import (
	"context"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/logger"
)

// Resolver maps wallet classification codes to category mappings, creating a
// mapping the first time a code is seen.
type Resolver struct {
	store RecordStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store RecordStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the full code→mapping table for the batch, covering both
// pre-existing and newly created mappings, so callers never need a second
// lookup pass. New mappings are persisted before returning. A persistence
// failure on an individual mapping drops that code from the result (the batch
// degrades to "uncategorized" for it this cycle) instead of aborting.
func (r *Resolver) Resolve(ctx context.Context, txs []domain.Transaction) map[string]domain.CategoryMapping {
	log := logger.FromContext(ctx)

	// Distinct codes, keeping the first classification name seen per code as
	// the seed for a new mapping.
	codes := make([]string, 0)
	names := make(map[string]string)
	for _, tx := range txs {
		code := tx.ClassificationCode
		if code == "" {
			continue
		}
		if _, seen := names[code]; !seen {
			codes = append(codes, code)
			names[code] = tx.ClassificationName
		}
	}

	result := make(map[string]domain.CategoryMapping, len(codes))
	for _, code := range codes {
		existing, err := r.store.GetCategoryMapping(ctx, code)
		if err != nil {
			log.Warn().Err(err).Str("code", code).Msg("Failed to look up category mapping")
			continue
		}
		if existing != nil {
			result[code] = *existing
			continue
		}

		name := names[code]
		if name == "" {
			name = domain.UnknownCategoryName
		}
		mapping := domain.CategoryMapping{
			Code:      code,
			LocalName: name,
			CreatedAt: time.Now(),
		}
		if err := r.store.SaveCategoryMapping(ctx, &mapping); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("Failed to persist new category mapping")
			continue
		}

		log.Info().Str("code", code).Str("name", name).Msg("Created category mapping")
		result[code] = mapping
	}

	return result
}
