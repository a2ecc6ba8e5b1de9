package sync

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

func classifiedTx(id, code, name string) domain.Transaction {
	return domain.Transaction{
		ID:                 id,
		AccountID:          "A1",
		Payee:              "Merchant " + id,
		Date:               time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		ClassificationCode: code,
		ClassificationName: name,
	}
}

func TestResolve_CreatesMappingOnFirstSight(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	result := resolver.Resolve(ctx, []domain.Transaction{
		classifiedTx("T1", "5812", "Restaurants"),
		classifiedTx("T2", "5812", "Eating Out"),
		classifiedTx("T3", "5411", "Groceries"),
		classifiedTx("T4", "", ""),
	})

	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2 distinct codes", len(result))
	}
	// First-seen name wins for a new mapping.
	if got := result["5812"].LocalName; got != "Restaurants" {
		t.Errorf("LocalName = %q, want first-seen name", got)
	}
	if got := result["5411"].LocalName; got != "Groceries" {
		t.Errorf("LocalName = %q", got)
	}

	persisted, _ := store.GetCategoryMapping(ctx, "5812")
	if persisted == nil {
		t.Error("new mapping not persisted")
	}
}

func TestResolve_ReusesExistingMapping(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	_ = store.SaveCategoryMapping(ctx, &domain.CategoryMapping{
		Code:               "5812",
		LocalName:          "Dining",
		RemoteCategoryID:   "42",
		RemoteCategoryName: "Food",
	})

	result := NewResolver(store).Resolve(ctx, []domain.Transaction{
		classifiedTx("T1", "5812", "Restaurants"),
	})

	m, ok := result["5812"]
	if !ok {
		t.Fatal("existing code missing from result")
	}
	if m.RemoteCategoryID != "42" || m.LocalName != "Dining" {
		t.Errorf("existing mapping altered: %+v", m)
	}
}

func TestResolve_BlankNameFallsBackToUnknown(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	result := NewResolver(store).Resolve(ctx, []domain.Transaction{
		classifiedTx("T1", "9999", ""),
	})

	if got := result["9999"].LocalName; got != domain.UnknownCategoryName {
		t.Errorf("LocalName = %q, want %q", got, domain.UnknownCategoryName)
	}
}

func TestResolve_FailuresOmitCodeWithoutAborting(t *testing.T) {
	store := newFakeStore()
	store.failSaveMapping = map[string]bool{"5812": true}
	store.failGetMapping = map[string]bool{"5411": true}
	ctx := context.Background()

	result := NewResolver(store).Resolve(ctx, []domain.Transaction{
		classifiedTx("T1", "5812", "Restaurants"),
		classifiedTx("T2", "5411", "Groceries"),
		classifiedTx("T3", "4900", "Utilities"),
	})

	if _, ok := result["5812"]; ok {
		t.Error("code with persist failure should be omitted")
	}
	if _, ok := result["5411"]; ok {
		t.Error("code with lookup failure should be omitted")
	}
	if _, ok := result["4900"]; !ok {
		t.Error("healthy code should survive sibling failures")
	}
}
