package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTransactionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx := &domain.Transaction{
		ID:        "T1",
		AccountID: "A1",
		Payee:     "Coffee Shop",
		Amount:    decimal.RequireFromString("-4.50"),
		Date:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		SyncState: domain.SyncStatePending,
	}
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("SaveTransaction() error = %v", err)
	}

	got, err := s.GetTransaction(ctx, "T1")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetTransaction() returned nil for existing row")
	}
	if got.Payee != "Coffee Shop" || !got.Amount.Equal(tx.Amount) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	missing, err := s.GetTransaction(ctx, "nope")
	if err != nil {
		t.Fatalf("GetTransaction(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetTransaction(missing) = %+v, want nil", missing)
	}
}

func TestListAndCountByState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	states := []domain.SyncState{
		domain.SyncStatePending,
		domain.SyncStatePending,
		domain.SyncStateComplete,
		domain.SyncStateNever,
	}
	for i, st := range states {
		tx := &domain.Transaction{
			ID:        string(rune('A' + i)),
			Amount:    decimal.New(int64(i), 0),
			Date:      time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC),
			SyncState: st,
		}
		if err := s.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction() error = %v", err)
		}
	}

	pending, err := s.ListTransactionsByState(ctx, domain.SyncStatePending)
	if err != nil {
		t.Fatalf("ListTransactionsByState() error = %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending count = %d, want 2", len(pending))
	}
	if len(pending) == 2 && pending[0].Date.After(pending[1].Date) {
		t.Error("pending transactions not ordered oldest first")
	}

	n, err := s.CountTransactionsByState(ctx, domain.SyncStateNever)
	if err != nil {
		t.Fatalf("CountTransactionsByState() error = %v", err)
	}
	if n != 1 {
		t.Errorf("never count = %d, want 1", n)
	}
}

func TestChangeHistoryAppendOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, note := range []string{"first", "second", "third"} {
		err := s.AppendChange(ctx, &domain.ChangeEntry{
			TransactionID: "T1",
			Note:          note,
			Source:        "test",
		})
		if err != nil {
			t.Fatalf("AppendChange() error = %v", err)
		}
	}

	entries, err := s.ListChanges(ctx, "T1")
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Note != "first" || entries[2].Note != "third" {
		t.Errorf("entries out of append order: %+v", entries)
	}
	if entries[0].At.IsZero() {
		t.Error("AppendChange should default the timestamp")
	}
}

func TestAccountUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := &domain.Account{
		ID:          "A1",
		Name:        "Checking",
		Balance:     decimal.RequireFromString("120.00"),
		SyncEnabled: true,
	}
	if err := s.UpsertAccount(ctx, acc); err != nil {
		t.Fatalf("UpsertAccount() error = %v", err)
	}

	acc.Balance = decimal.RequireFromString("99.95")
	acc.RemoteAssetID = "42"
	if err := s.UpsertAccount(ctx, acc); err != nil {
		t.Fatalf("UpsertAccount() second call error = %v", err)
	}

	got, err := s.GetAccount(ctx, "A1")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("99.95")) {
		t.Errorf("Balance = %s, want 99.95", got.Balance)
	}
	if !got.Linked() {
		t.Error("account should be linked after upsert")
	}

	accs, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accs) != 1 {
		t.Errorf("len(accounts) = %d, want 1", len(accs))
	}
}

func TestCategoryMappings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mappings := []domain.CategoryMapping{
		{Code: "5812", LocalName: "Restaurants"},
		{Code: "5411", LocalName: "Groceries", RemoteCategoryID: "77"},
		{Code: "4900", LocalName: "Utilities", RemoteCategoryID: domain.CategorySkipSentinel},
	}
	for i := range mappings {
		if err := s.SaveCategoryMapping(ctx, &mappings[i]); err != nil {
			t.Fatalf("SaveCategoryMapping() error = %v", err)
		}
	}

	got, err := s.GetCategoryMapping(ctx, "5812")
	if err != nil {
		t.Fatalf("GetCategoryMapping() error = %v", err)
	}
	if got == nil || got.LocalName != "Restaurants" {
		t.Errorf("GetCategoryMapping(5812) = %+v", got)
	}

	// Only the truly empty mapping counts as unmapped; the skip sentinel is
	// a resolved state.
	n, err := s.CountUnmappedCategories(ctx)
	if err != nil {
		t.Fatalf("CountUnmappedCategories() error = %v", err)
	}
	if n != 1 {
		t.Errorf("unmapped count = %d, want 1", n)
	}
}

func TestPurgeSyncedBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old := cutoff.AddDate(0, -2, 0)
	recent := cutoff.AddDate(0, 1, 0)

	rows := []domain.Transaction{
		{ID: "old-complete", Date: old, SyncState: domain.SyncStateComplete},
		{ID: "old-never", Date: old, SyncState: domain.SyncStateNever},
		{ID: "old-pending", Date: old, SyncState: domain.SyncStatePending},
		{ID: "recent-complete", Date: recent, SyncState: domain.SyncStateComplete},
	}
	for i := range rows {
		if err := s.SaveTransaction(ctx, &rows[i]); err != nil {
			t.Fatalf("SaveTransaction() error = %v", err)
		}
	}
	if err := s.AppendChange(ctx, &domain.ChangeEntry{TransactionID: "old-complete", Note: "n"}); err != nil {
		t.Fatalf("AppendChange() error = %v", err)
	}

	purged, err := s.PurgeSyncedBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("PurgeSyncedBefore() error = %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}

	// Pending records survive regardless of age.
	if tx, _ := s.GetTransaction(ctx, "old-pending"); tx == nil {
		t.Error("old pending transaction should not be purged")
	}
	if tx, _ := s.GetTransaction(ctx, "recent-complete"); tx == nil {
		t.Error("recent complete transaction should not be purged")
	}
	if entries, _ := s.ListChanges(ctx, "old-complete"); len(entries) != 0 {
		t.Error("purge should remove change history of purged transactions")
	}
}

func TestCycleLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.AppendCycleLog(ctx, &domain.CycleLogEntry{
			Tag:     "test",
			Message: "checkpoint",
		})
		if err != nil {
			t.Fatalf("AppendCycleLog() error = %v", err)
		}
	}

	entries, err := s.ListCycleLog(ctx, 2)
	if err != nil {
		t.Fatalf("ListCycleLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
	if len(entries) == 2 && entries[0].ID < entries[1].ID {
		t.Error("cycle log should list newest first")
	}
	if entries[0].Level != "info" {
		t.Errorf("default level = %q, want info", entries[0].Level)
	}
}
