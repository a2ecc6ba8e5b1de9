// Package sync holds the reconciliation engine and the sync-cycle state
// machine: the logic that decides, for every incoming record, whether it is
// new, changed or unchanged, and that drives idempotent, retryable push
// against the remote ledger.
package sync

import (
	"context"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/lunchmoney"
)

// RecordStore is the keyed persistent storage the sync engine works against.
// Implemented by internal/store; faked in tests.
type RecordStore interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactionsByState(ctx context.Context, state domain.SyncState) ([]domain.Transaction, error)
	CountTransactionsByState(ctx context.Context, state domain.SyncState) (int64, error)
	AppendChange(ctx context.Context, entry *domain.ChangeEntry) error

	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	UpsertAccount(ctx context.Context, acc *domain.Account) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	GetCategoryMapping(ctx context.Context, code string) (*domain.CategoryMapping, error)
	SaveCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error
	CountUnmappedCategories(ctx context.Context) (int64, error)

	AppendCycleLog(ctx context.Context, entry *domain.CycleLogEntry) error
}

// RemoteClient is the slice of the remote ledger API the orchestrator
// consumes. Implemented by lunchmoney.Client; faked in tests.
type RemoteClient interface {
	ListTransactions(ctx context.Context, filters lunchmoney.TransactionFilters) ([]lunchmoney.Transaction, error)
	CreateTransactions(ctx context.Context, req lunchmoney.InsertRequest) (*lunchmoney.InsertResponse, error)
	UpdateTransaction(ctx context.Context, id int64, fields lunchmoney.UpdateFields) error
	UpdateAssetBalance(ctx context.Context, assetID int64, balance string, asOf time.Time) error
}

// TokenSource supplies the stored remote API credential at cycle start.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a configuration value.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

// Notifier delivers the end-of-cycle summary to the user. Delivery is
// best-effort and outside the cycle's failure domain.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}
