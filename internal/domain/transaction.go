package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncState tracks where a transaction sits in the push lifecycle.
type SyncState string

const (
	// SyncStatePending means the transaction is queued for push to the remote ledger.
	SyncStatePending SyncState = "pending"
	// SyncStateComplete means the transaction exists remotely and carries a remote id.
	SyncStateComplete SyncState = "complete"
	// SyncStateNever means the last push attempt failed terminally this cycle;
	// the user must requeue it explicitly.
	SyncStateNever SyncState = "never"
	// SyncStateSkipped means the transaction is deliberately excluded from push,
	// e.g. it belongs to a balance-only account.
	SyncStateSkipped SyncState = "skipped"
)

// Transaction is one financial movement observed from the wallet feed.
// ID is source-assigned and stable; it doubles as the idempotency key for
// reconciliation and as the external_id echoed into the remote ledger.
type Transaction struct {
	ID        string          `gorm:"primaryKey;column:id" json:"id"`
	AccountID string          `gorm:"index" json:"account_id"`
	Payee     string          `json:"payee"`
	Amount    decimal.Decimal `gorm:"type:text" json:"amount"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes"`
	IsPending bool            `json:"is_pending"`

	// ClassificationCode is the merchant-category code supplied by the feed,
	// empty when the feed did not classify the movement.
	ClassificationCode string `gorm:"index" json:"classification_code"`
	ClassificationName string `json:"classification_name"`

	RemoteCategoryID   string `json:"remote_category_id"`
	RemoteCategoryName string `json:"remote_category_name"`

	// RemoteID is set once the transaction has been pushed; non-empty implies
	// SyncState == SyncStateComplete.
	RemoteID         string `json:"remote_id"`
	RemoteAccountRef string `json:"remote_account_ref"`

	SyncState SyncState `gorm:"index" json:"sync_state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeEntry is one line of a transaction's append-only change history.
// Entries are only ever appended, never mutated.
type ChangeEntry struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID string    `gorm:"index" json:"transaction_id"`
	At            time.Time `json:"at"`
	Note          string    `json:"note"`
	// Source tags which trigger surface produced the entry (foreground,
	// background, webhook, cli).
	Source string `json:"source"`
}

// CycleLogEntry is one line of the append-only sync diagnostic trail.
// It is a write-only sink: nothing reads it for control flow.
type CycleLogEntry struct {
	ID      uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	At      time.Time `json:"at"`
	Tag     string    `json:"tag"`
	Message string    `json:"message"`
	Level   string    `json:"level"`
}
