package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a wallet-side financial account, optionally linked to one remote
// asset on the budgeting service.
type Account struct {
	ID      string          `gorm:"primaryKey;column:id" json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `gorm:"type:text" json:"balance"`

	// RemoteAssetID is empty while the account is unlinked.
	RemoteAssetID   string `json:"remote_asset_id"`
	RemoteAssetName string `json:"remote_asset_name"`

	// SyncEnabled gates whether transactions from this account enter
	// reconciliation at all.
	SyncEnabled bool `json:"sync_enabled"`
	// SyncBalanceOnly keeps balance sync alive while suppressing transaction
	// push for this account.
	SyncBalanceOnly bool `json:"sync_balance_only"`

	LastUpdated time.Time `json:"last_updated"`
}

// Linked reports whether the account has a remote asset attached.
func (a Account) Linked() bool {
	return a.RemoteAssetID != ""
}
