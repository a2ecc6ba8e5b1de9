// Package wallet defines the local wallet/ledger feed the synchronizer pulls
// from, plus a simulated implementation for offline operation and tests.
package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AuthorizationStatus is the outcome of the feed's authorization handshake.
type AuthorizationStatus string

const (
	AuthorizationAuthorized    AuthorizationStatus = "authorized"
	AuthorizationDenied        AuthorizationStatus = "denied"
	AuthorizationNotDetermined AuthorizationStatus = "notDetermined"
	AuthorizationRestricted    AuthorizationStatus = "restricted"
)

// Indicator marks whether the feed reported a movement or balance as money in
// or money out. The feed's unsigned amounts are normalized to the system-wide
// signed convention (negative = outflow) via Signed helpers.
type Indicator string

const (
	IndicatorCredit Indicator = "credit"
	IndicatorDebit  Indicator = "debit"
)

// BalanceKind tags which figures a Balance carries.
type BalanceKind string

const (
	BalanceAvailable          BalanceKind = "available"
	BalanceBooked             BalanceKind = "booked"
	BalanceAvailableAndBooked BalanceKind = "availableAndBooked"
)

// Balance is the tagged balance union the feed returns for one account.
type Balance struct {
	Kind      BalanceKind
	Available decimal.Decimal
	Booked    decimal.Decimal
	Indicator Indicator
}

// Signed returns the balance normalized to a signed amount, preferring the
// booked figure when both are present.
func (b Balance) Signed() decimal.Decimal {
	v := b.Available
	if b.Kind == BalanceBooked || b.Kind == BalanceAvailableAndBooked {
		v = b.Booked
	}
	if b.Indicator == IndicatorDebit {
		return v.Neg()
	}
	return v
}

// FeedAccount is one account as reported by the feed.
type FeedAccount struct {
	ID   string
	Name string
}

// FeedTransaction is one movement as reported by the feed, before
// normalization into a domain.Transaction.
type FeedTransaction struct {
	ID                 string
	AccountID          string
	Description        string
	Amount             decimal.Decimal
	Indicator          Indicator
	Date               time.Time
	Pending            bool
	ClassificationCode string
	ClassificationName string
}

// SignedAmount normalizes the feed's unsigned amount to the system sign
// convention.
func (t FeedTransaction) SignedAmount() decimal.Decimal {
	if t.Indicator == IndicatorDebit {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// Window is a closed date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowAround builds a window of ±days around the given date.
func WindowAround(center time.Time, days int) Window {
	return Window{
		Start: center.AddDate(0, 0, -days),
		End:   center.AddDate(0, 0, days),
	}
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

// Feed is the wallet data source consumed by the sync orchestrator.
type Feed interface {
	// Authorize performs the feed's authorization handshake.
	Authorize(ctx context.Context) (AuthorizationStatus, error)

	// ListAccounts returns every account visible to the feed.
	ListAccounts(ctx context.Context) ([]FeedAccount, error)

	// ListBalance returns the current balance for one account.
	ListBalance(ctx context.Context, accountID string, w Window) (Balance, error)

	// ListTransactions returns movements for the given accounts inside the
	// window, pending and booked alike.
	ListTransactions(ctx context.Context, accountIDs []string, w Window) ([]FeedTransaction, error)
}
