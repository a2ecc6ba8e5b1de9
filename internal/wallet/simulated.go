package wallet

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fixture is the YAML shape the simulated feed loads.
type fixture struct {
	Authorization string            `yaml:"authorization"`
	Accounts      []fixtureAccount  `yaml:"accounts"`
	Transactions  []fixtureMovement `yaml:"transactions"`
}

type fixtureAccount struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Balance   string `yaml:"balance"`
	Kind      string `yaml:"balance_kind"`
	Indicator string `yaml:"indicator"`
}

type fixtureMovement struct {
	ID                 string `yaml:"id"`
	AccountID          string `yaml:"account_id"`
	Description        string `yaml:"description"`
	Amount             string `yaml:"amount"`
	Indicator          string `yaml:"indicator"`
	Date               string `yaml:"date"`
	Pending            bool   `yaml:"pending"`
	ClassificationCode string `yaml:"classification_code"`
	ClassificationName string `yaml:"classification_name"`
}

// SimulatedFeed serves accounts and transactions from an in-memory snapshot,
// standing in for the platform wallet source during offline runs and tests.
type SimulatedFeed struct {
	Status       AuthorizationStatus
	Accounts     []FeedAccount
	Balances     map[string]Balance
	Transactions []FeedTransaction
}

// LoadSimulatedFeed builds a simulated feed from a YAML fixture file.
func LoadSimulatedFeed(path string) (*SimulatedFeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: reading fixture %s: %w", path, err)
	}

	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("wallet: parsing fixture %s: %w", path, err)
	}

	feed := &SimulatedFeed{
		Status:   AuthorizationAuthorized,
		Balances: make(map[string]Balance),
	}
	if fx.Authorization != "" {
		feed.Status = AuthorizationStatus(fx.Authorization)
	}

	for _, a := range fx.Accounts {
		feed.Accounts = append(feed.Accounts, FeedAccount{ID: a.ID, Name: a.Name})

		bal, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return nil, fmt.Errorf("wallet: account %s balance %q: %w", a.ID, a.Balance, err)
		}
		kind := BalanceAvailable
		if a.Kind != "" {
			kind = BalanceKind(a.Kind)
		}
		indicator := IndicatorCredit
		if a.Indicator != "" {
			indicator = Indicator(a.Indicator)
		}
		feed.Balances[a.ID] = Balance{
			Kind:      kind,
			Available: bal,
			Booked:    bal,
			Indicator: indicator,
		}
	}

	for _, m := range fx.Transactions {
		amount, err := decimal.NewFromString(m.Amount)
		if err != nil {
			return nil, fmt.Errorf("wallet: transaction %s amount %q: %w", m.ID, m.Amount, err)
		}
		date, err := time.Parse("2006-01-02", m.Date)
		if err != nil {
			return nil, fmt.Errorf("wallet: transaction %s date %q: %w", m.ID, m.Date, err)
		}
		indicator := IndicatorDebit
		if m.Indicator != "" {
			indicator = Indicator(m.Indicator)
		}
		feed.Transactions = append(feed.Transactions, FeedTransaction{
			ID:                 m.ID,
			AccountID:          m.AccountID,
			Description:        m.Description,
			Amount:             amount,
			Indicator:          indicator,
			Date:               date,
			Pending:            m.Pending,
			ClassificationCode: m.ClassificationCode,
			ClassificationName: m.ClassificationName,
		})
	}

	return feed, nil
}

// Authorize implements Feed.
func (f *SimulatedFeed) Authorize(ctx context.Context) (AuthorizationStatus, error) {
	return f.Status, nil
}

// ListAccounts implements Feed.
func (f *SimulatedFeed) ListAccounts(ctx context.Context) ([]FeedAccount, error) {
	if f.Status != AuthorizationAuthorized {
		return nil, fmt.Errorf("wallet: feed not authorized (%s)", f.Status)
	}
	out := make([]FeedAccount, len(f.Accounts))
	copy(out, f.Accounts)
	return out, nil
}

// ListBalance implements Feed.
func (f *SimulatedFeed) ListBalance(ctx context.Context, accountID string, w Window) (Balance, error) {
	if f.Status != AuthorizationAuthorized {
		return Balance{}, fmt.Errorf("wallet: feed not authorized (%s)", f.Status)
	}
	bal, ok := f.Balances[accountID]
	if !ok {
		return Balance{}, fmt.Errorf("wallet: unknown account %s", accountID)
	}
	return bal, nil
}

// ListTransactions implements Feed.
func (f *SimulatedFeed) ListTransactions(ctx context.Context, accountIDs []string, w Window) ([]FeedTransaction, error) {
	if f.Status != AuthorizationAuthorized {
		return nil, fmt.Errorf("wallet: feed not authorized (%s)", f.Status)
	}

	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	var out []FeedTransaction
	for _, tx := range f.Transactions {
		if !wanted[tx.AccountID] {
			continue
		}
		if !w.Contains(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

var _ Feed = (*SimulatedFeed)(nil)
