package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/lunchmoney"
	"github.com/dvloznov/wallet-sync/internal/wallet"
)

// fakeStore is a map-backed RecordStore for tests. It hands out copies so
// callers cannot alias its internal state, matching the real store's
// behavior.
type fakeStore struct {
	mu           stdsync.Mutex
	transactions map[string]domain.Transaction
	accounts     map[string]domain.Account
	mappings     map[string]domain.CategoryMapping
	changes      []domain.ChangeEntry
	cycleLog     []domain.CycleLogEntry

	// failSaveMapping simulates a persistence failure for specific codes.
	failSaveMapping map[string]bool
	// failGetMapping simulates a lookup failure for specific codes.
	failGetMapping map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[string]domain.Transaction),
		accounts:     make(map[string]domain.Account),
		mappings:     make(map[string]domain.CategoryMapping),
	}
}

func (s *fakeStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *fakeStore) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *fakeStore) ListTransactionsByState(ctx context.Context, state domain.SyncState) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.SyncState == state {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeStore) CountTransactionsByState(ctx context.Context, state domain.SyncState) (int64, error) {
	txs, _ := s.ListTransactionsByState(ctx, state)
	return int64(len(txs)), nil
}

func (s *fakeStore) AppendChange(ctx context.Context, entry *domain.ChangeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, *entry)
	return nil
}

func (s *fakeStore) changesFor(id string) []domain.ChangeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChangeEntry
	for _, c := range s.changes {
		if c.TransactionID == id {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (s *fakeStore) UpsertAccount(ctx context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = *acc
	return nil
}

func (s *fakeStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Account
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	return out, nil
}

func (s *fakeStore) GetCategoryMapping(ctx context.Context, code string) (*domain.CategoryMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGetMapping[code] {
		return nil, fmt.Errorf("fake lookup failure for %s", code)
	}
	m, ok := s.mappings[code]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *fakeStore) SaveCategoryMapping(ctx context.Context, m *domain.CategoryMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaveMapping[m.Code] {
		return fmt.Errorf("fake persist failure for %s", m.Code)
	}
	s.mappings[m.Code] = *m
	return nil
}

func (s *fakeStore) CountUnmappedCategories(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.mappings {
		if m.RemoteCategoryID == "" {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) AppendCycleLog(ctx context.Context, entry *domain.CycleLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycleLog = append(s.cycleLog, *entry)
	return nil
}

var _ RecordStore = (*fakeStore)(nil)

// fakeFeed is a canned wallet.Feed.
type fakeFeed struct {
	status       wallet.AuthorizationStatus
	accounts     []wallet.FeedAccount
	balances     map[string]wallet.Balance
	transactions []wallet.FeedTransaction

	// accountFailures makes the first N ListAccounts calls fail.
	accountFailures  int
	listAccountCalls int
}

func (f *fakeFeed) Authorize(ctx context.Context) (wallet.AuthorizationStatus, error) {
	if f.status == "" {
		return wallet.AuthorizationAuthorized, nil
	}
	return f.status, nil
}

func (f *fakeFeed) ListAccounts(ctx context.Context) ([]wallet.FeedAccount, error) {
	f.listAccountCalls++
	if f.listAccountCalls <= f.accountFailures {
		return nil, fmt.Errorf("fake feed outage")
	}
	return f.accounts, nil
}

func (f *fakeFeed) ListBalance(ctx context.Context, accountID string, w wallet.Window) (wallet.Balance, error) {
	bal, ok := f.balances[accountID]
	if !ok {
		return wallet.Balance{}, fmt.Errorf("no balance for %s", accountID)
	}
	return bal, nil
}

func (f *fakeFeed) ListTransactions(ctx context.Context, accountIDs []string, w wallet.Window) ([]wallet.FeedTransaction, error) {
	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []wallet.FeedTransaction
	for _, tx := range f.transactions {
		if wanted[tx.AccountID] {
			out = append(out, tx)
		}
	}
	return out, nil
}

var _ wallet.Feed = (*fakeFeed)(nil)

// fakeRemote is a func-field RemoteClient in the usual mock style: unset
// functions answer with benign defaults.
type fakeRemote struct {
	mu stdsync.Mutex

	ListTransactionsFunc   func(ctx context.Context, filters lunchmoney.TransactionFilters) ([]lunchmoney.Transaction, error)
	CreateTransactionsFunc func(ctx context.Context, req lunchmoney.InsertRequest) (*lunchmoney.InsertResponse, error)
	UpdateTransactionFunc  func(ctx context.Context, id int64, fields lunchmoney.UpdateFields) error
	UpdateAssetBalanceFunc func(ctx context.Context, assetID int64, balance string, asOf time.Time) error

	listCalls    int
	createCalls  int
	updateCalls  int
	balanceCalls int

	lastCreate lunchmoney.InsertRequest
	lastUpdate lunchmoney.UpdateFields
}

func (r *fakeRemote) ListTransactions(ctx context.Context, filters lunchmoney.TransactionFilters) ([]lunchmoney.Transaction, error) {
	r.mu.Lock()
	r.listCalls++
	r.mu.Unlock()
	if r.ListTransactionsFunc != nil {
		return r.ListTransactionsFunc(ctx, filters)
	}
	return nil, nil
}

func (r *fakeRemote) CreateTransactions(ctx context.Context, req lunchmoney.InsertRequest) (*lunchmoney.InsertResponse, error) {
	r.mu.Lock()
	r.createCalls++
	r.lastCreate = req
	r.mu.Unlock()
	if r.CreateTransactionsFunc != nil {
		return r.CreateTransactionsFunc(ctx, req)
	}
	return &lunchmoney.InsertResponse{IDs: []int64{1}}, nil
}

func (r *fakeRemote) UpdateTransaction(ctx context.Context, id int64, fields lunchmoney.UpdateFields) error {
	r.mu.Lock()
	r.updateCalls++
	r.lastUpdate = fields
	r.mu.Unlock()
	if r.UpdateTransactionFunc != nil {
		return r.UpdateTransactionFunc(ctx, id, fields)
	}
	return nil
}

func (r *fakeRemote) UpdateAssetBalance(ctx context.Context, assetID int64, balance string, asOf time.Time) error {
	r.mu.Lock()
	r.balanceCalls++
	r.mu.Unlock()
	if r.UpdateAssetBalanceFunc != nil {
		return r.UpdateAssetBalanceFunc(ctx, assetID, balance, asOf)
	}
	return nil
}

var _ RemoteClient = (*fakeRemote)(nil)

// fakeNotifier records notifications.
type fakeNotifier struct {
	titles   []string
	messages []string
}

func (n *fakeNotifier) Notify(ctx context.Context, title, message string) {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}
