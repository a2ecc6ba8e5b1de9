package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/wallet-sync/internal/config"
	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/logger"
	"github.com/dvloznov/wallet-sync/internal/wallet"
)

// Cycle stages, used in CycleError and cycle-log checkpoints.
const (
	StageAcquireCredential = "acquire_credential"
	StageFetchCandidates   = "fetch_candidates"
	StageCategorize        = "categorize"
	StageReconcile         = "reconcile"
	StagePushPending       = "push_pending"
	StageSyncBalances      = "sync_balances"
	StageFinalize          = "finalize"
)

// CycleError is an unrecoverable failure of one sync cycle, tagged with the
// stage that raised it.
type CycleError struct {
	Stage string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("sync cycle failed at %s: %v", e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Preloaded lets a caller hand the cycle already-fetched feed data instead of
// hitting the wallet source again.
type Preloaded struct {
	Accounts     []wallet.FeedAccount
	Transactions []wallet.FeedTransaction
}

// CycleRequest parameterizes one sync cycle. Every trigger surface
// (foreground tap, background timer, webhook wakeup, CLI) calls the same
// RunCycle contract, differing only in these fields.
type CycleRequest struct {
	// Tag names the trigger surface for logs and history entries.
	Tag string
	// AutoPush pushes pending transactions within this cycle; otherwise they
	// stay Pending for a deferred push.
	AutoPush bool
	// Categorize copies resolved remote categories onto incoming
	// transactions. Mappings are recorded either way.
	Categorize bool
	// Interactive surfaces setup failures as errors instead of a silent
	// zero-work return.
	Interactive bool
	// Progress, when set, receives per-transaction push updates.
	Progress ProgressFunc
	// Preloaded, when set, replaces the feed fetch.
	Preloaded *Preloaded
}

// Orchestrator drives end-to-end sync cycles:
// fetch → categorize → reconcile → push → balances → finalize.
// Concurrent RunCycle invocations are serialized internally; the record store
// sees one cycle at a time.
type Orchestrator struct {
	store      RecordStore
	feed       wallet.Feed
	remote     RemoteClient
	tokens     TokenSource
	notifier   Notifier
	opts       config.SyncOptions
	retry      RetryPolicy
	windowDays int

	mu stdsync.Mutex
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Store    RecordStore
	Feed     wallet.Feed
	Remote   RemoteClient
	Tokens   TokenSource
	Notifier Notifier
	Options  config.SyncOptions
	Retry    RetryPolicy
	// WindowDays is the half-width of the candidate fetch window; defaults
	// to 30.
	WindowDays int
}

// NewOrchestrator builds an orchestrator from its collaborators.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	retry := cfg.Retry
	if retry.Backoff == 0 {
		retry = DefaultRetryPolicy
	}
	windowDays := cfg.WindowDays
	if windowDays == 0 {
		windowDays = 30
	}
	return &Orchestrator{
		store:      cfg.Store,
		feed:       cfg.Feed,
		remote:     cfg.Remote,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		opts:       cfg.Options,
		retry:      retry,
		windowDays: windowDays,
	}
}

// RunCycle executes one sync cycle and returns the pending count after it.
// A missing credential is "nothing to do" (zero work, nil error) unless the
// request is interactive. Partial failures inside the cycle (per-record
// reconcile errors, balance pushes) are contained and logged; only setup and
// fetch failures abort.
func (o *Orchestrator) RunCycle(ctx context.Context, req CycleRequest) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := logger.WithTag(logger.FromContext(ctx), req.Tag)
	ctx = logger.WithContext(ctx, log)

	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Bool("auto_push", req.AutoPush).
		Bool("categorize", req.Categorize).Msg("Sync cycle started")
	o.logCycle(ctx, req.Tag, "cycle started run="+runID, "info")

	// AcquireCredential
	token, err := o.tokens.Token(ctx)
	if err != nil || token == "" {
		if err == nil {
			err = fmt.Errorf("no API credential stored")
		}
		o.logCycle(ctx, req.Tag, "no credential, nothing to sync", "error")
		log.Error().Err(err).Msg("No remote credential, skipping cycle")
		if req.Interactive {
			return 0, &CycleError{Stage: StageAcquireCredential, Err: err}
		}
		return 0, nil
	}

	// FetchCandidates
	accounts, candidates, err := o.fetchCandidates(ctx, req)
	if err != nil {
		o.logCycle(ctx, req.Tag, "fetch failed: "+err.Error(), "error")
		return 0, &CycleError{Stage: StageFetchCandidates, Err: err}
	}
	log.Info().Int("accounts", len(accounts)).Int("candidates", len(candidates)).
		Msg("Fetched candidate records")

	// Categorize. Mappings are always recorded so future cycles (and the
	// mapping UI) know every code; copying onto transactions is gated.
	mappings := NewResolver(o.store).Resolve(ctx, candidates)
	if req.Categorize {
		for i := range candidates {
			m, ok := mappings[candidates[i].ClassificationCode]
			if ok && m.IsMapped() {
				candidates[i].RemoteCategoryID = m.RemoteCategoryID
				candidates[i].RemoteCategoryName = m.RemoteCategoryName
			}
		}
	}

	// Reconcile
	created, updated := o.reconcileCandidates(ctx, req.Tag, accounts, candidates)
	o.logCycle(ctx, req.Tag, fmt.Sprintf("reconciled created=%d updated=%d of %d", created, updated, len(candidates)), "info")

	// PushPending
	if req.AutoPush {
		if err := o.pushPending(ctx, req.Tag, req.Progress); err != nil {
			return 0, &CycleError{Stage: StagePushPending, Err: err}
		}
	}

	// SyncBalances
	o.syncBalances(ctx, accounts)

	// Finalize
	pendingCount, err := o.store.CountTransactionsByState(ctx, domain.SyncStatePending)
	if err != nil {
		return 0, &CycleError{Stage: StageFinalize, Err: err}
	}
	uncategorized, err := o.store.CountUnmappedCategories(ctx)
	if err != nil {
		return 0, &CycleError{Stage: StageFinalize, Err: err}
	}

	summary := fmt.Sprintf("cycle done: created=%d updated=%d pending=%d uncategorized=%d",
		created, updated, pendingCount, uncategorized)
	o.logCycle(ctx, req.Tag, summary, "info")
	log.Info().Int("created", created).Int("updated", updated).
		Int64("pending", pendingCount).Int64("uncategorized", uncategorized).
		Msg("Sync cycle completed")

	if o.notifier != nil && o.opts.AlertAfterImport {
		o.notifier.Notify(ctx, "Sync complete",
			fmt.Sprintf("%d imported, %d updated, %d still pending", created, updated, pendingCount))
	}

	return int(pendingCount), nil
}

// fetchCandidates produces the cycle's account set and candidate
// transactions, from preloaded data or the wallet feed. Accounts are
// discovered into the store on first sight; only sync-enabled accounts make
// the candidate set.
func (o *Orchestrator) fetchCandidates(ctx context.Context, req CycleRequest) ([]domain.Account, []domain.Transaction, error) {
	var feedAccounts []wallet.FeedAccount
	var feedTxs []wallet.FeedTransaction

	if req.Preloaded != nil {
		feedAccounts = req.Preloaded.Accounts
		feedTxs = req.Preloaded.Transactions
	} else {
		status, err := o.feed.Authorize(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("wallet authorization: %w", err)
		}
		if status != wallet.AuthorizationAuthorized {
			return nil, nil, fmt.Errorf("wallet source not authorized (%s)", status)
		}

		err = o.withFetchRetry(ctx, req.Interactive, func() error {
			var listErr error
			feedAccounts, listErr = o.feed.ListAccounts(ctx)
			return listErr
		})
		if err != nil {
			return nil, nil, fmt.Errorf("listing wallet accounts: %w", err)
		}
	}

	// Discover accounts: first sight creates a store row, sync disabled until
	// the user pairs it.
	accounts := make([]domain.Account, 0, len(feedAccounts))
	for _, fa := range feedAccounts {
		acc, err := o.store.GetAccount(ctx, fa.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading account %s: %w", fa.ID, err)
		}
		if acc == nil {
			acc = &domain.Account{
				ID:          fa.ID,
				Name:        fa.Name,
				LastUpdated: time.Now(),
			}
			if err := o.store.UpsertAccount(ctx, acc); err != nil {
				return nil, nil, fmt.Errorf("discovering account %s: %w", fa.ID, err)
			}
			log := logger.FromContext(ctx)
			log.Info().Str("account_id", fa.ID).Str("name", fa.Name).
				Msg("Discovered new wallet account")
		}
		if acc.SyncEnabled {
			accounts = append(accounts, *acc)
		}
	}

	if req.Preloaded == nil {
		ids := make([]string, len(accounts))
		for i, acc := range accounts {
			ids[i] = acc.ID
		}
		window := wallet.WindowAround(time.Now(), o.windowDays)
		err := o.withFetchRetry(ctx, req.Interactive, func() error {
			var listErr error
			feedTxs, listErr = o.feed.ListTransactions(ctx, ids, window)
			return listErr
		})
		if err != nil {
			return nil, nil, fmt.Errorf("listing wallet transactions: %w", err)
		}
	}

	// Normalize feed movements into domain transactions, dropping those whose
	// account is not sync-enabled.
	enabled := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		enabled[acc.ID] = acc
	}

	candidates := make([]domain.Transaction, 0, len(feedTxs))
	for _, ft := range feedTxs {
		acc, ok := enabled[ft.AccountID]
		if !ok {
			continue
		}
		state := domain.SyncStatePending
		if acc.SyncBalanceOnly {
			state = domain.SyncStateSkipped
		}
		candidates = append(candidates, domain.Transaction{
			ID:                 ft.ID,
			AccountID:          ft.AccountID,
			Payee:              ft.Description,
			Amount:             ft.SignedAmount(),
			Date:               ft.Date,
			IsPending:          ft.Pending,
			ClassificationCode: ft.ClassificationCode,
			ClassificationName: ft.ClassificationName,
			SyncState:          state,
		})
	}

	return accounts, candidates, nil
}

// withFetchRetry runs op with one bounded retry after a short delay, but only
// for non-interactive (background) cycles; interactive callers see the first
// error immediately.
func (o *Orchestrator) withFetchRetry(ctx context.Context, interactive bool, op func() error) error {
	err := op()
	if err == nil || interactive {
		return err
	}

	log := logger.FromContext(ctx)
	log.Warn().Err(err).Msg("Fetch failed, retrying once")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Second):
	}
	return op()
}

// reconcileCandidates runs the engine per candidate. Balance-only accounts
// skip reconciliation unless the record is already remotely linked; a store
// failure on one record is logged and skipped, never aborting the batch (the
// feed re-supplies the record next cycle).
func (o *Orchestrator) reconcileCandidates(ctx context.Context, tag string, accounts []domain.Account, candidates []domain.Transaction) (created, updated int) {
	log := logger.FromContext(ctx)
	engine := NewEngine(o.store, tag)

	balanceOnly := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		if acc.SyncBalanceOnly {
			balanceOnly[acc.ID] = true
		}
	}

	for i := range candidates {
		tx := &candidates[i]

		if balanceOnly[tx.AccountID] {
			existing, err := o.store.GetTransaction(ctx, tx.ID)
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Reconcile lookup failed")
				continue
			}
			if existing == nil || existing.RemoteID == "" {
				continue
			}
		}

		result, err := engine.Reconcile(ctx, tx)
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to reconcile transaction")
			continue
		}
		switch result {
		case ResultCreated:
			created++
		case ResultUpdated:
			updated++
		}
	}
	return created, updated
}

// syncBalances upserts every candidate account's balance and pushes it to the
// linked remote asset. Pushes fan out concurrently and the step waits for all
// of them; each failure is logged and contained, never failing the cycle.
func (o *Orchestrator) syncBalances(ctx context.Context, accounts []domain.Account) {
	log := logger.FromContext(ctx)
	window := wallet.WindowAround(time.Now(), o.windowDays)

	var wg stdsync.WaitGroup
	for i := range accounts {
		wg.Add(1)
		go func(acc domain.Account) {
			defer wg.Done()

			bal, err := o.feed.ListBalance(ctx, acc.ID, window)
			if err != nil {
				log.Warn().Err(err).Str("account_id", acc.ID).Msg("Failed to fetch balance")
				return
			}

			acc.Balance = bal.Signed()
			acc.LastUpdated = time.Now()
			if err := o.store.UpsertAccount(ctx, &acc); err != nil {
				log.Warn().Err(err).Str("account_id", acc.ID).Msg("Failed to store balance")
				return
			}

			if !acc.Linked() {
				return
			}
			assetID, ok := parseRemoteID(acc.RemoteAssetID)
			if !ok {
				log.Warn().Str("account_id", acc.ID).Str("asset_ref", acc.RemoteAssetID).
					Msg("Account carries an unusable remote asset id")
				return
			}
			if err := o.remote.UpdateAssetBalance(ctx, assetID, domain.FormatAmount(acc.Balance), acc.LastUpdated); err != nil {
				log.Warn().Err(err).Str("account_id", acc.ID).Int64("asset_id", assetID).
					Msg("Failed to push balance to remote asset")
				return
			}
			log.Info().Str("account_id", acc.ID).Str("balance", domain.FormatAmount(acc.Balance)).
				Msg("Pushed account balance")
		}(accounts[i])
	}
	wg.Wait()
}

// logCycle appends a checkpoint to the persistent sync trail. The trail is
// observability only; append failures must not disturb the cycle.
func (o *Orchestrator) logCycle(ctx context.Context, tag, message, level string) {
	entry := &domain.CycleLogEntry{
		At:      time.Now(),
		Tag:     tag,
		Message: message,
		Level:   level,
	}
	if err := o.store.AppendCycleLog(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to append cycle log entry")
	}
}
