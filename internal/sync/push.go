package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/logger"
	"github.com/dvloznov/wallet-sync/internal/lunchmoney"
	"github.com/dvloznov/wallet-sync/internal/wallet"
)

// unlinkedAssetRef is sent when a transaction's account has no remote asset;
// the remote service answers with an API error, which the normal push error
// handling absorbs.
const unlinkedAssetRef = "0"

// matchWindowDays is the half-width of the remote listing window used for
// external-id matching around a transaction's date.
const matchWindowDays = 30

// RetryPolicy bounds the per-transaction push retry loop. MaxAttempts <= 0
// retries until the context dies; callers should prefer a cap.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy caps retries so a permanently failing record cannot
// wedge a cycle.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Backoff: 2 * time.Second}

// ProgressUpdate reports the push loop's position to an interactive caller.
type ProgressUpdate struct {
	TransactionID string
	Payee         string
	Status        string
	Attempt       int
}

// ProgressFunc receives push progress; may be nil.
type ProgressFunc func(ProgressUpdate)

// pushPending pushes every Pending transaction to the remote ledger, one at a
// time, retrying each under the configured policy. Cancellation is
// cooperative: the context is checked between transactions, and records not
// reached simply stay Pending for the next cycle. An error is returned only
// when persisting a push outcome fails.
func (o *Orchestrator) pushPending(ctx context.Context, tag string, progress ProgressFunc) error {
	log := logger.FromContext(ctx)

	pending, err := o.store.ListTransactionsByState(ctx, domain.SyncStatePending)
	if err != nil {
		return fmt.Errorf("listing pending transactions: %w", err)
	}

	o.logCycle(ctx, tag, fmt.Sprintf("got initialPendingCount=%d", len(pending)), "info")
	log.Info().Int("pending", len(pending)).Msg("Starting push loop")

	for i := range pending {
		if ctx.Err() != nil {
			log.Info().Int("remaining", len(pending)-i).Msg("Push loop cancelled, remaining records stay pending")
			return nil
		}

		tx := pending[i]
		assetRef := o.resolveAssetRef(ctx, tx.AccountID)
		report(progress, ProgressUpdate{TransactionID: tx.ID, Payee: tx.Payee, Status: "pushing"})

		for attempt := 1; ; attempt++ {
			pushed, err := o.performPush(ctx, &tx, assetRef, tag)
			if err == nil {
				if saveErr := o.store.SaveTransaction(ctx, pushed); saveErr != nil {
					return fmt.Errorf("saving push outcome for %s: %w", tx.ID, saveErr)
				}
				report(progress, ProgressUpdate{TransactionID: tx.ID, Payee: tx.Payee, Status: "done", Attempt: attempt})
				break
			}

			log.Warn().Err(err).Str("transaction_id", tx.ID).Int("attempt", attempt).
				Msg("Push attempt failed")
			report(progress, ProgressUpdate{
				TransactionID: tx.ID,
				Payee:         tx.Payee,
				Status:        fmt.Sprintf("error, retry %d", attempt),
				Attempt:       attempt,
			})

			if o.retry.MaxAttempts > 0 && attempt >= o.retry.MaxAttempts {
				// Retries exhausted; persist the terminal state performPush
				// recorded and move on.
				if saveErr := o.store.SaveTransaction(ctx, &tx); saveErr != nil {
					return fmt.Errorf("saving failed push state for %s: %w", tx.ID, saveErr)
				}
				break
			}

			select {
			case <-ctx.Done():
				if saveErr := o.store.SaveTransaction(ctx, &tx); saveErr != nil {
					return fmt.Errorf("saving failed push state for %s: %w", tx.ID, saveErr)
				}
				return nil
			case <-time.After(o.retry.Backoff):
			}
		}
	}

	return nil
}

func report(progress ProgressFunc, update ProgressUpdate) {
	if progress != nil {
		progress(update)
	}
}

// resolveAssetRef maps a local account to its remote asset id, falling back
// to the unlinked sentinel.
func (o *Orchestrator) resolveAssetRef(ctx context.Context, accountID string) string {
	acc, err := o.store.GetAccount(ctx, accountID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("account_id", accountID).
			Msg("Failed to resolve account for asset ref")
		return unlinkedAssetRef
	}
	if acc == nil || acc.RemoteAssetID == "" {
		return unlinkedAssetRef
	}
	return acc.RemoteAssetID
}

// performPush executes one push attempt: list the remote ±30-day window,
// match by external id, then UPDATE the match or CREATE with the local id as
// external_id (the sole dedupe mechanism the remote offers). The returned
// transaction carries the resulting sync state; the caller persists it.
//
// Error contract: a remote rejection of an UPDATE leaves the sync state
// untouched (retried next cycle); a create that succeeds without returning an
// id is terminal (Never); any other failure records Never plus an error
// history entry and propagates to the retry loop.
func (o *Orchestrator) performPush(ctx context.Context, tx *domain.Transaction, assetRef, tag string) (*domain.Transaction, error) {
	log := logger.FromContext(ctx)

	window := wallet.WindowAround(tx.Date, matchWindowDays)
	filters := lunchmoney.TransactionFilters{
		StartDate: window.Start.Format("2006-01-02"),
		EndDate:   window.End.Format("2006-01-02"),
	}
	if assetRef != unlinkedAssetRef {
		if id, err := strconv.ParseInt(assetRef, 10, 64); err == nil {
			filters.AssetID = id
		}
	}

	remoteTxs, err := o.remote.ListTransactions(ctx, filters)
	if err != nil {
		o.markPushFailed(ctx, tx, tag, err)
		return nil, err
	}

	var match *lunchmoney.Transaction
	for i := range remoteTxs {
		if remoteTxs[i].ExternalID == tx.ID {
			match = &remoteTxs[i]
			break
		}
	}

	if match != nil {
		if err := o.remote.UpdateTransaction(ctx, match.ID, o.updateFieldsFor(tx, assetRef)); err != nil {
			var apiErr *lunchmoney.APIError
			if errors.As(err, &apiErr) {
				// The remote rejected the update; leave the record Pending so
				// the next cycle retries it, rather than marking it Never.
				log.Warn().Err(err).Str("transaction_id", tx.ID).Int64("remote_id", match.ID).
					Msg("Remote rejected transaction update")
				return tx, nil
			}
			o.markPushFailed(ctx, tx, tag, err)
			return nil, err
		}

		tx.RemoteID = strconv.FormatInt(match.ID, 10)
		tx.RemoteAccountRef = assetRef
		tx.SyncState = domain.SyncStateComplete
		o.appendHistory(ctx, tx.ID, "Synced to LM (updated)", tag)
		return tx, nil
	}

	req := lunchmoney.InsertRequest{
		Transactions:      []lunchmoney.InsertTransaction{o.insertTransactionFor(tx, assetRef)},
		ApplyRules:        o.opts.ApplyRules,
		SkipDuplicates:    o.opts.SkipDuplicates,
		CheckForRecurring: o.opts.CheckForRecurring,
		SkipBalanceUpdate: o.opts.SkipBalanceUpdate,
	}
	resp, err := o.remote.CreateTransactions(ctx, req)
	if err != nil {
		o.markPushFailed(ctx, tx, tag, err)
		return nil, err
	}

	if len(resp.IDs) == 0 {
		// A create that "succeeds" without an id is a protocol anomaly, not a
		// transient fault: terminal for this cycle, user must requeue.
		tx.SyncState = domain.SyncStateNever
		o.appendHistory(ctx, tx.ID, "Sync failed: remote returned no transaction id", tag)
		return tx, nil
	}

	tx.RemoteID = strconv.FormatInt(resp.IDs[0], 10)
	tx.RemoteAccountRef = assetRef
	tx.SyncState = domain.SyncStateComplete
	o.appendHistory(ctx, tx.ID, "Synced to LM", tag)
	return tx, nil
}

// markPushFailed records a thrown push error on the transaction before it is
// re-surfaced to the retry loop.
func (o *Orchestrator) markPushFailed(ctx context.Context, tx *domain.Transaction, tag string, cause error) {
	tx.SyncState = domain.SyncStateNever
	o.appendHistory(ctx, tx.ID, fmt.Sprintf("Sync error: %v", cause), tag)
}

func (o *Orchestrator) appendHistory(ctx context.Context, transactionID, note, tag string) {
	entry := &domain.ChangeEntry{
		TransactionID: transactionID,
		At:            time.Now(),
		Note:          note,
		Source:        tag,
	}
	if err := o.store.AppendChange(ctx, entry); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("transaction_id", transactionID).
			Msg("Failed to append history entry")
	}
}

// insertTransactionFor maps a local transaction into the remote create shape.
// Amounts are serialized as exact two-decimal strings.
func (o *Orchestrator) insertTransactionFor(tx *domain.Transaction, assetRef string) lunchmoney.InsertTransaction {
	out := lunchmoney.InsertTransaction{
		Date:       tx.Date.Format("2006-01-02"),
		Payee:      tx.Payee,
		Amount:     domain.FormatAmount(tx.Amount),
		ExternalID: tx.ID,
		Status:     o.remoteStatus(),
		Notes:      o.remoteNotes(tx),
		IsPending:  false,
	}
	if id, ok := parseRemoteID(tx.RemoteCategoryID); ok {
		out.CategoryID = &id
	}
	// The unlinked sentinel is sent as asset 0 on purpose: the remote rejects
	// it, surfacing the missing account link as a push error.
	if id, err := strconv.ParseInt(assetRef, 10, 64); err == nil {
		out.AssetID = &id
	}
	return out
}

// updateFieldsFor maps a local transaction into the remote partial-update
// shape. The pending flag is always sent false: the remote service does not
// allow re-marking a cleared transaction as pending.
func (o *Orchestrator) updateFieldsFor(tx *domain.Transaction, assetRef string) lunchmoney.UpdateFields {
	fields := lunchmoney.UpdateFields{
		Date:      lunchmoney.Ptr(tx.Date.Format("2006-01-02")),
		Payee:     lunchmoney.Ptr(tx.Payee),
		Amount:    lunchmoney.Ptr(domain.FormatAmount(tx.Amount)),
		Status:    lunchmoney.Ptr(o.remoteStatus()),
		IsPending: lunchmoney.Ptr(false),
	}
	if id, ok := parseRemoteID(tx.RemoteCategoryID); ok {
		fields.CategoryID = &id
	}
	if id, err := strconv.ParseInt(assetRef, 10, 64); err == nil && id != 0 {
		fields.AssetID = &id
	}
	if notes := o.remoteNotes(tx); notes != "" {
		fields.Notes = &notes
	}
	return fields
}

func (o *Orchestrator) remoteStatus() string {
	if o.opts.ImportAsCleared {
		return "cleared"
	}
	return "uncleared"
}

// remoteNotes carries local notes to the remote record only when the user
// enabled it, optionally annotated with the pending status.
func (o *Orchestrator) remoteNotes(tx *domain.Transaction) string {
	if !o.opts.PutStatusInNotes {
		return ""
	}
	notes := tx.Notes
	if tx.IsPending {
		notes = strings.TrimSpace(notes + " [pending]")
	}
	return notes
}

// parseRemoteID parses a remote id string, rejecting the empty value and the
// skip/unlinked sentinel.
func parseRemoteID(s string) (int64, bool) {
	if s == "" || s == domain.CategorySkipSentinel {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
