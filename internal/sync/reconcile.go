package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/logger"
)

// ReconcileResult says what the engine did with an incoming record.
type ReconcileResult string

const (
	ResultCreated   ReconcileResult = "created"
	ResultUpdated   ReconcileResult = "updated"
	ResultUnchanged ReconcileResult = "unchanged"
)

// Engine merges freshly fetched records into the store. The diff policy is
// non-empty-wins for volatile string fields: an incoming blank never clobbers
// richer stored data, so the effective source of truth for content is the
// latest non-blank observation. Any detected change re-queues the record for
// push.
type Engine struct {
	store RecordStore
	// source tags history entries with the trigger surface that produced them.
	source string
}

// NewEngine creates a reconciliation engine writing history under the given
// source tag.
func NewEngine(store RecordStore, source string) *Engine {
	return &Engine{store: store, source: source}
}

// Reconcile merges one incoming transaction into the store, keyed by id.
// A record not seen before is inserted as-is with no history entry; a known
// record is field-diffed, and exactly one history entry itemizing the
// transitions is appended when anything changed. Re-reconciling identical
// data is silent.
func (e *Engine) Reconcile(ctx context.Context, incoming *domain.Transaction) (ReconcileResult, error) {
	existing, err := e.store.GetTransaction(ctx, incoming.ID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		if incoming.SyncState == "" {
			incoming.SyncState = domain.SyncStatePending
		}
		if err := e.store.SaveTransaction(ctx, incoming); err != nil {
			return "", err
		}
		return ResultCreated, nil
	}

	changes := diffTransactions(existing, incoming)
	if len(changes) == 0 {
		return ResultUnchanged, nil
	}

	applyChanges(existing, incoming, changes)

	// The latest link state is idempotent to re-copy; a change of any kind
	// re-queues the record for push.
	existing.RemoteID = incoming.RemoteID
	existing.RemoteAccountRef = incoming.RemoteAccountRef
	existing.SyncState = domain.SyncStatePending

	entry := &domain.ChangeEntry{
		TransactionID: existing.ID,
		At:            time.Now(),
		Note:          domain.SummarizeChanges(changes),
		Source:        e.source,
	}
	if err := e.store.AppendChange(ctx, entry); err != nil {
		// History is observability, not control flow; the update still lands.
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("transaction_id", existing.ID).
			Msg("Failed to append change history")
	}

	if err := e.store.SaveTransaction(ctx, existing); err != nil {
		return "", err
	}
	return ResultUpdated, nil
}

// diffTransactions computes the tracked field transitions from stored to
// incoming. String fields follow non-empty-wins: the incoming value counts as
// a change only when it differs AND is non-blank. Amount, pending flag and
// date use plain inequality.
func diffTransactions(stored, incoming *domain.Transaction) []domain.FieldChange {
	var changes []domain.FieldChange

	stringField := func(field domain.Field, from, to string) {
		if to != "" && to != from {
			changes = append(changes, domain.FieldChange{Field: field, From: from, To: to})
		}
	}

	stringField(domain.FieldPayee, stored.Payee, incoming.Payee)
	stringField(domain.FieldNotes, stored.Notes, incoming.Notes)
	stringField(domain.FieldClassificationCode, stored.ClassificationCode, incoming.ClassificationCode)
	stringField(domain.FieldClassificationName, stored.ClassificationName, incoming.ClassificationName)
	stringField(domain.FieldRemoteCategoryID, stored.RemoteCategoryID, incoming.RemoteCategoryID)
	stringField(domain.FieldRemoteCategoryName, stored.RemoteCategoryName, incoming.RemoteCategoryName)

	if !stored.Amount.Equal(incoming.Amount) {
		changes = append(changes, domain.FieldChange{
			Field: domain.FieldAmount,
			From:  domain.FormatAmountDisplay(stored.Amount),
			To:    domain.FormatAmountDisplay(incoming.Amount),
		})
	}
	if stored.IsPending != incoming.IsPending {
		changes = append(changes, domain.FieldChange{
			Field: domain.FieldIsPending,
			From:  fmt.Sprintf("%t", stored.IsPending),
			To:    fmt.Sprintf("%t", incoming.IsPending),
		})
	}
	if !stored.Date.Equal(incoming.Date) {
		changes = append(changes, domain.FieldChange{
			Field: domain.FieldDate,
			From:  stored.Date.Format("2006-01-02"),
			To:    incoming.Date.Format("2006-01-02"),
		})
	}

	return changes
}

// applyChanges writes the detected transitions onto the stored record. The
// switch is exhaustive over the Field enum.
func applyChanges(stored, incoming *domain.Transaction, changes []domain.FieldChange) {
	for _, c := range changes {
		switch c.Field {
		case domain.FieldPayee:
			stored.Payee = incoming.Payee
		case domain.FieldNotes:
			stored.Notes = incoming.Notes
		case domain.FieldClassificationCode:
			stored.ClassificationCode = incoming.ClassificationCode
		case domain.FieldClassificationName:
			stored.ClassificationName = incoming.ClassificationName
		case domain.FieldRemoteCategoryID:
			stored.RemoteCategoryID = incoming.RemoteCategoryID
		case domain.FieldRemoteCategoryName:
			stored.RemoteCategoryName = incoming.RemoteCategoryName
		case domain.FieldAmount:
			stored.Amount = incoming.Amount
		case domain.FieldIsPending:
			stored.IsPending = incoming.IsPending
		case domain.FieldDate:
			stored.Date = incoming.Date
		}
	}
}
