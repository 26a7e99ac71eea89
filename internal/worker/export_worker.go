// Package worker runs the background event consumers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// TransactionAppender is the export destination. The Google Sheets
// client implements it.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) error
}

// ExportWorker mirrors transaction events into an append-only export.
// Deletes and updates are logged and skipped: the mirror is a write log,
// not a replica.
type ExportWorker struct {
	store    ledger.TransactionStore
	appender TransactionAppender
}

func NewExportWorker(store ledger.TransactionStore, appender TransactionAppender) *ExportWorker {
	return &ExportWorker{
		store:    store,
		appender: appender,
	}
}

// HandleEvent processes one transaction event. Returning an error
// requeues the delivery, so unrecoverable conditions are swallowed
// after logging.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"event_id", event.EventID,
		"action", event.Action,
		"transaction_id", event.TransactionID)

	switch event.Action {
	case amqp.ActionCreated, amqp.ActionMaterialized:
	case amqp.ActionUpdated, amqp.ActionDeleted:
		slog.DebugContext(ctx, "Skipping event for append-only export", "action", event.Action)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event action, dropping", "action", event.Action)
		return nil
	}

	transaction, err := w.store.GetTransaction(ctx, event.UserID, event.TransactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// Deleted before we got to it. Nothing to mirror.
			slog.WarnContext(ctx, "Transaction gone before export", "transaction_id", event.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.appender.Append(ctx, transaction); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", transaction.ID,
		"amount_cents", transaction.Amount.Cents)
	return nil
}
