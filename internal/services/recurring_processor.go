package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// SweepStore is the store surface the recurring sweep needs.
type SweepStore interface {
	ledger.DueLister
	ledger.BatchCommitter
}

// RecurringProcessor materializes due subscriptions into expense
// transactions. Each due subscription yields exactly one transaction
// per sweep and advances by exactly one period, so an overdue
// subscription catches up over successive sweeps instead of flooding
// the ledger in one.
type RecurringProcessor struct {
	store  SweepStore
	events EventPublisher
}

func NewRecurringProcessor(store SweepStore, events EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		store:  store,
		events: events,
	}
}

// ProcessDueSubscriptions runs one sweep for one user as of today and
// returns the number of transactions created. The whole sweep commits
// atomically: a store failure leaves every subscription untouched.
func (p *RecurringProcessor) ProcessDueSubscriptions(ctx context.Context, userID string, today core.Date) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	if err := today.Validate(); err != nil {
		return 0, err
	}

	due, err := p.store.ListDue(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("list due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing due subscriptions",
		"user_id", userID,
		"due", len(due),
		"processing_date", today.String())

	var batch ledger.Batch
	for _, sub := range due {
		if !sub.Active {
			continue
		}

		next, err := core.NextAfter(sub.Frequency, sub.NextDue)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping subscription with bad frequency",
				"subscription_id", sub.ID,
				"frequency", string(sub.Frequency),
				"error", err)
			continue
		}
		// A schedule that fails to move forward would re-fire on every
		// sweep; skip it rather than loop.
		if !next.After(sub.NextDue.Time) {
			slog.ErrorContext(ctx, "Skipping subscription whose schedule did not advance",
				"subscription_id", sub.ID,
				"next_due", sub.NextDue.String())
			continue
		}

		batch.Create = append(batch.Create, core.Transaction{
			Type:     core.Expense,
			Amount:   sub.Amount,
			Category: sub.Category,
			Note:     sub.Name,
			Date:     today,
			IsAuto:   true,
		})
		batch.Advance = append(batch.Advance, ledger.Advancement{
			SubscriptionID: sub.ID,
			NextDue:        next,
		})
	}

	if batch.Empty() {
		return 0, nil
	}

	created, err := p.store.CommitBatch(ctx, userID, batch)
	if err != nil {
		return 0, fmt.Errorf("commit sweep batch: %w", err)
	}

	for _, t := range created {
		p.publishMaterialized(ctx, userID, t.ID)
	}

	slog.InfoContext(ctx, "Recurring sweep complete",
		"user_id", userID,
		"created", len(created))
	return len(created), nil
}

func (p *RecurringProcessor) publishMaterialized(ctx context.Context, userID, transactionID string) {
	if p.events == nil {
		return
	}
	event := amqp.NewTransactionEvent(amqp.ActionMaterialized, userID, transactionID)
	if err := p.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish materialized event",
			"transaction_id", transactionID,
			"error", err)
	}
}
