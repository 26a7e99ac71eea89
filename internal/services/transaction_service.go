// Package services orchestrates the domain core against the store,
// the categorization rules and the event bus.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/rules"
)

// EventPublisher is the publishing side of the event bus. A nil
// publisher is valid and disables events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// TransactionService validates, auto-categorizes and stores
// transactions, publishing a change event after each write.
type TransactionService struct {
	store       ledger.TransactionStore
	categorizer *rules.Categorizer
	events      EventPublisher
}

func NewTransactionService(store ledger.TransactionStore, categorizer *rules.Categorizer, events EventPublisher) *TransactionService {
	if categorizer == nil {
		categorizer = rules.Default()
	}
	return &TransactionService{
		store:       store,
		categorizer: categorizer,
		events:      events,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if t.Category == "" {
		if c := s.categorizer.Categorize(t.Note); c != "" {
			slog.DebugContext(ctx, "Auto-categorized transaction", "category", c)
			t.Category = c
		}
	}

	created, err := s.store.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, userID, created.ID)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) Update(ctx context.Context, userID string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateTransaction(ctx, userID, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.ActionUpdated, userID, t.ID)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.ActionDeleted, userID, id)
	return nil
}

func (s *TransactionService) ListInRange(ctx context.Context, userID string, start, end core.Date) ([]core.Transaction, error) {
	return s.store.ListInRange(ctx, userID, start, end)
}

// publish sends a change event. Failures are logged, never returned:
// the write already succeeded locally.
func (s *TransactionService) publish(ctx context.Context, action, userID, transactionID string) {
	if s.events == nil {
		return
	}
	event := amqp.NewTransactionEvent(action, userID, transactionID)
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"transaction_id", transactionID,
			"error", err)
	}
}
