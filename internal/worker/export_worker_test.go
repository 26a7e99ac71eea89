package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger/memory"
)

type fakeAppender struct {
	appended []core.Transaction
	err      error
}

func (f *fakeAppender) Append(_ context.Context, t core.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, t)
	return nil
}

func seedTransaction(t *testing.T, store *memory.Store) core.Transaction {
	t.Helper()
	d, err := core.ParseDate("2024-03-15")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := store.CreateTransaction(context.Background(), "alice", core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1599},
		Category: "Subscriptions",
		Date:     d,
		IsAuto:   true,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func TestExportWorker_HandleEvent(t *testing.T) {
	store := memory.New()
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender)
	tx := seedTransaction(t, store)

	event := amqp.NewTransactionEvent(amqp.ActionMaterialized, "alice", tx.ID)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(appender.appended) != 1 || appender.appended[0].ID != tx.ID {
		t.Errorf("appended = %+v, want the seeded transaction", appender.appended)
	}
}

func TestExportWorker_SkipsNonAppendActions(t *testing.T) {
	store := memory.New()
	appender := &fakeAppender{}
	w := NewExportWorker(store, appender)
	tx := seedTransaction(t, store)

	for _, action := range []string{amqp.ActionUpdated, amqp.ActionDeleted, "rebalanced"} {
		event := amqp.NewTransactionEvent(action, "alice", tx.ID)
		if err := w.HandleEvent(context.Background(), event); err != nil {
			t.Errorf("HandleEvent(%s): %v", action, err)
		}
	}
	if len(appender.appended) != 0 {
		t.Errorf("appended %d rows, want 0", len(appender.appended))
	}
}

func TestExportWorker_MissingTransactionIsNotAnError(t *testing.T) {
	w := NewExportWorker(memory.New(), &fakeAppender{})

	event := amqp.NewTransactionEvent(amqp.ActionCreated, "alice", "gone")
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Errorf("HandleEvent: %v, want nil for a vanished transaction", err)
	}
}

func TestExportWorker_AppendFailureRequeues(t *testing.T) {
	store := memory.New()
	boom := errors.New("sheets quota exceeded")
	w := NewExportWorker(store, &fakeAppender{err: boom})
	tx := seedTransaction(t, store)

	event := amqp.NewTransactionEvent(amqp.ActionCreated, "alice", tx.ID)
	if err := w.HandleEvent(context.Background(), event); !errors.Is(err, boom) {
		t.Errorf("HandleEvent: err = %v, want %v", err, boom)
	}
}
