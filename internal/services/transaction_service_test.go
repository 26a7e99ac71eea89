package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
)

func TestTransactionService_Create(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, nil, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1200},
		Category: "Food",
		Date:     mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned ID")
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreated {
		t.Errorf("events = %+v, want one created event", pub.events)
	}
}

func TestTransactionService_CreateValidates(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{
			name: "bad type",
			tx:   core.Transaction{Type: "transfer", Amount: core.Money{Cents: 100}, Date: mustDate(t, "2024-03-15")},
			want: core.ErrInvalidType,
		},
		{
			name: "zero amount",
			tx:   core.Transaction{Type: core.Expense, Date: mustDate(t, "2024-03-15")},
			want: core.ErrInvalidAmount,
		},
		{
			name: "missing date",
			tx:   core.Transaction{Type: core.Expense, Amount: core.Money{Cents: 100}},
			want: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, "alice", tt.tx); !errors.Is(err, tt.want) {
				t.Errorf("Create: err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionService_AutoCategorizes(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Transaction{
		Type:   core.Expense,
		Amount: core.Money{Cents: 1599},
		Note:   "Netflix subscription",
		Date:   mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Category != "Subscriptions" {
		t.Errorf("Category = %q, want Subscriptions", created.Category)
	}

	// An explicit category is never overridden.
	created, err = svc.Create(ctx, "alice", core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1599},
		Category: "Gifts",
		Note:     "Netflix gift card",
		Date:     mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Category != "Gifts" {
		t.Errorf("Category = %q, want Gifts", created.Category)
	}
}

func TestTransactionService_PublishFailureIsNonFatal(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil, &fakePublisher{err: errors.New("broker down")})
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Transaction{
		Type:   core.Expense,
		Amount: core.Money{Cents: 100},
		Date:   mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.GetTransaction(ctx, "alice", created.ID); err != nil {
		t.Errorf("transaction not stored: %v", err)
	}
}

func TestTransactionService_UpdateAndDelete(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(store, nil, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", core.Transaction{
		Type:   core.Expense,
		Amount: core.Money{Cents: 100},
		Date:   mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Note = "updated"
	if err := svc.Update(ctx, "alice", created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, "alice", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "alice", created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}

	actions := make([]string, len(pub.events))
	for i, e := range pub.events {
		actions[i] = e.Action
	}
	want := []string{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %s, want %s", i, actions[i], want[i])
		}
	}
}
