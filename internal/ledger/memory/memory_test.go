package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestStore_TransactionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, "alice", core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1200},
		Category: "Food",
		Date:     mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected generated ID")
	}
	if tx.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}

	got, err := s.GetTransaction(ctx, "alice", tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Category != "Food" {
		t.Errorf("Category = %q, want Food", got.Category)
	}

	got.Note = "lunch"
	if err := s.UpdateTransaction(ctx, "alice", got); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	updated, _ := s.GetTransaction(ctx, "alice", tx.ID)
	if updated.Note != "lunch" {
		t.Errorf("Note = %q, want lunch", updated.Note)
	}
	if !updated.CreatedAt.Equal(tx.CreatedAt) {
		t.Error("UpdateTransaction must not change CreatedAt")
	}

	if err := s.DeleteTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "alice", tx.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
}

func TestStore_UserIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, "alice", core.Transaction{
		Type:   core.Income,
		Amount: core.Money{Cents: 500000},
		Date:   mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if _, err := s.GetTransaction(ctx, "bob", tx.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("cross-user get: err = %v, want ErrNotFound", err)
	}
	list, err := s.ListInRange(ctx, "bob", mustDate(t, "2024-01-01"), mustDate(t, "2024-12-31"))
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d transactions, want 0", len(list))
	}
}

func TestStore_ListInRange(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, day := range []string{"2024-02-29", "2024-03-01", "2024-03-31", "2024-04-01"} {
		if _, err := s.CreateTransaction(ctx, "alice", core.Transaction{
			Type:   core.Expense,
			Amount: core.Money{Cents: 100},
			Date:   mustDate(t, day),
		}); err != nil {
			t.Fatalf("CreateTransaction(%s): %v", day, err)
		}
	}

	list, err := s.ListInRange(ctx, "alice", mustDate(t, "2024-03-01"), mustDate(t, "2024-03-31"))
	if err != nil {
		t.Fatalf("ListInRange: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d transactions, want 2 (bounds inclusive)", len(list))
	}
	if !list[0].Date.Before(list[1].Date.Time) {
		t.Error("expected ascending date order")
	}
}

func TestStore_ListDue(t *testing.T) {
	s := New()
	ctx := context.Background()

	mk := func(name, due string, active bool) {
		t.Helper()
		if _, err := s.CreateSubscription(ctx, "alice", core.RecurringSubscription{
			Name:      name,
			Amount:    core.Money{Cents: 999},
			Frequency: core.Monthly,
			NextDue:   mustDate(t, due),
			Active:    active,
		}); err != nil {
			t.Fatalf("CreateSubscription(%s): %v", name, err)
		}
	}
	mk("overdue", "2024-03-01", true)
	mk("due-today", "2024-03-15", true)
	mk("future", "2024-03-16", true)
	mk("paused", "2024-03-01", false)

	due, err := s.ListDue(ctx, "alice", mustDate(t, "2024-03-15"))
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	names := map[string]bool{}
	for _, sub := range due {
		names[sub.Name] = true
	}
	if len(due) != 2 || !names["overdue"] || !names["due-today"] {
		t.Errorf("due = %v, want {overdue, due-today}", names)
	}
}

func TestStore_CommitBatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	sub, err := s.CreateSubscription(ctx, "alice", core.RecurringSubscription{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 1599},
		Frequency: core.Monthly,
		NextDue:   mustDate(t, "2024-03-01"),
		Active:    true,
	})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	batch := ledger.Batch{
		Create: []core.Transaction{{
			Type:   core.Expense,
			Amount: core.Money{Cents: 1599},
			Date:   mustDate(t, "2024-03-15"),
			IsAuto: true,
		}},
		Advance: []ledger.Advancement{{
			SubscriptionID: sub.ID,
			NextDue:        mustDate(t, "2024-04-01"),
		}},
	}
	created, err := s.CommitBatch(ctx, "alice", batch)
	if err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}
	if len(created) != 1 || created[0].ID == "" {
		t.Fatalf("created = %+v, want one transaction with assigned ID", created)
	}

	subs, _ := s.ListSubscriptions(ctx, "alice")
	if subs[0].NextDue.String() != "2024-04-01" {
		t.Errorf("NextDue = %s, want 2024-04-01", subs[0].NextDue)
	}
	txs, _ := s.ListInRange(ctx, "alice", mustDate(t, "2024-03-01"), mustDate(t, "2024-03-31"))
	if len(txs) != 1 || !txs[0].IsAuto {
		t.Errorf("txs = %+v, want one auto transaction", txs)
	}
}

func TestStore_CommitBatch_UnknownSubscriptionAppliesNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	batch := ledger.Batch{
		Create: []core.Transaction{{
			Type:   core.Expense,
			Amount: core.Money{Cents: 1599},
			Date:   mustDate(t, "2024-03-15"),
		}},
		Advance: []ledger.Advancement{{
			SubscriptionID: "missing",
			NextDue:        mustDate(t, "2024-04-01"),
		}},
	}
	if _, err := s.CommitBatch(ctx, "alice", batch); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("CommitBatch: err = %v, want ErrNotFound", err)
	}

	txs, _ := s.ListInRange(ctx, "alice", mustDate(t, "2024-01-01"), mustDate(t, "2024-12-31"))
	if len(txs) != 0 {
		t.Errorf("found %d transactions after failed batch, want 0", len(txs))
	}
}

func TestStore_SetError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("disk on fire")
	s.SetError(boom)

	if _, err := s.CreateTransaction(ctx, "alice", core.Transaction{}); !errors.Is(err, ledger.ErrStoreUnavailable) {
		t.Errorf("CreateTransaction: err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.CommitBatch(ctx, "alice", ledger.Batch{}); !errors.Is(err, boom) {
		t.Errorf("CommitBatch: err = %v, want to wrap %v", err, boom)
	}

	s.SetError(nil)
	if _, err := s.ListDue(ctx, "alice", mustDate(t, "2024-03-15")); err != nil {
		t.Errorf("ListDue after clearing error: %v", err)
	}
}

func TestStore_SetClock(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	tx, err := s.CreateTransaction(context.Background(), "alice", core.Transaction{
		Type:   core.Expense,
		Amount: core.Money{Cents: 100},
		Date:   mustDate(t, "2024-03-15"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if !tx.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", tx.CreatedAt, fixed)
	}
}
