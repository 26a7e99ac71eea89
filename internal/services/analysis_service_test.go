package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
)

func seedTransaction(t *testing.T, store *memory.Store, tx core.Transaction) {
	t.Helper()
	if _, err := store.CreateTransaction(context.Background(), "alice", tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func TestAnalysisService_Summarize(t *testing.T) {
	store := memory.New()
	svc := NewAnalysisService(store)
	ctx := context.Background()

	seedTransaction(t, store, core.Transaction{
		Type: core.Income, Amount: core.Money{Cents: 500000}, Date: mustDate(t, "2024-03-01"),
	})
	seedTransaction(t, store, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 120000}, Category: "Food", Date: mustDate(t, "2024-03-10"),
	})
	seedTransaction(t, store, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 99900}, Date: mustDate(t, "2024-04-01"), // outside window
	})

	report, err := svc.Summarize(ctx, "alice", core.ViewMonthly, mustDate(t, "2024-03-15"), false)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	sum := report.Summary
	if sum.TotalIncome.Cents != 500000 || sum.TotalExpense.Cents != 120000 {
		t.Errorf("totals = %d/%d, want 500000/120000", sum.TotalIncome.Cents, sum.TotalExpense.Cents)
	}
	if sum.Net().Cents != 380000 {
		t.Errorf("Net = %d, want 380000", sum.Net().Cents)
	}
	if sum.Window.Label != "2024-03" {
		t.Errorf("Label = %q, want 2024-03", sum.Window.Label)
	}
	if len(sum.Series) != 31 {
		t.Errorf("series has %d buckets, want 31", len(sum.Series))
	}
	if report.CarryOver.Cents != 0 {
		t.Errorf("CarryOver = %d, want 0 without carry flag", report.CarryOver.Cents)
	}
}

func TestAnalysisService_CarryOver(t *testing.T) {
	store := memory.New()
	svc := NewAnalysisService(store)
	ctx := context.Background()

	// February nets +1000 cents; March is empty.
	seedTransaction(t, store, core.Transaction{
		Type: core.Income, Amount: core.Money{Cents: 3000}, Date: mustDate(t, "2024-02-05"),
	})
	seedTransaction(t, store, core.Transaction{
		Type: core.Expense, Amount: core.Money{Cents: 2000}, Date: mustDate(t, "2024-02-20"),
	})

	report, err := svc.Summarize(ctx, "alice", core.ViewMonthly, mustDate(t, "2024-03-15"), true)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if report.CarryOver.Cents != 1000 {
		t.Errorf("CarryOver = %d, want 1000", report.CarryOver.Cents)
	}

	// Carry is a monthly-view feature only.
	report, err = svc.Summarize(ctx, "alice", core.ViewYearly, mustDate(t, "2024-03-15"), true)
	if err != nil {
		t.Fatalf("Summarize yearly: %v", err)
	}
	if report.CarryOver.Cents != 0 {
		t.Errorf("yearly CarryOver = %d, want 0", report.CarryOver.Cents)
	}
}

func TestAnalysisService_StoreErrorSurfaces(t *testing.T) {
	store := memory.New()
	svc := NewAnalysisService(store)

	store.SetError(errors.New("disk on fire"))
	_, err := svc.Summarize(context.Background(), "alice", core.ViewMonthly, mustDate(t, "2024-03-15"), false)
	if !errors.Is(err, ledger.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestAnalysisService_InvalidInput(t *testing.T) {
	svc := NewAnalysisService(memory.New())
	ctx := context.Background()

	if _, err := svc.Summarize(ctx, "alice", core.ViewMonthly, core.Date{}, false); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("zero anchor: err = %v, want ErrInvalidDate", err)
	}
	if _, err := svc.Summarize(ctx, "alice", "hourly", mustDate(t, "2024-03-15"), false); err == nil {
		t.Error("unknown view mode should fail")
	}
}
