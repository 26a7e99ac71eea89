package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Report is one summary view plus the optional carry-over from the
// previous month.
type Report struct {
	Summary   core.Summary
	CarryOver core.Money
}

// AnalysisService computes period summaries over stored transactions.
type AnalysisService struct {
	store ledger.RangeLister
}

func NewAnalysisService(store ledger.RangeLister) *AnalysisService {
	return &AnalysisService{store: store}
}

// Summarize aggregates the window implied by mode and anchor. When
// carry is set on the monthly view, the previous month's net balance is
// reported alongside; other views ignore the flag.
func (s *AnalysisService) Summarize(ctx context.Context, userID string, mode core.ViewMode, anchor core.Date, carry bool) (Report, error) {
	window, err := core.ComputeWindow(mode, anchor)
	if err != nil {
		return Report{}, err
	}

	transactions, err := s.store.ListInRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return Report{}, fmt.Errorf("list transactions: %w", err)
	}

	summary := core.Aggregate(transactions, window.Start, window.End, mode)
	summary.Window = window

	report := Report{Summary: summary}
	if carry && mode == core.ViewMonthly {
		carryOver, err := s.previousMonthNet(ctx, userID, anchor)
		if err != nil {
			return Report{}, err
		}
		report.CarryOver = carryOver
	}
	return report, nil
}

func (s *AnalysisService) previousMonthNet(ctx context.Context, userID string, anchor core.Date) (core.Money, error) {
	prevAnchor, err := core.ShiftAnchor(core.ViewMonthly, anchor, -1)
	if err != nil {
		return core.Money{}, err
	}
	prevWindow, err := core.ComputeWindow(core.ViewMonthly, prevAnchor)
	if err != nil {
		return core.Money{}, err
	}
	transactions, err := s.store.ListInRange(ctx, userID, prevWindow.Start, prevWindow.End)
	if err != nil {
		return core.Money{}, fmt.Errorf("list previous month: %w", err)
	}
	return core.CarryOver(transactions), nil
}
