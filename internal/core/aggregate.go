package core

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

const (
	ViewDaily     ViewMode = "daily"
	ViewWeekly    ViewMode = "weekly"
	ViewMonthly   ViewMode = "monthly"
	ViewQuarterly ViewMode = "quarterly"
	ViewYearly    ViewMode = "yearly"
)

type (
	ViewMode string

	// Window is the inclusive [Start, End] calendar range implied by a
	// view mode and an anchor date.
	Window struct {
		Start Date
		End   Date
		Label string
	}

	// Bucket is one time slice of an aggregation series: a calendar day,
	// or a month for the yearly view.
	Bucket struct {
		Key     string
		Income  Money
		Expense Money
	}

	// UnparseableTally counts records whose date could not be parsed at
	// the store boundary. They are reported here instead of being
	// silently dropped.
	UnparseableTally struct {
		Count int
		Cents int64
	}

	// Summary is the full output of one aggregation pass.
	Summary struct {
		Window       Window
		TotalIncome  Money
		TotalExpense Money
		ByCategory   map[string]Money // expense only
		Series       []Bucket
		Unparseable  UnparseableTally
	}
)

func (m ViewMode) Validate() error {
	switch m {
	case ViewDaily, ViewWeekly, ViewMonthly, ViewQuarterly, ViewYearly:
		return nil
	default:
		return fmt.Errorf("unknown view mode: %s", string(m))
	}
}

// ParseViewMode validates and converts a raw view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	m := ViewMode(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Net returns income minus expense over the window, in signed cents.
func (s Summary) Net() Money {
	return Money{Cents: s.TotalIncome.Cents - s.TotalExpense.Cents}
}

// ComputeWindow resolves a view mode and anchor date to a window.
//
// Weekly windows start on the Monday at or before the anchor and span
// seven days. Quarters are the calendar blocks starting in January,
// April, July and October.
func ComputeWindow(mode ViewMode, anchor Date) (Window, error) {
	if err := anchor.Validate(); err != nil {
		return Window{}, err
	}
	switch mode {
	case ViewDaily:
		return Window{Start: anchor, End: anchor, Label: anchor.String()}, nil
	case ViewWeekly:
		// time.Weekday has Sunday == 0; shift so Monday == 0.
		offset := (int(anchor.Weekday()) + 6) % 7
		start := anchor.AddDays(-offset)
		end := start.AddDays(6)
		return Window{Start: start, End: end, Label: start.String() + "/" + end.String()}, nil
	case ViewMonthly:
		start := NewDate(anchor.Year(), anchor.Month(), 1)
		end := NewDate(anchor.Year(), anchor.Month(), lastDayOfMonth(anchor.Year(), time.Month(anchor.Month())))
		return Window{Start: start, End: end, Label: start.Format("2006-01")}, nil
	case ViewQuarterly:
		q := (anchor.Month() - 1) / 3
		startMonth := q*3 + 1
		start := NewDate(anchor.Year(), startMonth, 1)
		endMonth := startMonth + 2
		end := NewDate(anchor.Year(), endMonth, lastDayOfMonth(anchor.Year(), time.Month(endMonth)))
		label := fmt.Sprintf("%d-Q%d", anchor.Year(), q+1)
		return Window{Start: start, End: end, Label: label}, nil
	case ViewYearly:
		start := NewDate(anchor.Year(), 1, 1)
		end := NewDate(anchor.Year(), 12, 31)
		return Window{Start: start, End: end, Label: start.Format("2006")}, nil
	default:
		return Window{}, fmt.Errorf("unknown view mode: %s", string(mode))
	}
}

// ShiftAnchor moves the anchor by step units of the view mode (step is
// usually -1 for "previous" and +1 for "next"). Month and year shifts use
// the same clipping policy as schedule advancement.
func ShiftAnchor(mode ViewMode, anchor Date, step int) (Date, error) {
	if err := anchor.Validate(); err != nil {
		return Date{}, err
	}
	switch mode {
	case ViewDaily:
		return anchor.AddDays(step), nil
	case ViewWeekly:
		return anchor.AddDays(7 * step), nil
	case ViewMonthly:
		return addMonthsClipped(anchor, step), nil
	case ViewQuarterly:
		return addMonthsClipped(anchor, 3*step), nil
	case ViewYearly:
		return addYearsClipped(anchor, step), nil
	default:
		return Date{}, fmt.Errorf("unknown view mode: %s", string(mode))
	}
}

// Aggregate buckets transactions falling inside [start, end] inclusive.
//
// The yearly view produces twelve month buckets; every other view produces
// one bucket per calendar day so charts have no gaps. Records with a zero
// date (date text that failed to parse at the store boundary) are tallied
// into Unparseable and logged, never silently dropped. Aggregate is a pure
// function of its inputs; amounts are summed in cents with no rounding.
func Aggregate(transactions []Transaction, start, end Date, mode ViewMode) Summary {
	sum := Summary{
		Window:     Window{Start: start, End: end},
		ByCategory: make(map[string]Money),
		Series:     makeSeries(start, end, mode),
	}

	for _, t := range transactions {
		if t.Date.IsZero() {
			sum.Unparseable.Count++
			sum.Unparseable.Cents += t.Amount.Cents
			slog.Warn("Skipping transaction with unparseable date",
				"id", t.ID,
				"amount_cents", t.Amount.Cents)
			continue
		}
		if t.Date.Before(start.Time) || t.Date.After(end.Time) {
			continue
		}

		idx := bucketIndex(t.Date, start, mode)
		if idx < 0 || idx >= len(sum.Series) {
			continue
		}
		switch t.Type {
		case Income:
			sum.TotalIncome.Cents += t.Amount.Cents
			sum.Series[idx].Income.Cents += t.Amount.Cents
		case Expense:
			sum.TotalExpense.Cents += t.Amount.Cents
			sum.Series[idx].Expense.Cents += t.Amount.Cents
			cat := t.Category
			if cat == "" {
				cat = "Uncategorized"
			}
			prev := sum.ByCategory[cat]
			sum.ByCategory[cat] = Money{Cents: prev.Cents + t.Amount.Cents}
		}
	}

	return sum
}

// CarryOver returns the signed net (income minus expense) of a prior
// period's transactions, for the carry-forward balance display option.
func CarryOver(transactions []Transaction) Money {
	var net int64
	for _, t := range transactions {
		switch t.Type {
		case Income:
			net += t.Amount.Cents
		case Expense:
			net -= t.Amount.Cents
		}
	}
	return Money{Cents: net}
}

// TopCategories returns category names sorted by descending expense amount.
func (s Summary) TopCategories() []string {
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.ByCategory[names[i]], s.ByCategory[names[j]]
		if a.Cents != b.Cents {
			return a.Cents > b.Cents
		}
		return names[i] < names[j]
	})
	return names
}

// SortTransactions orders by date ascending with CreatedAt as the
// same-date tiebreak.
func SortTransactions(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func makeSeries(start, end Date, mode ViewMode) []Bucket {
	if mode == ViewYearly {
		buckets := make([]Bucket, 12)
		for i := range buckets {
			buckets[i].Key = NewDate(start.Year(), i+1, 1).Format("2006-01")
		}
		return buckets
	}
	days := daysBetween(start, end) + 1
	if days < 1 {
		return nil
	}
	buckets := make([]Bucket, days)
	for i := range buckets {
		buckets[i].Key = start.AddDays(i).String()
	}
	return buckets
}

func bucketIndex(d, start Date, mode ViewMode) int {
	if mode == ViewYearly {
		return d.Month() - 1
	}
	return daysBetween(start, d)
}

func daysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}
