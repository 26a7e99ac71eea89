package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	TransactionType string

	Frequency string

	// Date is a calendar day with no time component, always UTC midnight.
	// Its canonical text form is YYYY-MM-DD, which compares
	// lexicographically the same as chronologically.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single financial event owned by one user.
	Transaction struct {
		ID        string
		Type      TransactionType
		Amount    Money
		Category  string
		Account   string // display name of the owning account
		AccountID string
		Note      string
		Date      Date
		CreatedAt time.Time // store-assigned, tiebreak for same-date ordering
		IsAuto    bool      // true when materialized from a subscription
	}

	// RecurringSubscription is a template for periodic expense generation.
	RecurringSubscription struct {
		ID        string
		Name      string
		Amount    Money
		Category  string
		Frequency Frequency
		NextDue   Date
		Active    bool
	}

	Account struct {
		ID      string
		Name    string
		Kind    string // cash, bank, card, ...
		Balance Money
	}

	Category struct {
		ID   string
		Name string
		Type TransactionType
	}

	RecordKind string

	// Record is a simple owned name/amount/metadata tuple. Budgets, goals
	// and debts all share this shape and live in one store collection.
	Record struct {
		ID       string
		Kind     RecordKind
		Name     string
		Amount   Money // budget limit, goal target, debt total
		Progress Money // amount saved or paid so far
		Due      Date  // optional deadline
		Notes    string
	}
)

const (
	KindBudget RecordKind = "budget"
	KindGoal   RecordKind = "goal"
	KindDebt   RecordKind = "debt"
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyName        = errors.New("empty name")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// String returns the canonical YYYY-MM-DD form, empty for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tt TransactionType) Validate() error {
	switch tt {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (s RecurringSubscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if err := s.Frequency.Validate(); err != nil {
		return err
	}
	if err := s.NextDue.Validate(); err != nil {
		return err
	}
	return nil
}

func (k RecordKind) Validate() error {
	switch k {
	case KindBudget, KindGoal, KindDebt:
		return nil
	default:
		return errors.New("invalid record kind")
	}
}

func (r Record) Validate() error {
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Name)) == 0 {
		return ErrEmptyName
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if r.Progress.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}
