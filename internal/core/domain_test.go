package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"valid date", "2024-03-15", NewDate(2024, 3, 15), false},
		{"leap day", "2024-02-29", NewDate(2024, 2, 29), false},
		{"surrounding whitespace", " 2024-03-15 ", NewDate(2024, 3, 15), false},
		{"non-leap feb 29", "2023-02-29", Date{}, true},
		{"wrong format", "15/03/2024", Date{}, true},
		{"empty", "", Date{}, true},
		{"garbage", "not-a-date", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				return
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate_String_RoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 9)
	if got := d.String(); got != "2024-01-09" {
		t.Errorf("String() = %q, want %q", got, "2024-01-09")
	}
	if got := (Date{}).String(); got != "" {
		t.Errorf("zero date String() = %q, want empty", got)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Type:     Expense,
		Amount:   Money{Cents: 1200},
		Category: "Food",
		Date:     NewDate(2024, 3, 5),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -500 }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringSubscription_Validate(t *testing.T) {
	valid := RecurringSubscription{
		Name:      "Streaming",
		Amount:    Money{Cents: 999},
		Category:  "Entertainment",
		Frequency: Monthly,
		NextDue:   NewDate(2024, 4, 1),
		Active:    true,
	}

	tests := []struct {
		name    string
		mutate  func(*RecurringSubscription)
		wantErr error
	}{
		{"valid", func(*RecurringSubscription) {}, nil},
		{"empty name", func(s *RecurringSubscription) { s.Name = "  " }, ErrEmptyName},
		{"zero amount", func(s *RecurringSubscription) { s.Amount.Cents = 0 }, ErrInvalidAmount},
		{"bad frequency", func(s *RecurringSubscription) { s.Frequency = "daily" }, ErrInvalidFrequency},
		{"zero next due", func(s *RecurringSubscription) { s.NextDue = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_Validate(t *testing.T) {
	r := Record{Kind: KindGoal, Name: "Vacation", Amount: Money{Cents: 50000}}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	r.Kind = "wishlist"
	if err := r.Validate(); err == nil {
		t.Error("Validate() with unknown kind should fail")
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 3, 15, 23, 59, 12, 0, time.UTC)
	if got := DateOf(ts); got.String() != "2024-03-15" {
		t.Errorf("DateOf() = %s, want 2024-03-15", got)
	}
}
