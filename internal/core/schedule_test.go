package core

import (
	"errors"
	"testing"
)

func TestNextAfter(t *testing.T) {
	tests := []struct {
		name string
		freq Frequency
		prev Date
		want Date
	}{
		{"weekly plain", Weekly, NewDate(2024, 1, 1), NewDate(2024, 1, 8)},
		{"weekly across month end", Weekly, NewDate(2024, 1, 29), NewDate(2024, 2, 5)},
		{"monthly same day", Monthly, NewDate(2024, 3, 15), NewDate(2024, 4, 15)},
		{"monthly jan 31 clips to leap feb", Monthly, NewDate(2024, 1, 31), NewDate(2024, 2, 29)},
		{"monthly jan 31 clips to feb 28", Monthly, NewDate(2023, 1, 31), NewDate(2023, 2, 28)},
		{"monthly mar 31 clips to apr 30", Monthly, NewDate(2024, 3, 31), NewDate(2024, 4, 30)},
		{"monthly dec wraps year", Monthly, NewDate(2024, 12, 10), NewDate(2025, 1, 10)},
		{"yearly same day", Yearly, NewDate(2024, 6, 15), NewDate(2025, 6, 15)},
		{"yearly leap day clips", Yearly, NewDate(2024, 2, 29), NewDate(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextAfter(tt.freq, tt.prev)
			if err != nil {
				t.Fatalf("NextAfter() error = %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextAfter(%s, %s) = %s, want %s", tt.freq, tt.prev, got, tt.want)
			}
		})
	}
}

func TestNextAfter_UnknownFrequency(t *testing.T) {
	_, err := NextAfter("daily", NewDate(2024, 1, 1))
	if !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("NextAfter() error = %v, want ErrInvalidFrequency", err)
	}
}

func TestNextAfter_AlwaysAdvances(t *testing.T) {
	// The engine relies on advancement strictly moving forward to stay
	// monotonic; probe a range of dates for each frequency.
	for _, freq := range []Frequency{Weekly, Monthly, Yearly} {
		d := NewDate(2023, 11, 30)
		for i := 0; i < 40; i++ {
			next, err := NextAfter(freq, d)
			if err != nil {
				t.Fatalf("NextAfter(%s, %s) error = %v", freq, d, err)
			}
			if !next.After(d.Time) {
				t.Fatalf("NextAfter(%s, %s) = %s did not advance", freq, d, next)
			}
			d = next
		}
	}
}
