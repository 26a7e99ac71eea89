package core

import "time"

// NextAfter returns the due date one frequency unit after prev.
//
// Monthly and yearly advancement use calendar arithmetic with clipping:
// when the source day does not exist in the target month, the result is
// the last day of that month (Jan 31 + 1 month = Feb 29 in a leap year,
// Feb 28 otherwise). The date is never rolled into the following month.
func NextAfter(freq Frequency, prev Date) (Date, error) {
	switch freq {
	case Weekly:
		return prev.AddDays(7), nil
	case Monthly:
		return addMonthsClipped(prev, 1), nil
	case Yearly:
		return addYearsClipped(prev, 1), nil
	default:
		return Date{}, ErrInvalidFrequency
	}
}

func addMonthsClipped(d Date, months int) Date {
	// Anchor on the 1st so AddDate cannot normalize past the target month.
	first := time.Date(d.Year(), time.Month(d.Month()), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := d.Day()
	if last := lastDayOfMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

func addYearsClipped(d Date, years int) Date {
	year := d.Year() + years
	day := d.Day()
	if last := lastDayOfMonth(year, time.Month(d.Month())); day > last {
		day = last
	}
	return NewDate(year, d.Month(), day)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
