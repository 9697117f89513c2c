package shared

import (
	"errors"
	"time"
)

// ErrInvalidPeriod indicates a malformed month, year or range.
var ErrInvalidPeriod = errors.New("period invalid")

// Period is a half-open [From, To) time window.
type Period struct {
	From time.Time
	To   time.Time
}

// DayPeriod covers the calendar day containing t.
func DayPeriod(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Period{From: start, To: start.AddDate(0, 0, 1)}
}

// MonthPeriod covers one calendar month.
func MonthPeriod(year, month int, loc *time.Location) (Period, error) {
	if month < 1 || month > 12 || year < 1 {
		return Period{}, ErrInvalidPeriod
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Period{From: start, To: start.AddDate(0, 1, 0)}, nil
}

// YearPeriod covers one calendar year.
func YearPeriod(year int, loc *time.Location) (Period, error) {
	if year < 1 {
		return Period{}, ErrInvalidPeriod
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return Period{From: start, To: start.AddDate(1, 0, 0)}, nil
}

// RangePeriod covers the days from..to inclusive.
func RangePeriod(from, to time.Time) (Period, error) {
	if to.Before(from) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{From: DayPeriod(from).From, To: DayPeriod(to).To}, nil
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}
