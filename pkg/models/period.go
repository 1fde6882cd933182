package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in logs, registry and expense documents.
const DateLayout = "2006-01-02"

// Period is a calendar year-month, the unit of billing.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// CurrentPeriod returns the current UTC month.
func CurrentPeriod() Period {
	return PeriodOf(time.Now().UTC())
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return PeriodOf(t), nil
}

// Index is the month count since year zero; differences give elapsed months.
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

// Add returns the period n months later (n may be negative).
func (p Period) Add(n int) Period {
	idx := p.Index() + n
	return Period{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Contains reports whether the calendar day t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Before reports whether p is earlier than other.
func (p Period) Before(other Period) bool { return p.Index() < other.Index() }

// After reports whether p is later than other.
func (p Period) After(other Period) bool { return p.Index() > other.Index() }

// Start is the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label formats the period as "February 2026".
func (p Period) Label() string {
	return p.Start().Format("January 2006")
}

// ShortLabel formats the period as "Feb 2026".
func (p Period) ShortLabel() string {
	return p.Start().Format("Jan 2006")
}
