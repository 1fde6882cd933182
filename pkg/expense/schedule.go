// Package expense resolves declared expense schedules into amounts due for
// a billing period.
package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// ErrInvalidExpenseConfig marks an item missing or misdeclaring a field
// required by its variant. The item is excluded; other items still resolve.
var ErrInvalidExpenseConfig = errors.New("invalid expense config")

// Resolve evaluates every item against p.
//
// One-time items appear only in the period containing their date. Recurring
// items appear from their start month through their end month inclusive; in
// months they are not due they are included with a zero amount and a note
// naming the next due month. Recurrence is computed on calendar months only,
// so the day of the start date never shifts a due month.
func Resolve(items []models.ExpenseItem, p models.Period) ([]models.ResolvedExpense, []error) {
	var out []models.ResolvedExpense
	var errs []error
	for i, item := range items {
		r, ok, err := resolveOne(item, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("expense %d (%s): %w", i, item.Description, err))
			continue
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, errs
}

func resolveOne(item models.ExpenseItem, p models.Period) (models.ResolvedExpense, bool, error) {
	if item.Amount.IsNegative() {
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: negative amount", ErrInvalidExpenseConfig)
	}
	switch item.Type {
	case models.ExpenseOneTime:
		return resolveOneTime(item, p)
	case models.ExpenseRecurring:
		return resolveRecurring(item, p)
	default:
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: unknown type %q", ErrInvalidExpenseConfig, item.Type)
	}
}

func resolveOneTime(item models.ExpenseItem, p models.Period) (models.ResolvedExpense, bool, error) {
	if item.Date == "" {
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: one_time item needs date", ErrInvalidExpenseConfig)
	}
	on, err := parseMonth(item.Date)
	if err != nil {
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: date: %w", ErrInvalidExpenseConfig, err)
	}
	if on != p {
		return models.ResolvedExpense{}, false, nil
	}
	return models.ResolvedExpense{
		Description: item.Description,
		RateLabel:   "one-time",
		AmountDue:   item.Amount,
	}, true, nil
}

func resolveRecurring(item models.ExpenseItem, p models.Period) (models.ResolvedExpense, bool, error) {
	switch item.Frequency {
	case models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyYearly:
	default:
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: unknown frequency %q", ErrInvalidExpenseConfig, item.Frequency)
	}

	var start models.Period
	hasStart := item.StartDate != ""
	if hasStart {
		s, err := parseMonth(item.StartDate)
		if err != nil {
			return models.ResolvedExpense{}, false, fmt.Errorf("%w: start_date: %w", ErrInvalidExpenseConfig, err)
		}
		start = s
	} else if item.Frequency != models.FrequencyYearly {
		return models.ResolvedExpense{}, false, fmt.Errorf("%w: %s item needs start_date", ErrInvalidExpenseConfig, item.Frequency)
	}

	if item.EndDate != "" {
		end, err := parseMonth(item.EndDate)
		if err != nil {
			return models.ResolvedExpense{}, false, fmt.Errorf("%w: end_date: %w", ErrInvalidExpenseConfig, err)
		}
		if p.After(end) {
			return models.ResolvedExpense{}, false, nil
		}
	}
	if hasStart && p.Before(start) {
		return models.ResolvedExpense{}, false, nil
	}

	r := models.ResolvedExpense{
		Description: item.Description,
		AmountDue:   decimal.Zero,
	}
	elapsed := p.Index() - start.Index()

	switch item.Frequency {
	case models.FrequencyMonthly:
		r.RateLabel = rateLabel(item.Amount, "mo")
		r.AmountDue = item.Amount
	case models.FrequencyQuarterly:
		r.RateLabel = rateLabel(item.Amount, "qtr")
		if elapsed%3 == 0 {
			r.AmountDue = item.Amount
		} else {
			r.Note = "next: " + shortMonth(p.Add(3-elapsed%3).Month)
		}
	case models.FrequencyYearly:
		r.RateLabel = rateLabel(item.Amount, "yr")
		// Without a start date the queried month is the anniversary.
		if !hasStart || p.Month == start.Month {
			r.AmountDue = item.Amount
		} else {
			r.Note = "renews " + shortMonth(start.Month)
		}
	}
	return r, true, nil
}

// Subtotal sums the amounts due.
func Subtotal(resolved []models.ResolvedExpense) decimal.Decimal {
	total := decimal.Zero
	for _, r := range resolved {
		total = total.Add(r.AmountDue)
	}
	return total
}

// parseMonth accepts "YYYY-MM-DD" or "YYYY-MM" and discards the day.
func parseMonth(s string) (models.Period, error) {
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return models.PeriodOf(t), nil
	}
	return models.ParsePeriod(s)
}

func rateLabel(amount decimal.Decimal, unit string) string {
	return "$" + amount.StringFixed(2) + "/" + unit
}

func shortMonth(m time.Month) string {
	return m.String()[:3]
}
