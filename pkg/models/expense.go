package models

import "github.com/shopspring/decimal"

// ExpenseType selects the ExpenseItem variant.
type ExpenseType string

const (
	ExpenseOneTime   ExpenseType = "one_time"
	ExpenseRecurring ExpenseType = "recurring"
)

// Frequency is the recurrence of a recurring expense.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ExpenseItem is a declared charge for a tenant. Dates are kept as declared
// ("YYYY-MM-DD" or "YYYY-MM") and validated when the schedule is resolved.
type ExpenseItem struct {
	Type        ExpenseType
	Description string
	Amount      decimal.Decimal

	// Date applies to one-time items.
	Date string

	// Frequency, StartDate and EndDate apply to recurring items.
	Frequency Frequency
	StartDate string
	EndDate   string
}

// ResolvedExpense is an ExpenseItem evaluated against one period.
type ResolvedExpense struct {
	Description string          `json:"description"`
	RateLabel   string          `json:"rate_label"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Note        string          `json:"note,omitempty"`
}

// Due reports whether anything is owed this period.
func (r ResolvedExpense) Due() bool {
	return r.AmountDue.IsPositive()
}
