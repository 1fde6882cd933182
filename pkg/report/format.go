// Package report renders ledger reports as plain text and Markdown.
package report

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// Tokens formats a token count with thousands separators.
func Tokens(n int64) string {
	return humanize.Comma(n)
}

// USD formats an amount as dollars and cents. This is the only place
// amounts are rounded.
func USD(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	cents := d.Sub(whole).Abs().StringFixed(2)[1:]
	sign := ""
	if d.IsNegative() && whole.IsZero() {
		sign = "-"
	}
	return "$" + sign + humanize.Comma(whole.IntPart()) + cents
}

// Percent formats a fraction as a whole percentage.
func Percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func shortLabel(r *ledger.Report) string {
	if r.Query.Period == nil {
		return "All Time"
	}
	return r.Query.Period.ShortLabel()
}

func rateUnit(unit int64) string {
	if unit == 1_000_000 {
		return "1M"
	}
	return humanize.Comma(unit)
}

// poolLabel names the usage cost line, e.g. "Claude Pro subscription".
func poolLabel(p models.Pricing) string {
	if p.Model == models.BillingMetered {
		return "Metered usage"
	}
	return p.Subscription.Plan + " subscription"
}
