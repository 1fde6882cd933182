package report

import (
	"fmt"
	"strings"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
)

var sep = strings.Repeat("-", 70)

// Text renders an invoice-ready plain-text summary.
func Text(r *ledger.Report) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "Claude Usage Report  |  %s\n", shortLabel(r))
	if r.Query.Tenant != "" {
		fmt.Fprintf(&b, "Project: %s\n", r.Query.Tenant)
	}
	b.WriteString(sep + "\n")

	active := r.Active()
	if len(active) == 0 {
		b.WriteString("  No sessions recorded for this period.\n")
	}
	for _, l := range active {
		t := l.Totals
		fmt.Fprintf(&b, "  %-24s  %3d %-8s  |  %s input  |  %s output  |  %s cache\n",
			l.Code, t.Sessions, plural(t.Sessions, "session"),
			Tokens(t.InputTokens), Tokens(t.OutputTokens), Tokens(t.Cache()))
		fmt.Fprintf(&b, "  %-24s  Total billable tokens: %s\n", "", Tokens(t.Billable()))
		if r.Allocated {
			fmt.Fprintf(&b, "  %-24s  Allocated: %s (%s)\n", "", USD(l.Allocated), Percent(l.Fraction))
		}
		b.WriteString("\n")
	}

	g := r.Totals
	b.WriteString(sep + "\n")
	if len(active) > 0 {
		fmt.Fprintf(&b, "  %-24s  %3d %-8s  |  %s input  |  %s output\n",
			"TOTAL", g.Sessions, plural(g.Sessions, "session"), Tokens(g.InputTokens), Tokens(g.OutputTokens))
		b.WriteString(sep + "\n")
	}

	if r.Allocated {
		fmt.Fprintf(&b, "  %-40s %14s\n", poolLabel(r.Pricing), USD(r.UsageCost()))
		if r.Unallocated.IsPositive() {
			fmt.Fprintf(&b, "  %-40s %14s\n", "  of which unallocated", USD(r.Unallocated))
		}
	}
	for _, te := range r.Expenses {
		fmt.Fprintf(&b, "  %-40s %14s\n", te.Code+" expenses", USD(te.Subtotal))
	}
	if r.Allocated || len(r.Expenses) > 0 {
		fmt.Fprintf(&b, "  %-40s %14s\n", "Total due", USD(r.Total()))
		b.WriteString(sep + "\n")
	}

	b.WriteString("\n")
	b.WriteString("Notes:\n")
	b.WriteString("  * Cache tokens (creation + read) are shown for reference.\n")
	b.WriteString("    Allocation shares count all four token classes.\n")
	b.WriteString("  * For API-billed projects: cross-reference the provider console\n")
	b.WriteString("    filtered by project API key for exact USD costs.\n")
	b.WriteString("\n")
	return b.String()
}

// Expenses renders one block per tenant with its resolved schedule.
func Expenses(period string, tenants []ledger.TenantExpenses) string {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "Project Expenses  |  %s\n", period)
	b.WriteString(sep + "\n")
	if len(tenants) == 0 {
		b.WriteString("  No expenses due for this period.\n")
		b.WriteString(sep + "\n")
		return b.String()
	}
	for _, te := range tenants {
		fmt.Fprintf(&b, "  %s\n", te.Code)
		for _, item := range te.Items {
			desc := item.Description
			if item.Note != "" {
				desc += " (" + item.Note + ")"
			}
			amount := "--"
			if item.Due() {
				amount = USD(item.AmountDue)
			}
			fmt.Fprintf(&b, "    %-36s %-14s %12s\n", desc, item.RateLabel, amount)
		}
		fmt.Fprintf(&b, "    %-36s %-14s %12s\n", "Subtotal", "", USD(te.Subtotal))
		b.WriteString("\n")
	}
	b.WriteString(sep + "\n")
	return b.String()
}
