package report

import (
	"fmt"
	"strings"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// Markdown renders the spend dashboard README.
func Markdown(r *ledger.Report) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("# Claude Code Spend Dashboard")
	add("")
	add("**%s** | Last updated: %s", r.PeriodLabel(), r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	add("")

	p := r.Pricing
	if p.Model == models.BillingMetered {
		rt := p.Rates
		add("> **Billing:** metered (%s input, %s output, %s cache write, %s cache read per %s tokens)",
			USD(rt.Input), USD(rt.Output), USD(rt.CacheWrite), USD(rt.CacheRead), rateUnit(rt.Unit))
		add(">")
		add("> Each project is billed for its own token usage.")
	} else {
		add("> **Plan:** %s (%s/mo)", p.Subscription.Plan, USD(p.Subscription.MonthlyCost))
		add(">")
		add("> Subscription cost is allocated across projects by share of total token usage.")
	}
	add("")

	if len(r.Active()) == 0 {
		add("_No sessions recorded this month._")
		add("")
	} else {
		add("## Usage by Project")
		add("")
		add("| Project | Sessions | Input | Output | Cache | Share | Allocated |")
		add("|---------|----------|-------|--------|-------|-------|-----------|")
		for _, l := range r.Lines {
			if l.Idle {
				add("| %s | 0 | -- | -- | -- | -- | -- |", l.Code)
				continue
			}
			t := l.Totals
			share, allocated := "--", "--"
			if r.Allocated {
				share, allocated = Percent(l.Fraction), USD(l.Allocated)
			}
			add("| %s | %d | %s | %s | %s | %s | %s |",
				l.Code, t.Sessions, Tokens(t.InputTokens), Tokens(t.OutputTokens), Tokens(t.Cache()), share, allocated)
		}
		g := r.Totals
		add("| **TOTAL** | **%d** | **%s** | **%s** | **%s** | **100%%** | **%s** |",
			g.Sessions, Tokens(g.InputTokens), Tokens(g.OutputTokens), Tokens(g.Cache()), USD(r.UsageCost()))
		add("")
	}
	if r.Unallocated.IsPositive() {
		add("_%s unallocated: no token usage was recorded to share it against._", USD(r.Unallocated))
		add("")
	}

	if len(r.Expenses) > 0 {
		add("## Project Expenses")
		add("")
		for _, te := range r.Expenses {
			add("### %s", te.Code)
			add("")
			add("| Expense | Rate | Due This Month |")
			add("|---------|------|----------------|")
			for _, item := range te.Items {
				amount := "--"
				if item.Due() {
					amount = USD(item.AmountDue)
				}
				desc := item.Description
				if item.Note != "" {
					desc += " " + item.Note
				}
				add("| %s | %s | %s |", desc, item.RateLabel, amount)
			}
			add("| **Subtotal** | | **%s** |", USD(te.Subtotal))
			add("")
		}
	}

	add("## Monthly Total")
	add("")
	add("| Category | Amount |")
	add("|----------|--------|")
	add("| %s | %s |", poolLabel(p), USD(r.UsageCost()))
	if exp := r.ExpenseTotal(); exp.IsPositive() {
		add("| Project expenses | %s |", USD(exp))
	}
	add("| **Total** | **%s** |", USD(r.Total()))
	add("")

	add("---")
	add("")
	add("_Auto-generated by [claude-tracking](https://github.com/jrhoades1/claude-tracking). Do not edit manually._")
	add("")
	return strings.Join(lines, "\n")
}
