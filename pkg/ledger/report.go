package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/aggregate"
	"github.com/jrhoades1/claude-tracking/pkg/allocate"
	"github.com/jrhoades1/claude-tracking/pkg/expense"
	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/store"
)

// Query selects the records a report covers. A nil Period means all time.
type Query struct {
	Period *models.Period
	Tenant string
}

// Line is one tenant's row in a report.
type Line struct {
	Code   string
	Totals models.TenantTotals
	// Idle marks a registered tenant with no sessions in the period.
	Idle     bool
	Fraction float64
	// Allocated is the tenant's share of the usage cost, rounded to cents.
	Allocated decimal.Decimal
}

// TenantExpenses is one tenant's resolved expense schedule.
type TenantExpenses struct {
	Code     string
	Items    []models.ResolvedExpense
	Subtotal decimal.Decimal
}

// Report is the model rendered by the text report and the dashboard.
type Report struct {
	Query       Query
	GeneratedAt time.Time
	Pricing     models.Pricing
	Lines       []Line
	Totals      models.TenantTotals
	// Allocated is false for all-time subscription reports, which have no
	// single month's fee to share.
	Allocated   bool
	Pool        decimal.Decimal
	Unallocated decimal.Decimal
	Expenses    []TenantExpenses
}

// PeriodLabel returns "February 2026", or "All Time".
func (r *Report) PeriodLabel() string {
	if r.Query.Period == nil {
		return "All Time"
	}
	return r.Query.Period.Label()
}

// Active returns the lines with sessions.
func (r *Report) Active() []Line {
	var out []Line
	for _, l := range r.Lines {
		if !l.Idle {
			out = append(out, l)
		}
	}
	return out
}

// UsageCost is the share of the pool billed to the tenants shown.
func (r *Report) UsageCost() decimal.Decimal {
	if !r.Allocated {
		return decimal.Zero
	}
	if r.Query.Tenant == "" {
		return r.Pool.Round(2)
	}
	sum := decimal.Zero
	for _, l := range r.Lines {
		sum = sum.Add(l.Allocated)
	}
	return sum
}

// ExpenseTotal sums every tenant's expense subtotal.
func (r *Report) ExpenseTotal() decimal.Decimal {
	total := decimal.Zero
	for _, te := range r.Expenses {
		total = total.Add(te.Subtotal)
	}
	return total
}

// Total is the usage cost plus expenses.
func (r *Report) Total() decimal.Decimal {
	return r.UsageCost().Add(r.ExpenseTotal())
}

// BuildReport summarizes usage for q, allocates the pool across all tenants
// and resolves expenses for the period. A tenant filter narrows the lines
// shown but not the allocation, so a tenant's share is the same either way.
func (e *Engine) BuildReport(ctx context.Context, q Query) (*Report, error) {
	f := store.Filter{Period: q.Period}
	summary, err := aggregate.SummarizeSeq(e.store.Scan(ctx, f))
	if err != nil {
		return nil, err
	}
	reg := e.Tenants(ctx)

	rep := &Report{
		Query:       q,
		GeneratedAt: e.now(),
		Pricing:     e.pricing,
		Pool:        decimal.Zero,
		Unallocated: decimal.Zero,
	}

	var rounded map[string]decimal.Decimal
	var fractions map[string]float64
	if q.Period != nil || e.pricing.Model == models.BillingMetered {
		alloc, err := allocate.Allocate(e.pricing, summary)
		if errors.Is(err, allocate.ErrAllocationUnderflow) {
			log.WithField("period", rep.PeriodLabel()).Debug("no usage to allocate against")
		} else if err != nil {
			return nil, err
		}
		rep.Allocated = true
		rep.Pool = alloc.Total
		rep.Unallocated = alloc.Unallocated
		rounded = allocate.RoundShares(alloc.Shares, 2)
		fractions = alloc.Fractions
	}

	shown := summary.Only(q.Tenant)
	for _, code := range shown.Codes() {
		l := Line{Code: code, Totals: shown[code], Allocated: decimal.Zero}
		if rep.Allocated {
			l.Allocated = rounded[code]
			l.Fraction = fractions[code]
		}
		rep.Lines = append(rep.Lines, l)
	}
	rep.Totals = shown.Grand()

	var idle []string
	for code := range reg {
		if _, ok := summary[code]; ok {
			continue
		}
		if q.Tenant != "" && code != q.Tenant {
			continue
		}
		idle = append(idle, code)
	}
	sort.Strings(idle)
	for _, code := range idle {
		rep.Lines = append(rep.Lines, Line{Code: code, Idle: true, Allocated: decimal.Zero})
	}

	if q.Period != nil {
		rep.Expenses = e.resolveExpenses(reg, *q.Period, q.Tenant)
	}
	return rep, nil
}

// Expenses resolves one tenant's schedule for p. An empty code resolves
// every registered tenant.
func (e *Engine) Expenses(ctx context.Context, p models.Period, code string) []TenantExpenses {
	return e.resolveExpenses(e.Tenants(ctx), p, code)
}

func (e *Engine) resolveExpenses(reg models.Registry, p models.Period, only string) []TenantExpenses {
	codes := reg.Codes()
	sort.Strings(codes)

	var out []TenantExpenses
	for _, code := range codes {
		if only != "" && code != only {
			continue
		}
		fields := log.Fields{"tenant": code, "period": p.String()}
		items, err := expense.ForTenant(reg[code].Location, e.expenseFiles)
		if err != nil {
			// Unsupported or malformed documents mean no expenses for the tenant.
			log.WithFields(fields).WithError(err).Warn("expense document skipped")
			continue
		}
		if len(items) == 0 {
			continue
		}
		resolved, errs := expense.Resolve(items, p)
		for _, err := range errs {
			log.WithFields(fields).WithError(err).Warn("expense item skipped")
		}
		if len(resolved) == 0 {
			continue
		}
		out = append(out, TenantExpenses{
			Code:     code,
			Items:    resolved,
			Subtotal: expense.Subtotal(resolved),
		})
	}
	return out
}
