// Package allocate distributes a shared cost pool across tenants.
package allocate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jrhoades1/claude-tracking/pkg/aggregate"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// ErrAllocationUnderflow is returned when the pool has no usage to be shared
// against. The returned Allocation still reports the pool as Unallocated.
var ErrAllocationUnderflow = errors.New("allocation underflow: zero total usage")

// Allocation is the per-tenant cost of one pool. Amounts are unrounded.
type Allocation struct {
	Shares      map[string]decimal.Decimal
	Fractions   map[string]float64
	Total       decimal.Decimal
	Unallocated decimal.Decimal
}

func newAllocation() Allocation {
	return Allocation{
		Shares:      map[string]decimal.Decimal{},
		Fractions:   map[string]float64{},
		Total:       decimal.Zero,
		Unallocated: decimal.Zero,
	}
}

// Share returns the tenant's amount, zero for unknown tenants.
func (a Allocation) Share(code string) decimal.Decimal {
	if d, ok := a.Shares[code]; ok {
		return d
	}
	return decimal.Zero
}

// Proportional splits cost by each tenant's share of total token volume
// across all four token classes.
func Proportional(cost decimal.Decimal, s aggregate.Summary) (Allocation, error) {
	a := newAllocation()
	a.Total = cost

	var sum int64
	for _, t := range s {
		sum += t.Volume()
	}
	if sum == 0 {
		for code := range s {
			a.Shares[code] = decimal.Zero
			a.Fractions[code] = 0
		}
		a.Unallocated = cost
		return a, ErrAllocationUnderflow
	}

	total := decimal.NewFromInt(sum)
	for code, t := range s {
		v := t.Volume()
		a.Shares[code] = cost.Mul(decimal.NewFromInt(v)).Div(total)
		a.Fractions[code] = float64(v) / float64(sum)
	}
	return a, nil
}

// Metered prices each tenant independently from the rate table.
func Metered(rates models.RateTable, s aggregate.Summary) Allocation {
	a := newAllocation()
	unit := rates.Unit
	if unit <= 0 {
		unit = 1_000_000
	}
	per := decimal.NewFromInt(unit)

	for code, t := range s {
		cost := decimal.Zero
		for _, c := range models.TokenClasses {
			cost = cost.Add(decimal.NewFromInt(t.Count(c)).Mul(rates.Rate(c)))
		}
		cost = cost.Div(per)
		a.Shares[code] = cost
		a.Total = a.Total.Add(cost)
	}
	for code, share := range a.Shares {
		if a.Total.IsPositive() {
			a.Fractions[code] = share.Div(a.Total).InexactFloat64()
		} else {
			a.Fractions[code] = 0
		}
	}
	return a
}

// Allocate applies the configured billing model.
func Allocate(p models.Pricing, s aggregate.Summary) (Allocation, error) {
	switch p.Model {
	case models.BillingSubscription, "":
		return Proportional(p.Subscription.MonthlyCost, s)
	case models.BillingMetered:
		return Metered(p.Rates, s), nil
	default:
		return newAllocation(), fmt.Errorf("allocate: unknown billing model %q", p.Model)
	}
}

// RoundShares rounds each share to places decimals using the largest
// remainder method, so the rounded shares sum exactly to the rounded total.
func RoundShares(shares map[string]decimal.Decimal, places int32) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(shares))
	if len(shares) == 0 {
		return out
	}

	type rem struct {
		code string
		frac decimal.Decimal
	}
	sum := decimal.Zero
	floored := decimal.Zero
	rems := make([]rem, 0, len(shares))
	for code, d := range shares {
		f := d.RoundFloor(places)
		out[code] = f
		sum = sum.Add(d)
		floored = floored.Add(f)
		rems = append(rems, rem{code: code, frac: d.Sub(f)})
	}
	sort.Slice(rems, func(i, j int) bool {
		if c := rems[i].frac.Cmp(rems[j].frac); c != 0 {
			return c > 0
		}
		return rems[i].code < rems[j].code
	})

	step := decimal.New(1, -places)
	missing := sum.Round(places).Sub(floored).Div(step).IntPart()
	for i := int64(0); i < missing && int(i) < len(rems); i++ {
		code := rems[i].code
		out[code] = out[code].Add(step)
	}
	return out
}
