package allocate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/aggregate"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func twoTenants() aggregate.Summary {
	return aggregate.Summary{
		"A": {Sessions: 2, InputTokens: 100, OutputTokens: 50},
		"B": {Sessions: 1, InputTokens: 300, OutputTokens: 100},
	}
}

func TestProportionalScenario(t *testing.T) {
	a, err := Proportional(usd("100"), twoTenants())
	require.NoError(t, err)

	rounded := RoundShares(a.Shares, 2)
	assert.Equal(t, "27.27", rounded["A"].StringFixed(2))
	assert.Equal(t, "72.73", rounded["B"].StringFixed(2))
	assert.True(t, rounded["A"].Add(rounded["B"]).Equal(usd("100")))
	assert.InDelta(t, 150.0/550.0, a.Fractions["A"], 1e-12)
	assert.True(t, a.Unallocated.IsZero())
}

func TestProportionalSumsToCost(t *testing.T) {
	s := aggregate.Summary{
		"A": {InputTokens: 1, CacheReadTokens: 2},
		"B": {OutputTokens: 1},
		"C": {CacheWriteTokens: 1},
		"D": {},
	}
	a, err := Proportional(usd("100"), s)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, d := range a.Shares {
		sum = sum.Add(d)
	}
	assert.True(t, sum.Sub(usd("100")).Abs().LessThan(usd("0.04")))
	assert.True(t, a.Share("D").IsZero())

	rounded := RoundShares(a.Shares, 2)
	total := decimal.Zero
	for _, d := range rounded {
		total = total.Add(d)
	}
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestProportionalUnderflow(t *testing.T) {
	s := aggregate.Summary{"A": {Sessions: 3}, "B": {Sessions: 1}}
	a, err := Proportional(usd("100"), s)
	assert.True(t, errors.Is(err, ErrAllocationUnderflow))
	assert.True(t, a.Unallocated.Equal(usd("100")))
	for code, d := range a.Shares {
		assert.True(t, d.IsZero(), "%s share should be zero", code)
	}

	empty, err := Proportional(usd("100"), aggregate.Summary{})
	assert.True(t, errors.Is(err, ErrAllocationUnderflow))
	assert.True(t, empty.Unallocated.Equal(usd("100")))
}

func TestMetered(t *testing.T) {
	rates := models.RateTable{
		Unit:       1_000_000,
		Input:      usd("3"),
		Output:     usd("15"),
		CacheWrite: usd("3.75"),
		CacheRead:  usd("0.30"),
	}
	s := aggregate.Summary{
		"A": {InputTokens: 1_000_000, OutputTokens: 100_000},
		"B": {CacheWriteTokens: 200_000, CacheReadTokens: 1_000_000},
	}
	a := Metered(rates, s)
	assert.True(t, a.Share("A").Equal(usd("4.5")), a.Share("A").String())
	assert.True(t, a.Share("B").Equal(usd("1.05")), a.Share("B").String())
	assert.True(t, a.Total.Equal(usd("5.55")))
	assert.True(t, a.Unallocated.IsZero())

	// Tenants are priced independently.
	only := Metered(rates, aggregate.Summary{"A": s["A"]})
	assert.True(t, only.Share("A").Equal(a.Share("A")))
}

func TestAllocateDispatch(t *testing.T) {
	p := models.Pricing{
		Model:        models.BillingSubscription,
		Subscription: models.Subscription{MonthlyCost: usd("100")},
		Rates:        models.RateTable{Unit: 1000, Input: usd("1")},
	}
	sub, err := Allocate(p, twoTenants())
	require.NoError(t, err)
	assert.True(t, sub.Total.Equal(usd("100")))

	p.Model = models.BillingMetered
	met, err := Allocate(p, twoTenants())
	require.NoError(t, err)
	assert.True(t, met.Share("B").Equal(usd("0.3")))

	p.Model = "barter"
	_, err = Allocate(p, twoTenants())
	assert.Error(t, err)
}

func TestRoundSharesTies(t *testing.T) {
	thirds := map[string]decimal.Decimal{}
	third := usd("100").Div(usd("3"))
	for _, c := range []string{"C", "A", "B"} {
		thirds[c] = third
	}
	r := RoundShares(thirds, 2)
	assert.Equal(t, "33.34", r["A"].StringFixed(2))
	assert.Equal(t, "33.33", r["B"].StringFixed(2))
	assert.Equal(t, "33.33", r["C"].StringFixed(2))
	assert.Empty(t, RoundShares(nil, 2))
}
