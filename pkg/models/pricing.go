package models

import "github.com/shopspring/decimal"

// BillingModel selects how the shared cost pool is computed.
type BillingModel string

const (
	BillingSubscription BillingModel = "subscription"
	BillingMetered      BillingModel = "metered"
)

// Pricing is the resolved pricing configuration.
type Pricing struct {
	Model        BillingModel
	Subscription Subscription
	Rates        RateTable
}

// Subscription is a flat monthly fee shared across tenants.
type Subscription struct {
	Plan        string
	MonthlyCost decimal.Decimal
}

// RateTable holds a currency rate per Unit tokens for each token class.
type RateTable struct {
	Unit       int64
	Input      decimal.Decimal
	Output     decimal.Decimal
	CacheWrite decimal.Decimal
	CacheRead  decimal.Decimal
}

// Rate returns the configured rate for a token class.
func (r RateTable) Rate(c TokenClass) decimal.Decimal {
	switch c {
	case TokenInput:
		return r.Input
	case TokenOutput:
		return r.Output
	case TokenCacheWrite:
		return r.CacheWrite
	case TokenCacheRead:
		return r.CacheRead
	}
	return decimal.Zero
}
