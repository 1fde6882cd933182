package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// Pricing defaults used when the document is absent or malformed.
const (
	DefaultPlan        = "Claude Pro"
	DefaultMonthlyCost = 100.0
	DefaultRateUnit    = int64(1_000_000)
)

// PricingConfig is the on-disk pricing document. JSON documents decode as
// YAML, so pricing.json and pricing.yaml share one decoder.
type PricingConfig struct {
	BillingModel string             `yaml:"billing_model"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Metered      MeteredConfig      `yaml:"metered"`
}

// SubscriptionConfig is a flat monthly plan.
type SubscriptionConfig struct {
	Plan        string   `yaml:"plan"`
	MonthlyCost *float64 `yaml:"monthly_cost"`
}

// MeteredConfig is a per-token rate table, in currency per Unit tokens.
type MeteredConfig struct {
	Unit       int64    `yaml:"unit"`
	Input      *float64 `yaml:"input"`
	Output     *float64 `yaml:"output"`
	CacheWrite *float64 `yaml:"cache_write"`
	CacheRead  *float64 `yaml:"cache_read"`
}

// DefaultPricing is the subscription plan applied when nothing is configured.
func DefaultPricing() models.Pricing {
	return models.Pricing{
		Model: models.BillingSubscription,
		Subscription: models.Subscription{
			Plan:        DefaultPlan,
			MonthlyCost: decimal.NewFromFloat(DefaultMonthlyCost),
		},
		Rates: defaultRates(),
	}
}

func defaultRates() models.RateTable {
	return models.RateTable{
		Unit:       DefaultRateUnit,
		Input:      decimal.RequireFromString("3.00"),
		Output:     decimal.RequireFromString("15.00"),
		CacheWrite: decimal.RequireFromString("3.75"),
		CacheRead:  decimal.RequireFromString("0.30"),
	}
}

// Resolve converts the document into models.Pricing, filling gaps with defaults.
func (p PricingConfig) Resolve() (models.Pricing, error) {
	out := DefaultPricing()
	switch models.BillingModel(p.BillingModel) {
	case "", models.BillingSubscription:
		out.Model = models.BillingSubscription
	case models.BillingMetered:
		out.Model = models.BillingMetered
	default:
		return DefaultPricing(), fmt.Errorf("pricing: %w: unknown billing_model %q", ErrMalformedInput, p.BillingModel)
	}

	if p.Subscription.Plan != "" {
		out.Subscription.Plan = p.Subscription.Plan
	}
	if v := p.Subscription.MonthlyCost; v != nil {
		if *v < 0 {
			return DefaultPricing(), fmt.Errorf("pricing: %w: negative monthly_cost", ErrMalformedInput)
		}
		out.Subscription.MonthlyCost = decimal.NewFromFloat(*v)
	}

	if p.Metered.Unit < 0 {
		return DefaultPricing(), fmt.Errorf("pricing: %w: negative unit", ErrMalformedInput)
	}
	if p.Metered.Unit > 0 {
		out.Rates.Unit = p.Metered.Unit
	}
	for _, r := range []struct {
		src *float64
		dst *decimal.Decimal
	}{
		{p.Metered.Input, &out.Rates.Input},
		{p.Metered.Output, &out.Rates.Output},
		{p.Metered.CacheWrite, &out.Rates.CacheWrite},
		{p.Metered.CacheRead, &out.Rates.CacheRead},
	} {
		if r.src == nil {
			continue
		}
		if *r.src < 0 {
			return DefaultPricing(), fmt.Errorf("pricing: %w: negative rate", ErrMalformedInput)
		}
		*r.dst = decimal.NewFromFloat(*r.src)
	}
	return out, nil
}

// LoadPricing reads a pricing document. A missing file yields the defaults
// and no error; a malformed one yields the defaults and an ErrMalformedInput.
func LoadPricing(path string) (models.Pricing, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPricing(), nil
	}
	if err != nil {
		return DefaultPricing(), fmt.Errorf("read pricing: %w", err)
	}
	var doc PricingConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DefaultPricing(), fmt.Errorf("parse pricing: %w: %w", ErrMalformedInput, err)
	}
	return doc.Resolve()
}

// ResolvePricing prefers the pricing document, then the inline pricing
// section, then the defaults.
func (c *Config) ResolvePricing() (models.Pricing, error) {
	if _, err := os.Stat(c.PricingPath); err == nil || c.Pricing == nil {
		return LoadPricing(c.PricingPath)
	}
	return c.Pricing.Resolve()
}
