package models

import "time"

// UnknownTenant is the bucket for records that carry no tenant code.
const UnknownTenant = "UNKNOWN"

// SessionUsageRecord is one completed assistant session attributed to a tenant.
type SessionUsageRecord struct {
	Date             time.Time `json:"date"`
	Time             string    `json:"time_utc"`
	TenantCode       string    `json:"project_code"`
	SessionID        string    `json:"session_id"`
	Location         string    `json:"cwd"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	CacheWriteTokens int64     `json:"cache_creation_tokens"`
	CacheReadTokens  int64     `json:"cache_read_tokens"`
}

// Valid reports whether every token count is non-negative.
func (r SessionUsageRecord) Valid() bool {
	return r.InputTokens >= 0 && r.OutputTokens >= 0 &&
		r.CacheWriteTokens >= 0 && r.CacheReadTokens >= 0
}

// Tenant returns the tenant code, normalised to UnknownTenant when blank.
func (r SessionUsageRecord) Tenant() string {
	if r.TenantCode == "" {
		return UnknownTenant
	}
	return r.TenantCode
}

// TenantTotals accumulates usage for one tenant.
type TenantTotals struct {
	Sessions         int64 `json:"sessions"`
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheWriteTokens int64 `json:"cache_creation_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens"`
}

// Add folds one record into the totals.
func (t *TenantTotals) Add(r SessionUsageRecord) {
	t.Sessions++
	t.InputTokens += r.InputTokens
	t.OutputTokens += r.OutputTokens
	t.CacheWriteTokens += r.CacheWriteTokens
	t.CacheReadTokens += r.CacheReadTokens
}

// Merge adds other into t.
func (t *TenantTotals) Merge(other TenantTotals) {
	t.Sessions += other.Sessions
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheWriteTokens += other.CacheWriteTokens
	t.CacheReadTokens += other.CacheReadTokens
}

// Billable is input plus output tokens.
func (t TenantTotals) Billable() int64 {
	return t.InputTokens + t.OutputTokens
}

// Cache is cache write plus cache read tokens.
func (t TenantTotals) Cache() int64 {
	return t.CacheWriteTokens + t.CacheReadTokens
}

// Volume is the sum of all four token classes. Proportional allocation uses it.
func (t TenantTotals) Volume() int64 {
	return t.Billable() + t.Cache()
}

// TokenClass names one of the four metered categories.
type TokenClass string

const (
	TokenInput      TokenClass = "input"
	TokenOutput     TokenClass = "output"
	TokenCacheWrite TokenClass = "cache_write"
	TokenCacheRead  TokenClass = "cache_read"
)

// TokenClasses lists every class in display order.
var TokenClasses = []TokenClass{TokenInput, TokenOutput, TokenCacheWrite, TokenCacheRead}

// Count returns the total for a single token class.
func (t TenantTotals) Count(c TokenClass) int64 {
	switch c {
	case TokenInput:
		return t.InputTokens
	case TokenOutput:
		return t.OutputTokens
	case TokenCacheWrite:
		return t.CacheWriteTokens
	case TokenCacheRead:
		return t.CacheReadTokens
	}
	return 0
}
