// Package aggregate folds session usage records into per-tenant totals.
package aggregate

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// ErrNegativeTokens is returned when a record carries a negative token count.
// This indicates upstream corruption and is never recovered.
var ErrNegativeTokens = errors.New("negative token count")

// Summary maps tenant code to its usage totals.
type Summary map[string]models.TenantTotals

// Summarize groups records by tenant. Blank codes fold into UNKNOWN.
func Summarize(records []models.SessionUsageRecord) (Summary, error) {
	s := Summary{}
	for _, r := range records {
		if err := s.add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SummarizeSeq folds a store scan. The first scan error aborts the fold.
func SummarizeSeq(seq iter.Seq2[models.SessionUsageRecord, error]) (Summary, error) {
	s := Summary{}
	for r, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("summarize: %w", err)
		}
		if err := s.add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s Summary) add(r models.SessionUsageRecord) error {
	if !r.Valid() {
		return fmt.Errorf("summarize %s session %q: %w", r.Tenant(), r.SessionID, ErrNegativeTokens)
	}
	t := s[r.Tenant()]
	t.Add(r)
	s[r.Tenant()] = t
	return nil
}

// Codes returns tenant codes by session count descending, then code.
func (s Summary) Codes() []string {
	codes := make([]string, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, b := s[codes[i]], s[codes[j]]
		if a.Sessions != b.Sessions {
			return a.Sessions > b.Sessions
		}
		return codes[i] < codes[j]
	})
	return codes
}

// Grand returns totals across every tenant.
func (s Summary) Grand() models.TenantTotals {
	var g models.TenantTotals
	for _, t := range s {
		g.Merge(t)
	}
	return g
}

// Only returns the subset of s for one tenant code. An empty code returns s.
func (s Summary) Only(code string) Summary {
	if code == "" {
		return s
	}
	out := Summary{}
	if t, ok := s[code]; ok {
		out[code] = t
	}
	return out
}
