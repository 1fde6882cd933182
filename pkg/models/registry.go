package models

import "time"

// TenantEntry maps a tenant code to where its sessions run.
type TenantEntry struct {
	Code     string
	Location string
	LastSeen time.Time
}

// Registry is the full tenant code → entry mapping.
type Registry map[string]TenantEntry

// Codes returns the registered codes.
func (r Registry) Codes() []string {
	codes := make([]string, 0, len(r))
	for c := range r {
		codes = append(codes, c)
	}
	return codes
}
