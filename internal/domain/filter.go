package domain

import "time"

// EntryFilter selects ledger entries. Empty fields do not filter.
type EntryFilter struct {
	From     time.Time
	To       time.Time
	TenantID string
	EntityID string
	Method   string
	Limit    int
	Offset   int
}

// ObligationFilter selects obligations. Empty fields do not filter.
type ObligationFilter struct {
	TenantID string
	EntityID string
	Kind     ObligationKind
	// IncludeUnassigned also returns obligations that carry no entity so the
	// matcher can attribute them.
	IncludeUnassigned bool
	OpenOnly          bool
	Limit             int
	Offset            int
}
