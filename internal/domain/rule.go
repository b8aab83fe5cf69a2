package domain

import "time"

// ScreeningRule is a tenant-defined CEL expression evaluated against a
// request profile during the controls phase. A triggered rule either
// deducts from the compliance score or blocks outright depending on
// its severity.
type ScreeningRule struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Expression  string    `json:"expression"`
	Severity    string    `json:"severity"` // caution | block
	Deduction   float64   `json:"deduction,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ScreeningHit is one rule that triggered for a profile.
type ScreeningHit struct {
	RuleID    string  `json:"ruleId"`
	Name      string  `json:"name"`
	Severity  string  `json:"severity"`
	Deduction float64 `json:"deduction"`
}
