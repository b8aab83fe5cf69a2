package domain

import "context"

// ProvenanceRecord is one governance-log entry tying a generated
// artifact back to who produced it and from what.
type ProvenanceRecord struct {
	ReportID string   `json:"reportId"`
	Artifact string   `json:"artifact"`
	Action   string   `json:"action"`
	Actor    string   `json:"actor"`
	Source   string   `json:"source"`
	Tags     []string `json:"tags,omitempty"`
}

// GovernanceLog is a write-only provenance sink. Writes are
// best-effort; callers swallow and log failures.
type GovernanceLog interface {
	Record(ctx context.Context, tenantID string, rec *ProvenanceRecord) error
}
