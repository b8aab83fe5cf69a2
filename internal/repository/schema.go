package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaRequestProfiles = `
CREATE TABLE IF NOT EXISTS request_profiles (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    country TEXT,
    region TEXT,
    created_at TIMESTAMP NOT NULL,
    payload TEXT NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_profiles_tenant ON request_profiles(tenant_id);
CREATE INDEX IF NOT EXISTS idx_profiles_country ON request_profiles(tenant_id, country);
`

const schemaDecisionPackets = `
CREATE TABLE IF NOT EXISTS decision_packets (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    request_id TEXT NOT NULL,
    blocked INTEGER NOT NULL DEFAULT 0,
    assembled_at TIMESTAMP NOT NULL,
    payload TEXT NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_packets_tenant ON decision_packets(tenant_id);
CREATE INDEX IF NOT EXISTS idx_packets_request ON decision_packets(tenant_id, request_id);
CREATE INDEX IF NOT EXISTS idx_packets_assembled ON decision_packets(tenant_id, assembled_at);
`

const schemaScreeningRules = `
CREATE TABLE IF NOT EXISTS screening_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    severity TEXT NOT NULL,
    deduction REAL NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_rules_tenant ON screening_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_rules_enabled ON screening_rules(tenant_id, enabled);
`

const schemaHistoricalPatterns = `
CREATE TABLE IF NOT EXISTS historical_patterns (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    era TEXT NOT NULL,
    region TEXT NOT NULL,
    industry TEXT NOT NULL,
    outcome TEXT NOT NULL,
    applicability REAL NOT NULL DEFAULT 0,
    lessons TEXT NOT NULL,
    key_factors TEXT NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_patterns_tenant ON historical_patterns(tenant_id);
CREATE INDEX IF NOT EXISTS idx_patterns_region ON historical_patterns(tenant_id, region);
`

const schemaOutcomeSnapshots = `
CREATE TABLE IF NOT EXISTS outcome_snapshots (
    decision_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    result TEXT NOT NULL,
    delta REAL NOT NULL DEFAULT 0,
    recorded_at TIMESTAMP NOT NULL,
    PRIMARY KEY (decision_id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_tenant ON outcome_snapshots(tenant_id);
`

const schemaProvenance = `
CREATE TABLE IF NOT EXISTS provenance_records (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    report_id TEXT NOT NULL,
    artifact TEXT NOT NULL,
    action TEXT NOT NULL,
    actor TEXT NOT NULL,
    source TEXT,
    tags TEXT,
    recorded_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_provenance_tenant ON provenance_records(tenant_id);
CREATE INDEX IF NOT EXISTS idx_provenance_report ON provenance_records(tenant_id, report_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaRequestProfiles,
		schemaDecisionPackets,
		schemaScreeningRules,
		schemaHistoricalPatterns,
		schemaOutcomeSnapshots,
		schemaProvenance,
	}
}
