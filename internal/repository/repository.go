// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers. It also implements
// domain.GovernanceLog so provenance lands in the same store.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveRequestProfile stores a request profile with tenant isolation.
// Profiles are immutable inputs; a second save with the same ID
// replaces the stored copy.
func (r *SQLRepository) SaveRequestProfile(ctx context.Context, tenantID string, profile *domain.RequestProfile) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	query := `
		INSERT INTO request_profiles (id, tenant_id, country, region, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			country = excluded.country,
			region = excluded.region,
			payload = excluded.payload
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		profile.ID, tenantID, profile.Country, profile.Region,
		profile.CreatedAt, string(payload),
	)
	return err
}

// GetRequestProfile retrieves a request profile by ID with tenant isolation.
func (r *SQLRepository) GetRequestProfile(ctx context.Context, tenantID string, requestID string) (*domain.RequestProfile, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT payload FROM request_profiles
		WHERE tenant_id = ? AND id = ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, requestID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var profile domain.RequestProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse stored profile: %w", err)
	}
	return &profile, nil
}

// SaveDecisionPacket stores a decision packet with tenant isolation.
func (r *SQLRepository) SaveDecisionPacket(ctx context.Context, tenantID string, packet *domain.DecisionPacket) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(packet)
	if err != nil {
		return fmt.Errorf("failed to marshal packet: %w", err)
	}

	blocked := 0
	if packet.Blocked {
		blocked = 1
	}

	query := `
		INSERT INTO decision_packets (id, tenant_id, request_id, blocked, assembled_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			blocked = excluded.blocked,
			payload = excluded.payload
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		packet.ID, tenantID, packet.RequestID, blocked,
		packet.AssembledAt, string(payload),
	)
	return err
}

// GetDecisionPacket retrieves a decision packet by ID with tenant isolation.
func (r *SQLRepository) GetDecisionPacket(ctx context.Context, tenantID string, packetID string) (*domain.DecisionPacket, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT payload FROM decision_packets
		WHERE tenant_id = ? AND id = ?
	`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, packetID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var packet domain.DecisionPacket
	if err := json.Unmarshal([]byte(payload), &packet); err != nil {
		return nil, fmt.Errorf("failed to parse stored packet: %w", err)
	}
	return &packet, nil
}

// ListDecisionPackets retrieves packets assembled since the given time,
// newest first.
func (r *SQLRepository) ListDecisionPackets(ctx context.Context, tenantID string, since time.Time) ([]*domain.DecisionPacket, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT payload FROM decision_packets
		WHERE tenant_id = ? AND assembled_at >= ?
		ORDER BY assembled_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packets []*domain.DecisionPacket
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		var packet domain.DecisionPacket
		if err := json.Unmarshal([]byte(payload), &packet); err != nil {
			return nil, fmt.Errorf("failed to parse stored packet: %w", err)
		}
		packets = append(packets, &packet)
	}

	return packets, rows.Err()
}

// SaveScreeningRule stores a screening rule with tenant isolation.
func (r *SQLRepository) SaveScreeningRule(ctx context.Context, tenantID string, rule *domain.ScreeningRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()
	createdAt := rule.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO screening_rules (
			id, tenant_id, name, description, expression, severity, deduction, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			severity = excluded.severity,
			deduction = excluded.deduction,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Name, rule.Description,
		rule.Expression, rule.Severity, rule.Deduction, enabled,
		createdAt, now,
	)
	return err
}

// GetScreeningRule retrieves a screening rule by ID with tenant isolation.
func (r *SQLRepository) GetScreeningRule(ctx context.Context, tenantID string, ruleID string) (*domain.ScreeningRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, expression, severity, deduction, enabled, created_at, updated_at
		FROM screening_rules
		WHERE tenant_id = ? AND id = ?
	`

	var rule domain.ScreeningRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, ruleID).Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.Expression, &rule.Severity, &rule.Deduction, &enabled,
		&rule.CreatedAt, &rule.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	return &rule, nil
}

// ListScreeningRules retrieves all enabled rules for a tenant.
func (r *SQLRepository) ListScreeningRules(ctx context.Context, tenantID string) ([]*domain.ScreeningRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, expression, severity, deduction, enabled, created_at, updated_at
		FROM screening_rules
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.ScreeningRule
	for rows.Next() {
		var rule domain.ScreeningRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
			&rule.Expression, &rule.Severity, &rule.Deduction, &enabled,
			&rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// DeleteScreeningRule soft-deletes a rule by setting enabled = 0.
func (r *SQLRepository) DeleteScreeningRule(ctx context.Context, tenantID string, ruleID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE screening_rules
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveHistoricalPattern stores a precedent record with tenant isolation.
func (r *SQLRepository) SaveHistoricalPattern(ctx context.Context, tenantID string, pattern *domain.HistoricalPattern) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	lessons, _ := json.Marshal(pattern.Lessons)
	factors, _ := json.Marshal(pattern.KeyFactors)

	query := `
		INSERT INTO historical_patterns (
			id, tenant_id, era, region, industry, outcome, applicability, lessons, key_factors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			era = excluded.era,
			region = excluded.region,
			industry = excluded.industry,
			outcome = excluded.outcome,
			applicability = excluded.applicability,
			lessons = excluded.lessons,
			key_factors = excluded.key_factors
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		pattern.ID, tenantID, pattern.Era, pattern.Region,
		pattern.Industry, pattern.Outcome, pattern.Applicability,
		string(lessons), string(factors),
	)
	return err
}

// ListHistoricalPatterns retrieves all precedent records for a tenant.
func (r *SQLRepository) ListHistoricalPatterns(ctx context.Context, tenantID string) ([]*domain.HistoricalPattern, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, era, region, industry, outcome, applicability, lessons, key_factors
		FROM historical_patterns
		WHERE tenant_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*domain.HistoricalPattern
	for rows.Next() {
		var pattern domain.HistoricalPattern
		var lessons, factors string

		if err := rows.Scan(
			&pattern.ID, &pattern.Era, &pattern.Region, &pattern.Industry,
			&pattern.Outcome, &pattern.Applicability, &lessons, &factors,
		); err != nil {
			return nil, err
		}

		json.Unmarshal([]byte(lessons), &pattern.Lessons)
		json.Unmarshal([]byte(factors), &pattern.KeyFactors)
		patterns = append(patterns, &pattern)
	}

	return patterns, rows.Err()
}

// SaveOutcomeSnapshot stores a recorded decision outcome.
func (r *SQLRepository) SaveOutcomeSnapshot(ctx context.Context, tenantID string, snapshot *domain.OutcomeSnapshot) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO outcome_snapshots (decision_id, tenant_id, result, delta, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(decision_id, tenant_id) DO UPDATE SET
			result = excluded.result,
			delta = excluded.delta,
			recorded_at = excluded.recorded_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		snapshot.DecisionID, tenantID, snapshot.Result, snapshot.Delta,
		time.Now().UTC(),
	)
	return err
}

// ListOutcomeSnapshots retrieves all recorded outcomes for a tenant.
func (r *SQLRepository) ListOutcomeSnapshots(ctx context.Context, tenantID string) ([]*domain.OutcomeSnapshot, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT decision_id, result, delta
		FROM outcome_snapshots
		WHERE tenant_id = ?
		ORDER BY recorded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.OutcomeSnapshot
	for rows.Next() {
		var snapshot domain.OutcomeSnapshot
		if err := rows.Scan(&snapshot.DecisionID, &snapshot.Result, &snapshot.Delta); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, rows.Err()
}

// Record appends a provenance record, satisfying domain.GovernanceLog.
func (r *SQLRepository) Record(ctx context.Context, tenantID string, rec *domain.ProvenanceRecord) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	tags, _ := json.Marshal(rec.Tags)

	query := `
		INSERT INTO provenance_records (
			id, tenant_id, report_id, artifact, action, actor, source, tags, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		uuid.NewString(), tenantID, rec.ReportID, rec.Artifact,
		rec.Action, rec.Actor, rec.Source, string(tags),
		time.Now().UTC(),
	)
	return err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
