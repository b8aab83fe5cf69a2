package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Request profile operations
	SaveRequestProfile(ctx context.Context, tenantID string, profile *RequestProfile) error
	GetRequestProfile(ctx context.Context, tenantID string, requestID string) (*RequestProfile, error)

	// Decision packet operations
	SaveDecisionPacket(ctx context.Context, tenantID string, packet *DecisionPacket) error
	GetDecisionPacket(ctx context.Context, tenantID string, packetID string) (*DecisionPacket, error)
	ListDecisionPackets(ctx context.Context, tenantID string, since time.Time) ([]*DecisionPacket, error)

	// Screening rule operations
	SaveScreeningRule(ctx context.Context, tenantID string, rule *ScreeningRule) error
	GetScreeningRule(ctx context.Context, tenantID string, ruleID string) (*ScreeningRule, error)
	ListScreeningRules(ctx context.Context, tenantID string) ([]*ScreeningRule, error)
	DeleteScreeningRule(ctx context.Context, tenantID string, ruleID string) error

	// Historical pattern operations
	SaveHistoricalPattern(ctx context.Context, tenantID string, pattern *HistoricalPattern) error
	ListHistoricalPatterns(ctx context.Context, tenantID string) ([]*HistoricalPattern, error)

	// Outcome snapshots for adversarial outcome-learning coverage
	SaveOutcomeSnapshot(ctx context.Context, tenantID string, snapshot *OutcomeSnapshot) error
	ListOutcomeSnapshots(ctx context.Context, tenantID string) ([]*OutcomeSnapshot, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
