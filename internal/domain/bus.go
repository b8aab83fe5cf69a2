package domain

import (
	"context"
)

// EventBus carries pipeline events between components. Publishing is
// fire-and-forget: the pipeline and orchestrator log delivery failures
// and keep going, so implementations must never block a publisher on a
// slow consumer. Community tier runs on Go channels, Pro on NATS.
// Every call is tenant-scoped.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, tenantID string, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, tenantID string, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings (Community tier)
	ChannelBufferSize int

	// NATS settings (Pro tier)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Topics emitted over the lifetime of one decision run. Intake events
// fire when a profile arrives, report and pulse events after engine
// fan-out, and exactly one of the decision topics fires per run.
const (
	TopicIntakeUpdated   = "kestrel.intake.updated"
	TopicReportAssembled = "kestrel.report.assembled"
	TopicDecisionPacket  = "kestrel.decision.packet"
	TopicDecisionBlocked = "kestrel.decision.blocked"
	TopicEcosystemPulse  = "kestrel.ecosystem.pulse"
)
