// Package worker provides async intake processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// ErrNoProfile is returned when an intake event carries no embedded
// profile and the worker has no repository to load one from.
var ErrNoProfile = errors.New("intake has no profile and no repository is configured")

// Runner executes the decision pipeline for one request profile.
type Runner interface {
	Run(ctx context.Context, tenantID string, profile *domain.RequestProfile) *domain.DecisionPacket
}

// Worker processes intake events asynchronously from the EventBus.
type Worker struct {
	bus    domain.EventBus
	repo   domain.Repository
	runner Runner

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, runner Runner) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing intake events for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicIntakeUpdated, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicIntakeUpdated, func(ctx context.Context, msg *domain.Message) error {
		return w.processIntake(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicIntakeUpdated,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processIntake(ctx, msg.TenantID, msg)
}

// IntakeMessage is the message payload for intake processing. The
// profile may be embedded for fire-and-forget submissions; otherwise
// it is loaded from the repository by request ID.
type IntakeMessage struct {
	RequestID string                 `json:"requestId"`
	TenantID  string                 `json:"tenantId"`
	TraceID   string                 `json:"traceId"`
	Profile   *domain.RequestProfile `json:"profile,omitempty"`
}

// processIntake runs the decision pipeline for one intake event.
func (w *Worker) processIntake(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var intake IntakeMessage
	if err := json.Unmarshal(msg.Payload, &intake); err != nil {
		slog.Error("failed to parse intake message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if intake.TenantID != "" {
		tenantID = intake.TenantID
	}

	traceID := intake.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing intake",
		"request_id", intake.RequestID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	profile := intake.Profile
	if profile == nil {
		if w.repo == nil {
			slog.Error("intake without embedded profile and no repository",
				"request_id", intake.RequestID,
			)
			return ErrNoProfile
		}
		loaded, err := w.repo.GetRequestProfile(ctx, tenantID, intake.RequestID)
		if err != nil {
			slog.Error("failed to load request profile",
				"request_id", intake.RequestID,
				"error", err,
			)
			return err
		}
		profile = loaded
	}

	// The pipeline persists the packet and publishes the decision or
	// blocked topic itself; the worker only reports the outcome.
	packet := w.runner.Run(ctx, tenantID, profile)

	phase := ""
	if last := packet.CurrentPhase(); last != nil {
		phase = last.Phase
	}

	slog.Info("intake processed",
		"request_id", intake.RequestID,
		"tenant_id", tenantID,
		"packet_id", packet.ID,
		"blocked", packet.Blocked,
		"phase", phase,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
