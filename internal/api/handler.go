package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crossborder-intel/kestrel/internal/composite"
	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/rules"
)

// Runner executes the decision pipeline for one request profile.
type Runner interface {
	Run(ctx context.Context, tenantID string, profile *domain.RequestProfile) *domain.DecisionPacket
}

// Handler holds dependencies for API handlers.
type Handler struct {
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	engine  *rules.Engine
	scores  *composite.Service
	runner  Runner
	version string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, scores *composite.Service, runner Runner, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		bus:     bus,
		engine:  engine,
		scores:  scores,
		runner:  runner,
		version: version,
	}
}

// DecisionResponse is the response for POST /decisions.
type DecisionResponse struct {
	PacketID  string                 `json:"packetId"`
	RequestID string                 `json:"requestId"`
	Mode      string                 `json:"mode"`
	Blocked   bool                   `json:"blocked"`
	Phase     string                 `json:"phase"`
	Scores    domain.PacketScores    `json:"scores"`
	Scenario  string                 `json:"scenario"`
	Blockers  []string               `json:"blockers,omitempty"`
	Exports   domain.ExportReadiness `json:"exports"`
	Metadata  struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// CreateDecision handles POST /decisions: it ingests a request
// profile, runs the full gated pipeline synchronously, and returns the
// decision packet summary. A blocked run is still a 200; the blockers
// travel in the body.
func (h *Handler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var profile domain.RequestProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	profile.TenantID = tenantID
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	// Persist the intake before running; a failed run must still leave
	// the profile queryable.
	if h.repo != nil {
		if err := h.repo.SaveRequestProfile(ctx, tenantID, &profile); err != nil {
			slog.Error("failed to save request profile", "request_id", profile.ID, "error", err)
		}
	}

	// Best-effort intake event for downstream listeners.
	if h.bus != nil {
		event, _ := json.Marshal(map[string]string{
			"requestId": profile.ID,
			"tenantId":  tenantID,
			"traceId":   traceID,
		})
		if err := h.bus.Publish(ctx, tenantID, domain.TopicIntakeUpdated, event); err != nil {
			slog.Warn("failed to publish intake event", "request_id", profile.ID, "error", err)
		}
	}

	packet := h.runner.Run(ctx, tenantID, &profile)

	phase := ""
	if last := packet.CurrentPhase(); last != nil {
		phase = last.Phase
	}

	resp := DecisionResponse{
		PacketID:  packet.ID,
		RequestID: packet.RequestID,
		Mode:      packet.Mode,
		Blocked:   packet.Blocked,
		Phase:     phase,
		Scores:    packet.Scores,
		Scenario:  packet.Scenario.Type,
		Blockers:  packet.Scenario.Blockers,
		Exports:   packet.Exports,
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// GetDecision retrieves a decision packet by ID.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	packetID := chi.URLParam(r, "id")

	if packetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "decision packet id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	packet, err := h.repo.GetDecisionPacket(ctx, tenantID, packetID)
	if err != nil {
		slog.Error("failed to get decision packet", "id", packetID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "decision packet not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, packet)
}

// ListDecisions lists decision packets, newest first. The optional
// "since" query parameter is RFC 3339.
func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "since must be RFC 3339",
			})
			return
		}
		since = parsed
	}

	packets, err := h.repo.ListDecisionPackets(ctx, tenantID, since)
	if err != nil {
		slog.Error("failed to list decision packets", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list decision packets",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": packets,
		"count":     len(packets),
	})
}

// OutcomeRequest is the request body for recording a decision outcome.
type OutcomeRequest struct {
	Result string  `json:"result"`
	Delta  float64 `json:"delta"`
}

// RecordOutcome handles POST /decisions/{id}/outcome: it stores an
// after-the-fact outcome snapshot that feeds the adversarial
// confidence engine's outcome-learning coverage.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	packetID := chi.URLParam(r, "id")

	if packetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "decision packet id is required",
		})
		return
	}

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	switch req.Result {
	case "success", "partial", "failure":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "result must be one of: success, partial, failure",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	snapshot := &domain.OutcomeSnapshot{
		DecisionID: packetID,
		Result:     req.Result,
		Delta:      req.Delta,
	}

	if err := h.repo.SaveOutcomeSnapshot(ctx, tenantID, snapshot); err != nil {
		slog.Error("failed to save outcome snapshot", "decision_id", packetID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save outcome",
		})
		return
	}

	writeJSON(w, http.StatusCreated, snapshot)
}

// ListOutcomes returns the tenant's recorded outcome snapshots.
func (h *Handler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	snapshots, err := h.repo.ListOutcomeSnapshots(ctx, tenantID)
	if err != nil {
		slog.Error("failed to list outcome snapshots", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list outcomes",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": snapshots,
		"count":    len(snapshots),
	})
}

// Screen handles POST /screen: it evaluates the loaded screening rules
// against a profile without running the full pipeline.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var profile domain.RequestProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	profile.TenantID = tenantID

	result, err := h.engine.EvaluateAll(ctx, &profile)
	if err != nil {
		slog.Error("screening evaluation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "screening evaluation failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetScore handles GET /scores/{locator}: it returns the composite
// regional score for a locator without running the full pipeline. The
// optional "region" query parameter selects the baseline table row.
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	locator := chi.URLParam(r, "locator")

	if locator == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "locator is required",
		})
		return
	}

	if h.scores == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "score service not available",
		})
		return
	}

	profile := &domain.RequestProfile{
		Country: locator,
		Region:  r.URL.Query().Get("region"),
	}

	score, err := h.scores.GetScores(ctx, tenantID, profile)
	if err != nil {
		slog.Error("composite score lookup failed", "locator", locator, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to compute composite score",
		})
		return
	}

	writeJSON(w, http.StatusOK, score)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListRules returns all loaded screening rules from the engine.
// Rules are loaded from the database at startup and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loadedRules := h.engine.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules":  loadedRules,
		"count":  len(loadedRules),
		"source": "database",
	})
}

// GetRule retrieves a screening rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a screening rule.
type CreateRuleRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Expression  string  `json:"expression"`
	Severity    string  `json:"severity"`
	Deduction   float64 `json:"deduction,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// CreateRule creates a new screening rule and saves it to the database.
// Rules are saved globally (tenant_id = "*") so they apply to all tenants.
// After saving, call POST /rules/reload to hot-reload into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate
	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	if req.Severity == "" {
		req.Severity = "caution"
	}
	if req.Severity != "caution" && req.Severity != "block" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "severity must be caution or block",
		})
		return
	}

	rule := &domain.ScreeningRule{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Severity:    req.Severity,
		Deduction:   req.Deduction,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.engine.LoadRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	// Persist to repository (global tenant ID)
	if h.repo != nil {
		if err := h.repo.SaveScreeningRule(ctx, GlobalTenantID, rule); err != nil {
			slog.Error("failed to save screening rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("screening rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// DeleteRule disables a screening rule and auto-reloads the engine.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteScreeningRule(ctx, GlobalTenantID, ruleID); err != nil {
		slog.Error("failed to delete screening rule", "id", ruleID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "rule not found",
		})
		return
	}

	// Auto-reload the engine after delete
	dbRules, err := h.repo.ListScreeningRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to reload rules after delete", "error", err)
	} else if err := h.engine.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
	}

	slog.Info("screening rule deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rule deleted and engine reloaded.",
	})
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// ReloadRules reloads all screening rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListScreeningRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	if err := h.engine.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

// ListPatterns returns the tenant's historical precedent library.
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	patterns, err := h.repo.ListHistoricalPatterns(ctx, tenantID)
	if err != nil {
		slog.Error("failed to list historical patterns", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list patterns",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// CreatePattern stores a historical precedent for the tenant.
func (h *Handler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var pattern domain.HistoricalPattern
	if err := json.NewDecoder(r.Body).Decode(&pattern); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if pattern.ID == "" {
		pattern.ID = uuid.New().String()
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.SaveHistoricalPattern(ctx, tenantID, &pattern); err != nil {
		slog.Error("failed to save historical pattern", "id", pattern.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save pattern",
		})
		return
	}

	writeJSON(w, http.StatusCreated, pattern)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
