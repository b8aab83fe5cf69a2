// Package pipeline runs the gated decision state machine: a fixed
// sequence of governance and readiness phases that must all pass before
// the report orchestrator is invoked and a decision packet is assembled.
// Gating failures are ordinary outcomes, not errors: the caller always
// receives a packet whose phase trail explains what blocked and how to
// remediate it.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/report"
)

// Assembler produces the full intelligence report for a profile. The
// report orchestrator is the production implementation.
type Assembler interface {
	Assemble(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.ReportPayload, error)
}

// Pipeline drives a request profile through every gate phase and, when
// all gates pass, assembles the terminal decision packet.
type Pipeline struct {
	assembler  Assembler
	repo       domain.Repository
	bus        domain.EventBus
	governance domain.GovernanceLog
	online     bool
	logger     *slog.Logger
}

// New wires a pipeline. repo, bus and governance may be nil; the
// pipeline then skips persistence and announcements. online reports
// whether an external data source is configured; it stamps each
// packet's mode, it does not gate anything.
func New(assembler Assembler, repo domain.Repository, bus domain.EventBus, governance domain.GovernanceLog, online bool, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		assembler:  assembler,
		repo:       repo,
		bus:        bus,
		governance: governance,
		online:     online,
		logger:     logger.With("component", "pipeline"),
	}
}

func (p *Pipeline) mode() string {
	if p.online {
		return domain.ModeOnline
	}
	return domain.ModeOffline
}

// readinessThreshold is the minimum regional kernel readiness that lets
// a run proceed into orchestration.
const readinessThreshold = 75

// defaultFeeds is the baseline data-feed manifest attached to every run
// that does not name its own feeds.
var defaultFeeds = []string{
	"customs clearance time-stamps",
	"macro indicator refresh",
	"regulatory register updates",
	"sanctions watchlist refresh",
	"permit queue exports",
}

// Run executes the phase sequence for one profile. It never returns an
// error for a gating failure; the packet's trail carries the outcome.
func (p *Pipeline) Run(ctx context.Context, tenantID string, profile *domain.RequestProfile) *domain.DecisionPacket {
	feeds := resolveFeeds(profile)
	packet := &domain.DecisionPacket{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		RequestID: profile.ID,
		Mode:      p.mode(),
		Scenario: domain.ScenarioSummary{
			Type:          scenarioType(profile),
			Location:      locationOf(profile),
			Intent:        profile.StrategicIntent,
			RequiredFeeds: feeds,
		},
		AssembledAt: time.Now().UTC(),
	}

	// governance-gate
	if blockers := gateBlockers(profile, feeds); len(blockers) > 0 {
		return p.block(ctx, packet, domain.PhaseGovernanceGate, "Missing required inputs", blockers)
	}
	p.pass(packet, domain.PhaseGovernanceGate, "")

	// data-readiness
	if issues := feedIssues(feeds); len(issues) > 0 {
		return p.block(ctx, packet, domain.PhaseDataReadiness, "Missing data feeds", issues)
	}
	p.pass(packet, domain.PhaseDataReadiness, fmt.Sprintf("%d feeds resolved", len(feeds)))

	// model-bundle-selected is a marker phase: the engine bundle is
	// fixed per deployment, so selection cannot fail.
	p.pass(packet, domain.PhaseModelBundleSelected, "standard engine bundle")

	// consultant-gate
	if missing := consultantGaps(profile); len(missing) > 0 {
		return p.block(ctx, packet, domain.PhaseConsultantGate, "Consulting brief incomplete", missing)
	}
	p.pass(packet, domain.PhaseConsultantGate, "")

	// case-method-layer
	if gaps := caseMethodGaps(profile); len(gaps) > 0 {
		return p.block(ctx, packet, domain.PhaseCaseMethodLayer, "Case method layer incomplete", gaps)
	}
	p.pass(packet, domain.PhaseCaseMethodLayer, "")

	// regional-kernel-gate
	readiness, notes := kernelReadiness(profile)
	if readiness < readinessThreshold {
		blockers := append([]string{
			fmt.Sprintf("Regional kernel readiness %d%% is below the %d%% threshold", readiness, readinessThreshold),
		}, notes...)
		return p.block(ctx, packet, domain.PhaseRegionalKernelGate, "Regional kernel not ready", blockers)
	}
	p.pass(packet, domain.PhaseRegionalKernelGate, fmt.Sprintf("readiness %d%%", readiness))

	// orchestration-run
	payload, err := p.assembler.Assemble(ctx, tenantID, profile)
	if err != nil {
		p.logger.Error("orchestration run failed", "request_id", profile.ID, "error", err)
		return p.fail(ctx, packet, domain.PhaseOrchestrationRun, err.Error(), []string{
			"Resolve the engine failure and rerun: " + err.Error(),
		})
	}
	p.pass(packet, domain.PhaseOrchestrationRun, "")
	packet.Payload = payload

	// controls-bound
	packet.Controls = buildControls(payload)
	packet.Risks = buildRisks(payload)
	p.pass(packet, domain.PhaseControlsBound, fmt.Sprintf("%d controls bound", len(packet.Controls)))

	// decision-packet-assembled
	packet.Actions = buildActions(payload)
	packet.Evidence = buildEvidence(payload)
	packet.Scores = projectScores(payload)

	validation := report.ValidatePayload(payload)
	packet.Exports = domain.ExportReadiness{
		LOIReady:    validation.IsComplete,
		ReportReady: validation.IsComplete,
		Blockers:    validation.MissingFields,
	}
	packet.Scenario.GateOK = true
	p.pass(packet, domain.PhaseDecisionPacketAssembled, "")

	p.persist(ctx, packet)
	p.announce(ctx, packet, domain.TopicDecisionPacket, nil)
	return packet
}

func (p *Pipeline) pass(packet *domain.DecisionPacket, phase, detail string) {
	packet.Phases = append(packet.Phases, domain.PhaseResult{
		Phase:       phase,
		Status:      domain.PhasePassed,
		Detail:      detail,
		CompletedAt: time.Now().UTC(),
	})
}

// block terminates the run at a gate. The remediation list becomes the
// scenario and export blockers so downstream surfaces can show it.
func (p *Pipeline) block(ctx context.Context, packet *domain.DecisionPacket, phase, reason string, remediation []string) *domain.DecisionPacket {
	return p.terminate(ctx, packet, phase, domain.PhaseBlocked, reason, remediation)
}

func (p *Pipeline) fail(ctx context.Context, packet *domain.DecisionPacket, phase, reason string, remediation []string) *domain.DecisionPacket {
	return p.terminate(ctx, packet, phase, domain.PhaseFailed, reason, remediation)
}

func (p *Pipeline) terminate(ctx context.Context, packet *domain.DecisionPacket, phase, status, reason string, remediation []string) *domain.DecisionPacket {
	packet.Phases = append(packet.Phases, domain.PhaseResult{
		Phase:       phase,
		Status:      status,
		Detail:      reason,
		Remediation: remediation,
		CompletedAt: time.Now().UTC(),
	})
	packet.Blocked = true
	packet.Scenario.Blockers = remediation
	packet.Controls = []domain.ControlRule{}
	packet.Risks = []domain.RiskEntry{}
	packet.Actions = []domain.ActionItem{}
	packet.Evidence = []string{}
	packet.Exports = domain.ExportReadiness{Blockers: remediation}

	p.logger.Info("pipeline stopped",
		"request_id", packet.RequestID, "phase", phase, "status", status, "blockers", len(remediation))

	p.persist(ctx, packet)
	p.announce(ctx, packet, domain.TopicDecisionBlocked, remediation)
	return packet
}

// persist saves the packet; failures are logged, never surfaced, so a
// storage outage cannot turn a decided run into an undecided one.
func (p *Pipeline) persist(ctx context.Context, packet *domain.DecisionPacket) {
	if p.repo == nil {
		return
	}
	if err := p.repo.SaveDecisionPacket(ctx, packet.TenantID, packet); err != nil {
		p.logger.Warn("decision packet save failed", "packet_id", packet.ID, "error", err)
	}
}

func (p *Pipeline) announce(ctx context.Context, packet *domain.DecisionPacket, topic string, blockers []string) {
	if p.bus != nil {
		event, err := json.Marshal(map[string]any{
			"packetId":  packet.ID,
			"requestId": packet.RequestID,
			"blocked":   packet.Blocked,
			"phase":     packet.CurrentPhase().Phase,
			"blockers":  blockers,
		})
		if err == nil {
			if err := p.bus.Publish(ctx, packet.TenantID, topic, event); err != nil {
				p.logger.Warn("decision event publish failed", "packet_id", packet.ID, "topic", topic, "error", err)
			}
		}
	}

	if p.governance != nil {
		action := "assembled"
		if packet.Blocked {
			action = "blocked"
		}
		rec := &domain.ProvenanceRecord{
			ReportID: packet.RequestID,
			Artifact: "decision-packet",
			Action:   action,
			Actor:    "kestrel-pipeline",
			Tags:     []string{"pipeline", "decision"},
		}
		if err := p.governance.Record(ctx, packet.TenantID, rec); err != nil {
			p.logger.Warn("provenance write failed", "packet_id", packet.ID, "error", err)
		}
	}
}

func scenarioType(profile *domain.RequestProfile) string {
	if profile.IntelligenceCategory != "" {
		return profile.IntelligenceCategory
	}
	return "cross-border-investment"
}

func locationOf(profile *domain.RequestProfile) string {
	if profile.Country != "" {
		return profile.Country
	}
	return profile.Region
}

// resolveFeeds returns the run's data-feed manifest: the profile's own
// feed list when it names one, otherwise the default manifest plus a
// context note when the requester supplied free-text context.
func resolveFeeds(profile *domain.RequestProfile) []string {
	if len(profile.RequiredDataFeeds) > 0 {
		return profile.RequiredDataFeeds
	}
	feeds := make([]string, len(defaultFeeds))
	copy(feeds, defaultFeeds)
	if profile.AdditionalContext != "" {
		feeds = append(feeds, "context note: "+profile.AdditionalContext)
	}
	return feeds
}

func gateBlockers(profile *domain.RequestProfile, feeds []string) []string {
	var blockers []string
	if strings.TrimSpace(profile.ProblemStatement) == "" {
		blockers = append(blockers, "Add a problem statement")
	}
	if strings.TrimSpace(profile.Country) == "" {
		blockers = append(blockers, "Select a country")
	}
	if strings.TrimSpace(profile.Region) == "" {
		blockers = append(blockers, "Select a region")
	}
	if len(feeds) == 0 {
		blockers = append(blockers, "Define required data feeds")
	}
	return blockers
}

func feedIssues(feeds []string) []string {
	var issues []string
	for _, feed := range feeds {
		if strings.TrimSpace(feed) == "" {
			issues = append(issues, "Provide feed: unknown")
		}
	}
	return issues
}

// consultantGaps checks the five consulting-brief questions. Each one
// must be answerable from the profile before analysis starts.
func consultantGaps(profile *domain.RequestProfile) []string {
	var missing []string

	who := firstNonEmpty(profile.UserName, profile.OrganizationName)
	if who == "" {
		missing = append(missing, "Who: decision owner or organization identity")
	}

	where := firstNonEmpty(profile.Country, profile.UserCountry, profile.Region)
	if where == "" {
		missing = append(missing, "Where: country or region context")
	}

	objective := firstNonEmpty(
		profile.ProblemStatement,
		strings.Join(profile.StrategicObjectives, " "),
		strings.Join(profile.StrategicIntent, " "),
	)
	if len(strings.TrimSpace(objective)) < 20 {
		missing = append(missing, "What: clear objective/problem statement")
	}

	audience := firstNonEmpty(
		strings.Join(profile.TargetCounterpartTypes, " "),
		strings.Join(profile.StakeholderPerspectives, " "),
		profile.UserDepartment,
	)
	if audience == "" {
		missing = append(missing, "For whom: decision audience or counterpart")
	}

	deadline := firstNonEmpty(profile.ExpansionTimeline, profile.AnalysisTimeframe)
	if deadline == "" {
		missing = append(missing, "When: timeline/deadline")
	}

	return missing
}

var (
	rivalKeywords          = regexp.MustCompile(`(?i)counterfactual|alternative|rival|other option`)
	implementationKeywords = regexp.MustCompile(`(?i)owner|go-no-go|critical path|authority|escalation`)
)

// caseMethodGaps applies the case study method checklist: boundary,
// objective, evidence, rival explanations and implementation
// feasibility. Heuristic length and keyword checks, nothing fancier.
func caseMethodGaps(profile *domain.RequestProfile) []string {
	var gaps []string

	if len(strings.TrimSpace(profile.ProblemStatement)) < 60 {
		gaps = append(gaps, "Boundary clarity: expand the problem statement to at least a few sentences")
	}
	if len(strings.TrimSpace(strings.Join(profile.StrategicIntent, " "))) < 20 {
		gaps = append(gaps, "Objective quality: state the strategic intent in concrete terms")
	}

	hasEvidence := strings.TrimSpace(profile.AdditionalContext) != "" || len(profile.IngestedDocuments) > 0
	if !hasEvidence {
		gaps = append(gaps, "Evidence sufficiency: attach context or supporting documents")
	}

	rivalText := profile.AdditionalContext + " " + profile.CollaborativeNotes
	if !rivalKeywords.MatchString(rivalText) {
		gaps = append(gaps, "Rival explanations: name at least one alternative or counterfactual path")
	}

	implementationText := strings.Join([]string{
		profile.CriticalPath, profile.GoNoGoCriteria, profile.AuthorityMatrix, profile.EscalationProcedures,
	}, " ")
	feasible := strings.TrimSpace(profile.ExpansionTimeline) != "" && implementationKeywords.MatchString(implementationText)
	if !feasible {
		gaps = append(gaps, "Implementation feasibility: define the timeline, owners and go-no-go criteria")
	}

	return gaps
}

var governanceKeywords = regexp.MustCompile(`(?i)governance|compliance|regulat|policy`)

// kernelReadiness scores how ready the regional kernel is to decide:
// data-fabric confidence carries most of the weight, topped up by how
// much evidence the requester brought and whether the requesting
// organization shows a governance posture.
func kernelReadiness(profile *domain.RequestProfile) (int, []string) {
	evidenceNotes := append([]string{}, profile.StrategicIntent...)
	if profile.AdditionalContext != "" {
		evidenceNotes = append(evidenceNotes, profile.AdditionalContext)
	}
	if len(evidenceNotes) > 10 {
		evidenceNotes = evidenceNotes[:10]
	}

	fabric := snapshotFabric(evidenceNotes)

	evidenceStrength := 0.0
	if len(evidenceNotes) > 0 {
		evidenceStrength = math.Min(20, float64(len(evidenceNotes))*4)
	}

	governanceContext := profile.OrganizationType + " " + profile.UserDepartment
	governanceSignals := 4.0
	if governanceKeywords.MatchString(governanceContext) {
		governanceSignals = 12
	}

	raw := math.Round(fabric.OverallConfidence*100*0.55 + evidenceStrength + governanceSignals)
	readiness := int(math.Max(30, math.Min(98, raw)))

	var notes []string
	if evidenceStrength < 20 {
		notes = append(notes, "Attach more context or intent detail to lift evidence strength")
	}
	if governanceSignals < 12 {
		notes = append(notes, "Describe the organization's governance or compliance posture")
	}
	for _, s := range fabric.Signals {
		if s.Confidence < 0.75 {
			notes = append(notes, fmt.Sprintf("Low %s signal confidence; reference %s topics in the brief", s.Domain, s.Domain))
		}
	}
	return readiness, notes
}

func buildControls(payload *domain.ReportPayload) []domain.ControlRule {
	var controls []domain.ControlRule
	if payload.Risks.Operational.SupplyChainDependency > 0 {
		controls = append(controls, domain.ControlRule{
			Metric:    "Supply chain dependency",
			Threshold: ">= 40%",
			Action:    "Activate telemetry lane and escrow before spend",
		})
	}
	if payload.EconomicSignals.TariffSensitivity > 0 {
		controls = append(controls, domain.ControlRule{
			Metric:    "Tariff sensitivity",
			Threshold: ">= 30/100",
			Action:    "Enable customs fast lane and seal workflows",
		})
	}
	if payload.ConfidenceScores.Overall > 0 {
		controls = append(controls, domain.ControlRule{
			Metric:    "Overall confidence",
			Threshold: "< 50/100",
			Action:    "Hold exports and request additional evidence pack",
		})
	}
	if s := payload.Intelligence.Screening; s != nil {
		for _, hit := range s.Hits {
			action := "Apply enhanced due diligence before proceeding"
			if hit.Severity == "block" {
				action = "Halt the run until the rule condition clears"
			}
			controls = append(controls, domain.ControlRule{
				Metric:    "Screening rule: " + hit.Name,
				Threshold: "triggered",
				Action:    action,
			})
		}
	}
	return controls
}

// buildRisks projects the payload's exposure readings into the packet's
// risk register, each with its standing mitigation.
func buildRisks(payload *domain.ReportPayload) []domain.RiskEntry {
	risks := []domain.RiskEntry{}
	if d := payload.Risks.Operational.SupplyChainDependency; d > 0 {
		risks = append(risks, domain.RiskEntry{
			Risk:       "Supply chain dependency",
			Metric:     fmt.Sprintf("%.0f", d),
			Mitigation: "Telemetry enforcement and diversified sourcing",
		})
	}
	if f := payload.Risks.RegulatoryFriction; f > 0 {
		risks = append(risks, domain.RiskEntry{
			Risk:       "Regulatory friction",
			Metric:     fmt.Sprintf("%.0f", f),
			Mitigation: "Fast lane permitting and trustee oversight",
		})
	}
	return risks
}

// buildActions emits the activation roadmap. Without an ecosystem
// blueprint there is nothing to activate, so the roadmap stays empty.
func buildActions(payload *domain.ReportPayload) []domain.ActionItem {
	seam := payload.Intelligence.SEAM
	if seam == nil || seam.Score <= 0 {
		return []domain.ActionItem{}
	}
	return []domain.ActionItem{
		{Horizon: "Week 1", Owner: "Trustee", Step: "Pilot telemetry and partner evidence pack"},
		{Horizon: "Week 4", Owner: "Customs liaison", Step: "Customs integration and compliance validation"},
		{Horizon: "Month 6", Owner: "Investment committee", Step: "Export corridor scale and financing close"},
	}
}

func buildEvidence(payload *domain.ReportPayload) []string {
	evidence := []string{
		"Kestrel run log",
		"Telemetry snapshot",
		"Data provenance sheet",
	}
	evidence = append(evidence, payload.Metadata.DataSources...)

	seen := make(map[string]struct{}, len(evidence))
	deduped := evidence[:0]
	for _, e := range evidence {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		deduped = append(deduped, e)
	}
	return deduped
}

func projectScores(payload *domain.ReportPayload) domain.PacketScores {
	scores := domain.PacketScores{
		OverallConfidence: payload.ConfidenceScores.Overall,
		SymbioticFit:      payload.ConfidenceScores.SymbioticFit,
		SupplyChainRisk:   payload.Risks.Operational.SupplyChainDependency,
	}
	if payload.Intelligence.SPI != nil {
		scores.SPI = payload.Intelligence.SPI.Score
	}
	if payload.Intelligence.RROI != nil {
		scores.RROI = payload.Intelligence.RROI.OverallScore
	}
	return scores
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
