// Package report runs the engine fan-out and assembles the normalized
// intelligence payload the decision pipeline gates on.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crossborder-intel/kestrel/internal/adversarial"
	"github.com/crossborder-intel/kestrel/internal/composite"
	"github.com/crossborder-intel/kestrel/internal/counterfactual"
	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/history"
	"github.com/crossborder-intel/kestrel/internal/indices"
	"github.com/crossborder-intel/kestrel/internal/persona"
	"github.com/crossborder-intel/kestrel/internal/rules"
)

// Autonomous is an alternate orchestrator that replaces the standard
// fan-out when a request asks for full autonomy. It is an external
// collaborator; this package only defines the seam.
type Autonomous interface {
	Assemble(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.ReportPayload, error)
}

// Screener runs the tenant's loaded screening rules against a profile.
// Satisfied by rules.Engine.
type Screener interface {
	EvaluateAll(ctx context.Context, profile *domain.RequestProfile) (*rules.ScreeningResult, error)
}

// Orchestrator fans out every engine for a request and joins the
// results into one ReportPayload.
type Orchestrator struct {
	scores     *composite.Service
	macro      domain.MacroSource
	patterns   *history.Matcher
	repo       domain.Repository
	bus        domain.EventBus
	governance domain.GovernanceLog
	screener   Screener
	autonomous Autonomous
	logger     *slog.Logger
}

// NewOrchestrator wires the engine fan-out. scores is required; macro,
// repo, bus, governance, screener, and autonomous may be nil and their
// stages degrade accordingly.
func NewOrchestrator(
	scores *composite.Service,
	macro domain.MacroSource,
	patterns *history.Matcher,
	repo domain.Repository,
	bus domain.EventBus,
	governance domain.GovernanceLog,
	screener Screener,
	autonomous Autonomous,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		scores:     scores,
		macro:      macro,
		patterns:   patterns,
		repo:       repo,
		bus:        bus,
		governance: governance,
		screener:   screener,
		autonomous: autonomous,
		logger:     logger,
	}
}

// Assemble runs the full fan-out and returns the joined payload. In
// full-autonomy mode the entire fan-out is bypassed in favor of the
// autonomous collaborator. Event publishes and provenance writes are
// fire-and-forget; their errors never fail the assembly.
func (o *Orchestrator) Assemble(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.ReportPayload, error) {
	if profile.FullAutonomy {
		if o.autonomous == nil {
			return nil, fmt.Errorf("full autonomy requested but no autonomous orchestrator is configured")
		}
		payload, err := o.autonomous.Assemble(ctx, tenantID, profile)
		if err != nil {
			return nil, fmt.Errorf("autonomous assembly failed: %w", err)
		}
		o.announce(ctx, tenantID, profile, payload)
		return payload, nil
	}

	var (
		comp      *domain.CompositeScore
		macro     *domain.MacroIndicators
		matches   []domain.PatternMatch
		outcomes  []domain.OutcomeSnapshot
		synthesis *domain.DebateSynthesis
		shield    *domain.ShieldReport
		motive    *domain.MotivationAnalysis
		cf        *domain.CounterfactualAnalysis
		screening *domain.ScreeningSummary
	)

	// Independent tasks; no ordering between them. A failure in any
	// one fails the join and surfaces to the pipeline boundary.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comp, err = o.scores.GetScores(gctx, tenantID, profile)
		return err
	})
	g.Go(func() error {
		if o.macro == nil {
			return nil
		}
		m, err := o.macro.Macro(gctx, profile.Locator())
		if err != nil {
			// Macro absence is a documented degradation, not a failure.
			o.logger.Warn("macro lookup failed, using fallbacks", "locator", profile.Locator(), "error", err)
			return nil
		}
		macro = m
		return nil
	})
	g.Go(func() error {
		if o.patterns != nil {
			matches = o.patterns.FindRelevant(gctx, tenantID, profile)
		}
		return nil
	})
	g.Go(func() error {
		if o.repo == nil {
			return nil
		}
		snaps, err := o.repo.ListOutcomeSnapshots(gctx, tenantID)
		if err != nil {
			o.logger.Warn("outcome snapshot lookup failed", "tenant_id", tenantID, "error", err)
			return nil
		}
		outcomes = make([]domain.OutcomeSnapshot, 0, len(snaps))
		for _, s := range snaps {
			outcomes = append(outcomes, *s)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		synthesis, err = persona.RunDebate(gctx, profile)
		return err
	})
	g.Go(func() error {
		shield = adversarial.RunShield(profile)
		return nil
	})
	g.Go(func() error {
		motive = adversarial.DetectMotivation(profile)
		return nil
	})
	g.Go(func() error {
		cf = counterfactual.Analyze(profile)
		return nil
	})
	g.Go(func() error {
		if o.screener == nil {
			return nil
		}
		res, err := o.screener.EvaluateAll(gctx, profile)
		if err != nil {
			// Screening is supplemental; a failed pass degrades to none.
			o.logger.Warn("rule screening failed", "tenant_id", tenantID, "error", err)
			return nil
		}
		screening = &domain.ScreeningSummary{
			Hits:            res.Hits,
			ComplianceScore: res.ComplianceScore,
			Blocked:         res.Blocked,
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("engine fan-out failed: %w", err)
	}

	// Index engines consume the composite; they are pure and cheap.
	ethics := indices.RunEthicalSafeguards(profile, comp)
	mergeScreening(ethics, screening)
	spi := indices.CalculateSPI(profile, comp, ethics, matches)
	rroi := indices.GenerateRROI(profile, comp)
	seam := indices.GenerateSEAM(profile, comp)
	ivas := indices.ComputeIVAS(profile, comp)
	var gdp, population float64
	if macro != nil {
		gdp, population = macro.GDPUSD, macro.Population
	}
	scf := indices.ComputeSCF(profile, comp, indices.SCFBasis(gdp, population))
	pri := indices.CalculatePRI(profile, comp)
	var diversification *domain.DiversificationAnalysis
	if len(profile.CurrentMarkets) > 0 {
		diversification = indices.AnalyzeConcentration(profile.CurrentMarkets, []*domain.CompositeScore{comp})
	}
	confidence := adversarial.Confidence(shield, synthesis, cf, motive, outcomes)

	payload := o.buildPayload(profile, comp, macro, matches, &domain.ComputedIntelligence{
		Composite:       comp,
		SPI:             spi,
		RROI:            rroi,
		SEAM:            seam,
		IVAS:            ivas,
		SCF:             scf,
		Diversification: diversification,
		Ethics:          ethics,
		PRI:             pri,
		Personas:        synthesis,
		Shield:          shield,
		Motivation:      motive,
		Adversarial:     confidence,
		Counterfactual:  cf,
		Screening:       screening,
	})

	o.announce(ctx, tenantID, profile, payload)

	return payload, nil
}

// mergeScreening folds tenant rule hits into the ethics verdict as
// supplemental flags. Caution hits deduct their configured points; a
// blocking hit makes the whole screen a block with score 0.
func mergeScreening(ethics *domain.EthicsResult, screening *domain.ScreeningSummary) {
	if screening == nil {
		return
	}
	for _, hit := range screening.Hits {
		status := domain.EthicsCaution
		if hit.Severity == "block" {
			status = domain.EthicsBlock
		}
		ethics.Flags = append(ethics.Flags, domain.EthicsFlag{
			Name:   "Screening rule: " + hit.Name,
			Status: status,
			Reason: fmt.Sprintf("Tenant screening rule %s triggered.", hit.RuleID),
		})
		if status == domain.EthicsBlock {
			ethics.Status = domain.EthicsBlock
			ethics.Score = 0
			continue
		}
		if ethics.Status != domain.EthicsBlock {
			ethics.Score -= hit.Deduction
			if ethics.Score < 0 {
				ethics.Score = 0
			}
			if ethics.Status == domain.EthicsPass {
				ethics.Status = domain.EthicsCaution
			}
		}
	}
}

func (o *Orchestrator) buildPayload(
	profile *domain.RequestProfile,
	comp *domain.CompositeScore,
	macro *domain.MacroIndicators,
	matches []domain.PatternMatch,
	intel *domain.ComputedIntelligence,
) *domain.ReportPayload {
	requester := profile.OrganizationType
	if requester == "" {
		requester = "organization"
	}

	sources := append([]string{}, comp.DataSources...)
	if len(sources) == 0 {
		sources = []string{"baseline heuristics"}
	}

	c := comp.Components
	recommendations := buildRecommendations(intel, matches)

	return &domain.ReportPayload{
		Metadata: domain.ReportMetadata{
			RequesterType: requester,
			Country:       profile.Country,
			Region:        profile.Region,
			GeneratedAt:   time.Now().UTC(),
			DataSources:   sources,
		},
		ProblemDefinition: domain.ProblemDefinition{
			StatedProblem: profile.ProblemStatement,
			Objectives:    profile.StrategicObjectives,
			Context:       profile.AdditionalContext,
		},
		RegionalProfile: domain.RegionalProfile{
			Demographics: describeDemographics(profile, macro),
			Economy:      fmt.Sprintf("Composite regional score %.0f/100 against a baseline of %.0f; growth potential %.0f, market access %.0f.", comp.Overall, comp.Baseline, c.GrowthPotential, c.MarketAccess),
			Governance:   fmt.Sprintf("Regulatory environment %.0f/100, political stability %.0f/100.", c.Regulatory, c.PoliticalStability),
		},
		Risks: domain.RiskSection{
			Operational: domain.OperationalRisks{
				SupplyChainDependency: 100 - c.SupplyChain,
				CurrencyRisk:          100 - c.RiskFactors,
			},
			Political:          strings.Join(intel.PRI.Commentary, " "),
			Regulatory:         fmt.Sprintf("Political risk index %.0f/100 (%s).", intel.PRI.Overall, intel.PRI.RiskBand),
			RegulatoryFriction: 100 - c.Regulatory,
		},
		EconomicSignals: buildEconomicSignals(c, intel.RROI),
		Opportunities:   buildOpportunityMatches(profile, intel),
		Recommendations: recommendations,
		ConfidenceScores: domain.ConfidenceScores{
			Overall:      intel.Adversarial.Score,
			SymbioticFit: intel.SEAM.Score,
			DataQuality:  dataQuality(comp),
		},
		Intelligence: *intel,
	}
}

func describeDemographics(profile *domain.RequestProfile, macro *domain.MacroIndicators) string {
	locator := profile.Country
	if locator == "" {
		locator = profile.Region
	}
	if macro != nil && macro.Population > 0 {
		return fmt.Sprintf("%s: population %.1fM, GDP $%.1fB.", locator, macro.Population/1e6, macro.GDPUSD/1e9)
	}
	if locator == "" {
		return ""
	}
	return fmt.Sprintf("%s: demographic detail unavailable; baseline regional profile applied.", locator)
}

// dataQuality reflects how much of the composite ran on real sources
// rather than fallback constants.
func dataQuality(comp *domain.CompositeScore) float64 {
	n := float64(len(comp.DataSources))
	if n == 0 {
		return 40
	}
	q := 70 + n*5
	if q > 95 {
		q = 95
	}
	return q
}

// buildEconomicSignals projects the trade posture out of the composite
// components and the RROI verdict.
func buildEconomicSignals(c domain.CompositeComponents, rroi *domain.RROIIndex) domain.EconomicSignals {
	costPosition := "above"
	if c.CostEfficiency >= 55 {
		costPosition = "below"
	}
	signals := domain.EconomicSignals{
		TradeExposure:     c.MarketAccess,
		TariffSensitivity: 100 - c.Regulatory,
		CostAdvantages: []string{
			fmt.Sprintf("Labor costs %s global average", costPosition),
			fmt.Sprintf("Infrastructure readiness: %.0f/100", c.Infrastructure),
			fmt.Sprintf("Talent availability: %.0f/100", c.Talent),
		},
	}
	if rroi != nil {
		signals.BottleneckReliefPotential = rroi.OverallScore
	}
	return signals
}

// buildOpportunityMatches pairs the ecosystem blueprint's partner roster
// with the risk-adjusted return reading.
func buildOpportunityMatches(profile *domain.RequestProfile, intel *domain.ComputedIntelligence) domain.OpportunityMatches {
	matches := domain.OpportunityMatches{
		Sectors:      append([]string{}, profile.Industry...),
		PartnerTypes: []string{},
	}
	if intel.SEAM != nil {
		for _, p := range intel.SEAM.Partners {
			matches.PartnerTypes = append(matches.PartnerTypes, p.Role)
		}
	}
	if len(matches.Sectors) == 0 && intel.SEAM != nil {
		for _, p := range intel.SEAM.Partners {
			matches.Sectors = append(matches.Sectors, p.Name)
		}
	}
	if intel.SPI != nil {
		matches.RiskAdjustedROI = intel.SPI.Score
	}
	return matches
}

func buildRecommendations(intel *domain.ComputedIntelligence, matches []domain.PatternMatch) []string {
	var recs []string

	switch intel.Personas.Consensus {
	case domain.ConsensusGo:
		recs = append(recs, "Persona consensus supports proceeding; hold the stated scope and timeline.")
	case domain.ConsensusHold:
		recs = append(recs, "Persona consensus is hold; resolve the flagged concerns before committing capital.")
	default:
		recs = append(recs, "Persona consensus is block; do not proceed without a materially revised plan.")
	}

	if intel.Ethics.Status != domain.EthicsPass {
		recs = append(recs, fmt.Sprintf("Ethics screen returned %s; apply the listed mitigations before any outreach.", intel.Ethics.Status))
	}
	if intel.Counterfactual != nil && intel.Counterfactual.HighestRegret != "" {
		recs = append(recs, fmt.Sprintf("Highest-regret path not taken is %q; revisit it if conditions shift.", intel.Counterfactual.HighestRegret))
	}
	if intel.Diversification != nil && intel.Diversification.RiskLevel == "High Concentration" {
		recs = append(recs, "Market exposure is highly concentrated; sequence entry to reduce single-market dependency.")
	}
	for _, m := range matches {
		if len(m.Pattern.Lessons) > 0 {
			recs = append(recs, fmt.Sprintf("Historical precedent %s: %s", m.Pattern.ID, m.Pattern.Lessons[0]))
			break
		}
	}

	return recs
}

// ValidatePayload checks the fixed required-field list. It is the sole
// completeness oracle the gate pipeline relies on, and is idempotent.
func ValidatePayload(p *domain.ReportPayload) domain.PayloadValidation {
	var missing []string
	if p.Metadata.RequesterType == "" {
		missing = append(missing, "metadata.requesterType")
	}
	if p.Metadata.Country == "" {
		missing = append(missing, "metadata.country")
	}
	if p.ProblemDefinition.StatedProblem == "" {
		missing = append(missing, "problemDefinition.statedProblem")
	}
	if p.RegionalProfile.Demographics == "" {
		missing = append(missing, "regionalProfile.demographics")
	}
	if p.ConfidenceScores.Overall <= 0 {
		missing = append(missing, "confidenceScores.overall")
	}
	return domain.PayloadValidation{
		IsComplete:    len(missing) == 0,
		MissingFields: missing,
	}
}

// buildPulse shapes the ecosystem.pulse event: partner alignment out of
// the blueprint, its gaps as bottlenecks, and the RROI components as
// the opportunity surface.
func buildPulse(profile *domain.RequestProfile, payload *domain.ReportPayload) map[string]any {
	pulse := map[string]any{
		"reportId":      profile.ID,
		"country":       profile.Country,
		"alignment":     0.0,
		"bottlenecks":   []string{},
		"opportunities": []map[string]any{},
	}
	if seam := payload.Intelligence.SEAM; seam != nil {
		pulse["alignment"] = seam.Score
		pulse["bottlenecks"] = seam.Gaps
	}
	if rroi := payload.Intelligence.RROI; rroi != nil {
		opps := make([]map[string]any, 0, len(rroi.Components))
		for _, comp := range rroi.Components {
			opps = append(opps, map[string]any{"name": comp.Name, "score": comp.Score})
		}
		pulse["opportunities"] = opps
	}
	return pulse
}

// announce publishes the assembled-report events and records
// provenance. All of it is best-effort.
func (o *Orchestrator) announce(ctx context.Context, tenantID string, profile *domain.RequestProfile, payload *domain.ReportPayload) {
	if o.bus != nil {
		event, err := json.Marshal(map[string]any{
			"reportId":    profile.ID,
			"country":     profile.Country,
			"overall":     payload.ConfidenceScores.Overall,
			"assembledAt": payload.Metadata.GeneratedAt,
		})
		if err == nil {
			if err := o.bus.Publish(ctx, tenantID, domain.TopicReportAssembled, event); err != nil {
				o.logger.Warn("report.assembled publish failed", "report_id", profile.ID, "error", err)
			}
		}
		if pulse, err := json.Marshal(buildPulse(profile, payload)); err == nil {
			if err := o.bus.Publish(ctx, tenantID, domain.TopicEcosystemPulse, pulse); err != nil {
				o.logger.Warn("ecosystem.pulse publish failed", "report_id", profile.ID, "error", err)
			}
		}
	}

	if o.governance != nil {
		rec := &domain.ProvenanceRecord{
			ReportID: profile.ID,
			Artifact: "report-payload",
			Action:   "assembled",
			Actor:    "kestrel-orchestrator",
			Source:   strings.Join(payload.Metadata.DataSources, ","),
			Tags:     []string{"pipeline", "assembly"},
		}
		if err := o.governance.Record(ctx, tenantID, rec); err != nil {
			o.logger.Warn("provenance write failed", "report_id", profile.ID, "error", err)
		}
	}
}
