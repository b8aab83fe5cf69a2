package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/crossborder-intel/kestrel/internal/composite"
	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/history"
	"github.com/crossborder-intel/kestrel/internal/rules"
)

type nopCache struct{}

func (nopCache) Get(ctx context.Context, tenantID, key string) ([]byte, error) { return nil, nil }
func (nopCache) Set(ctx context.Context, tenantID, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (nopCache) Delete(ctx context.Context, tenantID, key string) error { return nil }
func (nopCache) GetComposite(ctx context.Context, tenantID, locator string) (*domain.CompositeScore, error) {
	return nil, nil
}
func (nopCache) SetComposite(ctx context.Context, tenantID, locator string, score *domain.CompositeScore, ttl time.Duration) error {
	return nil
}
func (nopCache) Ping(ctx context.Context) error { return nil }
func (nopCache) Close() error                   { return nil }

type stubMacro struct{}

func (stubMacro) Macro(ctx context.Context, locator string) (*domain.MacroIndicators, error) {
	if locator == "vietnam" {
		return &domain.MacroIndicators{
			GDPUSD:          430e9,
			Population:      98e6,
			GDPGrowthPct:    5.0,
			InflationPct:    3.2,
			FDIInflowsUSD:   18e9,
			TradeBalanceUSD: 12e9,
			DataSources:     []string{"World Bank"},
		}, nil
	}
	return nil, nil
}

type recordingBus struct {
	mu       sync.Mutex
	topics   []string
	payloads map[string][]byte
	fail     bool
}

func (b *recordingBus) Publish(ctx context.Context, tenantID, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("bus unavailable")
	}
	b.topics = append(b.topics, topic)
	if b.payloads == nil {
		b.payloads = make(map[string][]byte)
	}
	b.payloads[topic] = payload
	return nil
}
func (b *recordingBus) Subscribe(ctx context.Context, tenantID, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	return nil, errors.New("not implemented")
}
func (b *recordingBus) Ping(ctx context.Context) error { return nil }
func (b *recordingBus) Close() error                   { return nil }

type recordingGovernance struct {
	mu      sync.Mutex
	records []*domain.ProvenanceRecord
	fail    bool
}

func (g *recordingGovernance) Record(ctx context.Context, tenantID string, rec *domain.ProvenanceRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errors.New("governance log down")
	}
	g.records = append(g.records, rec)
	return nil
}

type stubScreener struct {
	result *rules.ScreeningResult
	err    error
}

func (s *stubScreener) EvaluateAll(ctx context.Context, profile *domain.RequestProfile) (*rules.ScreeningResult, error) {
	return s.result, s.err
}

type stubAutonomous struct {
	called bool
}

func (a *stubAutonomous) Assemble(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.ReportPayload, error) {
	a.called = true
	return &domain.ReportPayload{
		Metadata: domain.ReportMetadata{RequesterType: "autonomous", Country: profile.Country},
	}, nil
}

func fullProfile() *domain.RequestProfile {
	return &domain.RequestProfile{
		ID:                "run-1",
		TenantID:          "tenant-1",
		OrganizationName:  "Meridian Foods",
		OrganizationType:  "private company",
		Country:           "Vietnam",
		Region:            "Southeast Asia",
		Industry:          []string{"Technology"},
		ProblemStatement:  "Identify the best entry path for our processing technology into Southeast Asia.",
		StrategicIntent:   []string{"Market Entry"},
		TargetPartner:     "Delta Holdings",
		BudgetCapUSD:      5_000_000,
		DealSize:          "$1M-$10M",
		RiskTolerance:     "medium",
		ExpansionTimeline: "18 months",
	}
}

func newTestOrchestrator(bus *recordingBus, gov *recordingGovernance) *Orchestrator {
	logger := slog.Default()
	scores := composite.NewService(stubMacro{}, nopCache{}, time.Hour, logger)
	matcher := history.NewMatcher(nil, logger)
	var governance domain.GovernanceLog
	if gov != nil {
		governance = gov
	}
	return NewOrchestrator(scores, stubMacro{}, matcher, nil, bus, governance, nil, nil, logger)
}

func TestAssembleJoinsAllEngines(t *testing.T) {
	bus := &recordingBus{}
	gov := &recordingGovernance{}
	o := newTestOrchestrator(bus, gov)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	intel := payload.Intelligence
	if intel.Composite == nil || intel.SPI == nil || intel.RROI == nil || intel.SEAM == nil ||
		intel.IVAS == nil || intel.SCF == nil || intel.Ethics == nil || intel.PRI == nil ||
		intel.Personas == nil || intel.Shield == nil || intel.Motivation == nil ||
		intel.Adversarial == nil || intel.Counterfactual == nil {
		t.Fatalf("intelligence bundle incomplete: %+v", intel)
	}
	if payload.ConfidenceScores.Overall != intel.Adversarial.Score {
		t.Fatal("overall confidence not projected from adversarial score")
	}
	if payload.ConfidenceScores.SymbioticFit != intel.SEAM.Score {
		t.Fatal("symbiotic fit not projected from ecosystem score")
	}
	if payload.Risks.Operational.SupplyChainDependency != 100-intel.Composite.Components.SupplyChain {
		t.Fatal("supply chain dependency not derived from composite")
	}
	if len(payload.Recommendations) == 0 {
		t.Fatal("no recommendations assembled")
	}

	validation := ValidatePayload(payload)
	if !validation.IsComplete {
		t.Fatalf("complete profile failed validation: %v", validation.MissingFields)
	}
}

func TestAssemblePublishesAndRecordsProvenance(t *testing.T) {
	bus := &recordingBus{}
	gov := &recordingGovernance{}
	o := newTestOrchestrator(bus, gov)

	if _, err := o.Assemble(context.Background(), "tenant-1", fullProfile()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := map[string]bool{
		domain.TopicReportAssembled: false,
		domain.TopicEcosystemPulse:  false,
	}
	for _, topic := range bus.topics {
		want[topic] = true
	}
	for topic, seen := range want {
		if !seen {
			t.Errorf("topic %s not published", topic)
		}
	}
	if len(gov.records) != 1 || gov.records[0].ReportID != "run-1" {
		t.Fatalf("provenance records = %+v, want one for run-1", gov.records)
	}
}

func TestAssembleBuildsEconomicSignals(t *testing.T) {
	o := newTestOrchestrator(&recordingBus{}, nil)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	c := payload.Intelligence.Composite.Components
	signals := payload.EconomicSignals
	if signals.TradeExposure != c.MarketAccess {
		t.Errorf("trade exposure = %v, want market access %v", signals.TradeExposure, c.MarketAccess)
	}
	if signals.TariffSensitivity != 100-c.Regulatory {
		t.Errorf("tariff sensitivity = %v, want %v", signals.TariffSensitivity, 100-c.Regulatory)
	}
	if len(signals.CostAdvantages) != 3 {
		t.Errorf("cost advantages = %v, want three entries", signals.CostAdvantages)
	}
	if signals.BottleneckReliefPotential != payload.Intelligence.RROI.OverallScore {
		t.Errorf("bottleneck relief = %v, want RROI overall %v",
			signals.BottleneckReliefPotential, payload.Intelligence.RROI.OverallScore)
	}

	opps := payload.Opportunities
	if len(opps.Sectors) == 0 {
		t.Error("no opportunity sectors")
	}
	if len(opps.PartnerTypes) != len(payload.Intelligence.SEAM.Partners) {
		t.Errorf("partner types = %v, want one per blueprint partner", opps.PartnerTypes)
	}
	if opps.RiskAdjustedROI != payload.Intelligence.SPI.Score {
		t.Errorf("risk-adjusted ROI = %v, want SPI %v", opps.RiskAdjustedROI, payload.Intelligence.SPI.Score)
	}
}

func TestAssembleScreeningFeedsEthicsAndPayload(t *testing.T) {
	screener := &stubScreener{result: &rules.ScreeningResult{
		Hits: []domain.ScreeningHit{
			{RuleID: "low-budget", Name: "Low budget", Severity: "caution", Deduction: 10},
		},
		ComplianceScore: 90,
	}}
	logger := slog.Default()
	scores := composite.NewService(stubMacro{}, nopCache{}, time.Hour, logger)
	o := NewOrchestrator(scores, stubMacro{}, history.NewMatcher(nil, logger), nil, nil, nil, screener, nil, logger)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	s := payload.Intelligence.Screening
	if s == nil {
		t.Fatal("screening summary missing from payload")
	}
	if s.ComplianceScore != 90 || len(s.Hits) != 1 {
		t.Fatalf("screening summary = %+v", s)
	}

	ethics := payload.Intelligence.Ethics
	found := false
	for _, f := range ethics.Flags {
		if f.Name == "Screening rule: Low budget" {
			found = true
		}
	}
	if !found {
		t.Fatalf("screening hit not folded into ethics flags: %+v", ethics.Flags)
	}
	if ethics.Status == domain.EthicsPass {
		t.Error("caution hit left the ethics status at PASS")
	}
}

func TestAssembleScreeningBlockZeroesEthics(t *testing.T) {
	screener := &stubScreener{result: &rules.ScreeningResult{
		Hits:    []domain.ScreeningHit{{RuleID: "embargo", Name: "Embargoed country", Severity: "block"}},
		Blocked: true,
	}}
	logger := slog.Default()
	scores := composite.NewService(stubMacro{}, nopCache{}, time.Hour, logger)
	o := NewOrchestrator(scores, stubMacro{}, history.NewMatcher(nil, logger), nil, nil, nil, screener, nil, logger)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	ethics := payload.Intelligence.Ethics
	if ethics.Status != domain.EthicsBlock || ethics.Score != 0 {
		t.Fatalf("blocking hit not enforced: status=%s score=%v", ethics.Status, ethics.Score)
	}
}

func TestAssembleScreeningFailureDegrades(t *testing.T) {
	screener := &stubScreener{err: errors.New("engine down")}
	logger := slog.Default()
	scores := composite.NewService(stubMacro{}, nopCache{}, time.Hour, logger)
	o := NewOrchestrator(scores, stubMacro{}, history.NewMatcher(nil, logger), nil, nil, nil, screener, nil, logger)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("screening failure must not fail assembly: %v", err)
	}
	if payload.Intelligence.Screening != nil {
		t.Fatal("failed screening pass still produced a summary")
	}
}

func TestAssemblePulseCarriesEcosystemShape(t *testing.T) {
	bus := &recordingBus{}
	o := newTestOrchestrator(bus, nil)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	raw, ok := bus.payloads[domain.TopicEcosystemPulse]
	if !ok {
		t.Fatal("no ecosystem.pulse event published")
	}
	var pulse struct {
		Alignment     float64  `json:"alignment"`
		Bottlenecks   []string `json:"bottlenecks"`
		Opportunities []struct {
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"opportunities"`
	}
	if err := json.Unmarshal(raw, &pulse); err != nil {
		t.Fatalf("unmarshal pulse: %v", err)
	}
	if pulse.Alignment != payload.Intelligence.SEAM.Score {
		t.Errorf("alignment = %v, want SEAM score %v", pulse.Alignment, payload.Intelligence.SEAM.Score)
	}
	if len(pulse.Opportunities) != len(payload.Intelligence.RROI.Components) {
		t.Errorf("opportunities = %d, want one per RROI component %d",
			len(pulse.Opportunities), len(payload.Intelligence.RROI.Components))
	}
	if string(raw) == string(bus.payloads[domain.TopicReportAssembled]) {
		t.Error("pulse event reuses the report-assembled payload")
	}
}

func TestAssembleSurvivesSideEffectFailures(t *testing.T) {
	bus := &recordingBus{fail: true}
	gov := &recordingGovernance{fail: true}
	o := newTestOrchestrator(bus, gov)

	payload, err := o.Assemble(context.Background(), "tenant-1", fullProfile())
	if err != nil {
		t.Fatalf("side-effect failures must not fail assembly: %v", err)
	}
	if payload == nil {
		t.Fatal("nil payload")
	}
}

func TestAssembleFullAutonomyBypass(t *testing.T) {
	bus := &recordingBus{}
	auto := &stubAutonomous{}
	logger := slog.Default()
	scores := composite.NewService(stubMacro{}, nopCache{}, time.Hour, logger)
	o := NewOrchestrator(scores, stubMacro{}, history.NewMatcher(nil, logger), nil, bus, nil, nil, auto, logger)

	profile := fullProfile()
	profile.FullAutonomy = true
	payload, err := o.Assemble(context.Background(), "tenant-1", profile)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !auto.called {
		t.Fatal("autonomous orchestrator not invoked")
	}
	if payload.Metadata.RequesterType != "autonomous" {
		t.Fatal("payload not produced by the autonomous collaborator")
	}
	if payload.Intelligence.Composite != nil {
		t.Fatal("standard fan-out ran despite full-autonomy bypass")
	}
}

func TestAssembleFullAutonomyWithoutCollaborator(t *testing.T) {
	o := newTestOrchestrator(&recordingBus{}, nil)
	profile := fullProfile()
	profile.FullAutonomy = true
	if _, err := o.Assemble(context.Background(), "tenant-1", profile); err == nil {
		t.Fatal("full autonomy without a collaborator must fail the assembly")
	}
}

func TestValidatePayloadMissingFields(t *testing.T) {
	empty := &domain.ReportPayload{}
	got := ValidatePayload(empty)
	if got.IsComplete {
		t.Fatal("empty payload validated as complete")
	}
	want := []string{
		"metadata.requesterType",
		"metadata.country",
		"problemDefinition.statedProblem",
		"regionalProfile.demographics",
		"confidenceScores.overall",
	}
	if len(got.MissingFields) != len(want) {
		t.Fatalf("missing = %v, want %v", got.MissingFields, want)
	}
	for i, field := range want {
		if got.MissingFields[i] != field {
			t.Errorf("missing[%d] = %q, want %q", i, got.MissingFields[i], field)
		}
	}

	// Idempotent: validating twice yields the same verdict.
	again := ValidatePayload(empty)
	if again.IsComplete != got.IsComplete || len(again.MissingFields) != len(got.MissingFields) {
		t.Fatal("validation is not idempotent")
	}
}
