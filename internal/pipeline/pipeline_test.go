package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

type stubAssembler struct {
	payload *domain.ReportPayload
	err     error
	calls   int
}

func (s *stubAssembler) Assemble(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.ReportPayload, error) {
	s.calls++
	return s.payload, s.err
}

type recordingBus struct {
	mu     sync.Mutex
	topics []string
}

func (b *recordingBus) Publish(ctx context.Context, tenantID, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, tenantID, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	return nil, nil
}

func (b *recordingBus) Ping(ctx context.Context) error { return nil }
func (b *recordingBus) Close() error                   { return nil }

type recordingGovernance struct {
	records []*domain.ProvenanceRecord
}

func (g *recordingGovernance) Record(ctx context.Context, tenantID string, rec *domain.ProvenanceRecord) error {
	g.records = append(g.records, rec)
	return nil
}

// fakeRepo only implements the packet save path; the embedded nil
// interface panics on anything else, which is what we want in tests.
type fakeRepo struct {
	domain.Repository
	saved []*domain.DecisionPacket
}

func (r *fakeRepo) SaveDecisionPacket(ctx context.Context, tenantID string, packet *domain.DecisionPacket) error {
	r.saved = append(r.saved, packet)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// readyProfile passes every gate: long problem statement, five intent
// lines that touch the trade, policy and macro fabric signals, a
// compliance department for the governance bonus, and rival plus
// implementation language where the case method layer looks for it.
func readyProfile() *domain.RequestProfile {
	return &domain.RequestProfile{
		ID:               "req-100",
		TenantID:         "tenant-a",
		OrganizationName: "Delta Holdings",
		OrganizationType: "private",
		Country:          "Vietnam",
		Region:           "Southeast Asia",
		UserDepartment:   "Compliance",
		Industry:         []string{"Technology"},
		ProblemStatement: "Decide whether to commit manufacturing capacity in Vietnam over the next two fiscal years given rising input costs at home.",
		StrategicIntent: []string{
			"Enter the Vietnam electronics export market",
			"Build a regional trade corridor with local logistics partners",
			"Secure regulatory approvals ahead of construction",
			"Hedge currency and gdp cycle exposure",
			"Qualify two second-source suppliers",
		},
		TargetCounterpartTypes: []string{"Industrial park operators"},
		ExpansionTimeline:      "18 months",
		AdditionalContext:      "We considered the alternative of expanding the existing plant instead.",
		CriticalPath:           "Site selection owner named; go-no-go review at month three.",
		BudgetCapUSD:           5_000_000,
		RiskTolerance:          "medium",
	}
}

func testPayload() *domain.ReportPayload {
	return &domain.ReportPayload{
		Metadata: domain.ReportMetadata{
			RequesterType: "organization",
			Country:       "Vietnam",
			Region:        "Southeast Asia",
			GeneratedAt:   time.Now().UTC(),
			DataSources:   []string{"World Bank", "Telemetry snapshot"},
		},
		ProblemDefinition: domain.ProblemDefinition{StatedProblem: "Commit manufacturing capacity in Vietnam"},
		RegionalProfile:   domain.RegionalProfile{Demographics: "Vietnam: population 98.2M, GDP $409.0B."},
		Risks: domain.RiskSection{
			Operational:        domain.OperationalRisks{SupplyChainDependency: 42},
			RegulatoryFriction: 35,
		},
		EconomicSignals: domain.EconomicSignals{TariffSensitivity: 35, TradeExposure: 70},
		ConfidenceScores: domain.ConfidenceScores{Overall: 74, SymbioticFit: 68, DataQuality: 80},
		Intelligence: domain.ComputedIntelligence{
			SPI:  &domain.SPIResult{Score: 71},
			RROI: &domain.RROIIndex{OverallScore: 66},
			SEAM: &domain.SEAMBlueprint{Score: 70, EcosystemHealth: "Healthy"},
		},
	}
}

func TestRunBlocksAtGovernanceGateWithAllRemediations(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())

	packet := p.Run(context.Background(), "tenant-a", &domain.RequestProfile{ID: "req-1"})

	if len(packet.Phases) != 1 {
		t.Fatalf("expected exactly one phase, got %d", len(packet.Phases))
	}
	phase := packet.Phases[0]
	if phase.Phase != domain.PhaseGovernanceGate || phase.Status != domain.PhaseBlocked {
		t.Fatalf("expected governance-gate blocked, got %s %s", phase.Phase, phase.Status)
	}
	for _, want := range []string{"Add a problem statement", "Select a country", "Select a region"} {
		found := false
		for _, r := range phase.Remediation {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("remediation missing %q, got %v", want, phase.Remediation)
		}
	}
	if !packet.Blocked {
		t.Error("packet should be marked blocked")
	}
	if len(packet.Exports.Blockers) == 0 {
		t.Error("export blockers should mirror the remediation list")
	}
	if packet.Exports.LOIReady || packet.Exports.ReportReady {
		t.Error("blocked packet must not be export ready")
	}
}

func TestRunBlocksOnBlankFeed(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())
	profile := readyProfile()
	profile.RequiredDataFeeds = []string{"customs clearance time-stamps", "  "}

	packet := p.Run(context.Background(), "tenant-a", profile)

	phase := packet.CurrentPhase()
	if phase.Phase != domain.PhaseDataReadiness || phase.Status != domain.PhaseBlocked {
		t.Fatalf("expected data-readiness blocked, got %s %s", phase.Phase, phase.Status)
	}
	if len(phase.Remediation) != 1 || !strings.HasPrefix(phase.Remediation[0], "Provide feed:") {
		t.Errorf("unexpected remediation %v", phase.Remediation)
	}
	if len(packet.Phases) != 2 {
		t.Errorf("expected governance-gate then data-readiness, got %d phases", len(packet.Phases))
	}
}

func TestConsultantGateNamesEveryMissingDimension(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())
	profile := &domain.RequestProfile{
		ID:               "req-2",
		Country:          "Vietnam",
		Region:           "Southeast Asia",
		ProblemStatement: "Decide whether to enter the regional market this year.",
	}

	packet := p.Run(context.Background(), "tenant-a", profile)

	phase := packet.CurrentPhase()
	if phase.Phase != domain.PhaseConsultantGate || phase.Status != domain.PhaseBlocked {
		t.Fatalf("expected consultant-gate blocked, got %s %s", phase.Phase, phase.Status)
	}
	want := []string{
		"Who: decision owner or organization identity",
		"For whom: decision audience or counterpart",
		"When: timeline/deadline",
	}
	if len(phase.Remediation) != len(want) {
		t.Fatalf("expected %d missing dimensions, got %v", len(want), phase.Remediation)
	}
	for i, w := range want {
		if phase.Remediation[i] != w {
			t.Errorf("remediation[%d] = %q, want %q", i, phase.Remediation[i], w)
		}
	}
}

func TestCaseMethodLayerReportsAllGaps(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())
	profile := &domain.RequestProfile{
		ID:                     "req-3",
		OrganizationName:       "Delta Holdings",
		Country:                "Vietnam",
		Region:                 "Southeast Asia",
		ProblemStatement:       "Short statement over twenty characters.",
		TargetCounterpartTypes: []string{"Distributors"},
		ExpansionTimeline:      "12 months",
	}

	packet := p.Run(context.Background(), "tenant-a", profile)

	phase := packet.CurrentPhase()
	if phase.Phase != domain.PhaseCaseMethodLayer || phase.Status != domain.PhaseBlocked {
		t.Fatalf("expected case-method-layer blocked, got %s %s", phase.Phase, phase.Status)
	}
	if len(phase.Remediation) != 5 {
		t.Fatalf("expected all five case method gaps, got %v", phase.Remediation)
	}
	prefixes := []string{
		"Boundary clarity", "Objective quality", "Evidence sufficiency",
		"Rival explanations", "Implementation feasibility",
	}
	for i, prefix := range prefixes {
		if !strings.HasPrefix(phase.Remediation[i], prefix) {
			t.Errorf("gap %d = %q, want prefix %q", i, phase.Remediation[i], prefix)
		}
	}
}

func TestRegionalKernelGateBlocksOnThinEvidence(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())
	profile := readyProfile()
	// One neutral intent line and a context free of fabric keywords:
	// readiness lands well under the threshold.
	profile.StrategicIntent = []string{"Deepen our presence with neighboring partners over time"}
	profile.AdditionalContext = "We weighed the alternative of staying home."
	profile.UserDepartment = "Sales"

	packet := p.Run(context.Background(), "tenant-a", profile)

	phase := packet.CurrentPhase()
	if phase.Phase != domain.PhaseRegionalKernelGate || phase.Status != domain.PhaseBlocked {
		t.Fatalf("expected regional-kernel-gate blocked, got %s %s", phase.Phase, phase.Status)
	}
	if len(phase.Remediation) == 0 {
		t.Fatal("blocked kernel gate must carry remediation")
	}
	if !strings.Contains(phase.Remediation[0], "readiness 50%") {
		t.Errorf("expected readiness 50%% in %q", phase.Remediation[0])
	}
}

func TestRunAssemblesFullPacket(t *testing.T) {
	assembler := &stubAssembler{payload: testPayload()}
	bus := &recordingBus{}
	governance := &recordingGovernance{}
	repo := &fakeRepo{}
	p := New(assembler, repo, bus, governance, false, testLogger())

	packet := p.Run(context.Background(), "tenant-a", readyProfile())

	if packet.Blocked {
		t.Fatalf("run should pass every gate, stopped at %+v", packet.CurrentPhase())
	}
	if len(packet.Phases) != 9 {
		t.Fatalf("expected 9 phases, got %d", len(packet.Phases))
	}
	for _, phase := range packet.Phases {
		if phase.Status != domain.PhasePassed {
			t.Errorf("phase %s = %s, want passed", phase.Phase, phase.Status)
		}
	}
	if assembler.calls != 1 {
		t.Errorf("assembler called %d times, want 1", assembler.calls)
	}

	if len(packet.Controls) != 3 {
		t.Errorf("expected 3 bound controls, got %d", len(packet.Controls))
	}
	if len(packet.Risks) != 2 {
		t.Errorf("expected 2 risk register entries, got %+v", packet.Risks)
	}
	if packet.Mode != domain.ModeOffline {
		t.Errorf("mode = %q, want offline without an external source", packet.Mode)
	}
	if len(packet.Actions) != 3 {
		t.Errorf("expected 3 roadmap actions, got %d", len(packet.Actions))
	}
	if got := packet.Scores; got.SPI != 71 || got.RROI != 66 || got.OverallConfidence != 74 ||
		got.SymbioticFit != 68 || got.SupplyChainRisk != 42 {
		t.Errorf("unexpected score projection %+v", got)
	}
	if !packet.Exports.LOIReady || !packet.Exports.ReportReady {
		t.Error("complete payload should make exports ready")
	}
	if !packet.Scenario.GateOK {
		t.Error("scenario gate should be marked ok")
	}

	if len(bus.topics) != 1 || bus.topics[0] != domain.TopicDecisionPacket {
		t.Errorf("expected a single decision.packet publish, got %v", bus.topics)
	}
	if len(governance.records) != 1 || governance.records[0].Action != "assembled" {
		t.Errorf("expected one assembled provenance record, got %+v", governance.records)
	}
	if len(repo.saved) != 1 {
		t.Errorf("expected the packet to be persisted once, got %d", len(repo.saved))
	}
}

func TestRunTurnsAssembleErrorIntoFailedPhase(t *testing.T) {
	assembler := &stubAssembler{err: errors.New("composite scoring unavailable")}
	bus := &recordingBus{}
	p := New(assembler, nil, bus, nil, false, testLogger())

	packet := p.Run(context.Background(), "tenant-a", readyProfile())

	phase := packet.CurrentPhase()
	if phase.Phase != domain.PhaseOrchestrationRun || phase.Status != domain.PhaseFailed {
		t.Fatalf("expected orchestration-run failed, got %s %s", phase.Phase, phase.Status)
	}
	if phase.Detail != "composite scoring unavailable" {
		t.Errorf("detail = %q, want the engine error", phase.Detail)
	}
	if len(phase.Remediation) == 0 {
		t.Error("failed phase must carry remediation")
	}
	if !packet.Blocked {
		t.Error("failed run should mark the packet blocked")
	}
	if len(bus.topics) != 1 || bus.topics[0] != domain.TopicDecisionBlocked {
		t.Errorf("expected decision.blocked publish, got %v", bus.topics)
	}
}

func TestPacketModeTracksExternalSource(t *testing.T) {
	assembler := &stubAssembler{payload: testPayload()}

	online := New(assembler, nil, nil, nil, true, testLogger()).
		Run(context.Background(), "tenant-a", readyProfile())
	if online.Mode != domain.ModeOnline {
		t.Errorf("mode = %q, want online when an external source is configured", online.Mode)
	}

	offline := New(assembler, nil, nil, nil, false, testLogger()).
		Run(context.Background(), "tenant-a", readyProfile())
	if offline.Mode != domain.ModeOffline {
		t.Errorf("mode = %q, want offline", offline.Mode)
	}

	// Blocked runs are stamped too.
	blocked := New(assembler, nil, nil, nil, true, testLogger()).
		Run(context.Background(), "tenant-a", &domain.RequestProfile{ID: "req-4"})
	if blocked.Mode != domain.ModeOnline {
		t.Errorf("blocked packet mode = %q, want online", blocked.Mode)
	}
}

func TestBuildRisksPairsMetricsWithMitigations(t *testing.T) {
	risks := buildRisks(testPayload())
	if len(risks) != 2 {
		t.Fatalf("expected 2 register entries, got %+v", risks)
	}
	if risks[0].Risk != "Supply chain dependency" || risks[0].Metric != "42" ||
		risks[0].Mitigation != "Telemetry enforcement and diversified sourcing" {
		t.Errorf("unexpected supply chain entry %+v", risks[0])
	}
	if risks[1].Risk != "Regulatory friction" || risks[1].Metric != "35" ||
		risks[1].Mitigation != "Fast lane permitting and trustee oversight" {
		t.Errorf("unexpected regulatory entry %+v", risks[1])
	}

	empty := buildRisks(&domain.ReportPayload{})
	if len(empty) != 0 {
		t.Errorf("no exposures should yield an empty register, got %+v", empty)
	}
}

func TestBlockedRunClearsRiskRegister(t *testing.T) {
	p := New(&stubAssembler{}, nil, nil, nil, false, testLogger())
	packet := p.Run(context.Background(), "tenant-a", &domain.RequestProfile{ID: "req-5"})
	if packet.Risks == nil || len(packet.Risks) != 0 {
		t.Errorf("blocked packet risks = %+v, want empty register", packet.Risks)
	}
}

func TestBuildControlsReadsTariffFromEconomicSignals(t *testing.T) {
	payload := testPayload()
	payload.EconomicSignals.TariffSensitivity = 0

	controls := buildControls(payload)
	for _, c := range controls {
		if c.Metric == "Tariff sensitivity" {
			t.Fatalf("tariff control bound without tariff exposure: %+v", controls)
		}
	}
}

func TestBuildControlsIncludesScreeningHits(t *testing.T) {
	payload := testPayload()
	payload.Intelligence.Screening = &domain.ScreeningSummary{
		Hits: []domain.ScreeningHit{
			{RuleID: "low-budget", Name: "Low budget", Severity: "caution", Deduction: 10},
			{RuleID: "embargo", Name: "Embargoed country", Severity: "block"},
		},
		ComplianceScore: 90,
		Blocked:         true,
	}

	controls := buildControls(payload)
	if len(controls) != 5 {
		t.Fatalf("expected 3 standard plus 2 screening controls, got %+v", controls)
	}
	var caution, block *domain.ControlRule
	for i := range controls {
		switch controls[i].Metric {
		case "Screening rule: Low budget":
			caution = &controls[i]
		case "Screening rule: Embargoed country":
			block = &controls[i]
		}
	}
	if caution == nil || block == nil {
		t.Fatalf("screening controls missing from %+v", controls)
	}
	if caution.Action == block.Action {
		t.Error("caution and block hits should bind different actions")
	}
}

func TestBuildEvidenceDeduplicatesSources(t *testing.T) {
	payload := testPayload()
	payload.Metadata.DataSources = []string{"Telemetry snapshot", "World Bank", "World Bank"}

	evidence := buildEvidence(payload)

	seen := map[string]int{}
	for _, e := range evidence {
		seen[e]++
	}
	for e, n := range seen {
		if n > 1 {
			t.Errorf("evidence %q appears %d times", e, n)
		}
	}
	if seen["World Bank"] != 1 || seen["Kestrel run log"] != 1 {
		t.Errorf("unexpected evidence set %v", evidence)
	}
}

func TestBuildActionsRequiresEcosystemBlueprint(t *testing.T) {
	payload := testPayload()
	payload.Intelligence.SEAM = nil
	if actions := buildActions(payload); len(actions) != 0 {
		t.Errorf("expected empty roadmap without a blueprint, got %v", actions)
	}
}

func TestResolveFeedsAppendsContextNote(t *testing.T) {
	profile := readyProfile()
	feeds := resolveFeeds(profile)
	if len(feeds) != len(defaultFeeds)+1 {
		t.Fatalf("expected default feeds plus context note, got %d", len(feeds))
	}
	last := feeds[len(feeds)-1]
	if !strings.HasPrefix(last, "context note: ") {
		t.Errorf("last feed = %q, want context note", last)
	}

	profile.RequiredDataFeeds = []string{"only feed"}
	if feeds := resolveFeeds(profile); len(feeds) != 1 || feeds[0] != "only feed" {
		t.Errorf("explicit feeds should win, got %v", feeds)
	}
}
