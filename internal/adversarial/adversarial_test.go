package adversarial

import (
	"strings"
	"testing"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

func cleanProfile() *domain.RequestProfile {
	return &domain.RequestProfile{
		ID:                "adv-1",
		OrganizationName:  "Meridian Foods",
		Country:           "Singapore",
		Industry:          []string{"Technology"},
		ProblemStatement:  "Expand regional distribution through a local partner network.",
		StrategicIntent:   []string{"Market Entry"},
		ExpansionTimeline: "18 months",
		BudgetCapUSD:      2_000_000,
		RiskTolerance:     "medium",
	}
}

func TestShieldCleanProfileTrusted(t *testing.T) {
	report := RunShield(cleanProfile())
	if report.Status != domain.ShieldTrusted {
		t.Fatalf("status = %q, want trusted; findings: %+v", report.Status, report.Findings)
	}
	if report.TrustScore != 100 {
		t.Fatalf("trust = %v, want 100", report.TrustScore)
	}
	if report.ContradictionIndex != 0 {
		t.Fatalf("contradiction index = %v, want 0", report.ContradictionIndex)
	}
	if !report.Passed {
		t.Fatal("clean profile did not pass the shield")
	}
}

func TestShieldSanctionedCountryRejected(t *testing.T) {
	p := cleanProfile()
	p.Country = "Russia"
	report := RunShield(p)
	if report.Status != domain.ShieldRejected {
		t.Fatalf("status = %q, want rejected", report.Status)
	}
	if report.Passed {
		t.Fatal("sanctioned country passed the shield")
	}
	if report.TrustScore != 60 {
		t.Fatalf("trust = %v, want 60 after one critical", report.TrustScore)
	}
	found := false
	for _, f := range report.Findings {
		if f.Check == "sanctioned-party" && f.Level == domain.ShieldCritical {
			found = true
		}
	}
	if !found {
		t.Fatal("no critical sanctioned-party finding")
	}
}

func TestShieldWatchlistSubstringMatch(t *testing.T) {
	p := cleanProfile()
	p.TargetPartner = "Gazprom Trading Pte Ltd"
	report := RunShield(p)
	if report.Status != domain.ShieldRejected {
		t.Fatalf("status = %q, want rejected for watchlist partner", report.Status)
	}
}

func TestShieldMissingBasics(t *testing.T) {
	report := RunShield(&domain.RequestProfile{ID: "adv-2"})
	// Three required-field warnings plus the missing-basics pattern.
	if got := len(report.Findings); got != 4 {
		t.Fatalf("findings = %d, want 4", got)
	}
	if report.TrustScore != 80 {
		t.Fatalf("trust = %v, want 80 after four warnings", report.TrustScore)
	}
	if report.Status != domain.ShieldCautionary {
		t.Fatalf("status = %q, want cautionary", report.Status)
	}
}

func TestShieldBudgetAndTimeline(t *testing.T) {
	p := cleanProfile()
	p.BudgetCapUSD = 40_000
	p.StrategicIntent = []string{"Acquisition"}
	p.ExpansionTimeline = "3 months"
	report := RunShield(p)

	var concerns, warnings int
	for _, f := range report.Findings {
		switch f.Level {
		case domain.ShieldConcern:
			concerns++
		case domain.ShieldWarning:
			warnings++
		}
	}
	// Budget floor concern, timeline concern, rushed-urgency warning.
	if concerns != 2 || warnings != 1 {
		t.Fatalf("concerns = %d warnings = %d, want 2 and 1; findings: %+v", concerns, warnings, report.Findings)
	}
	if report.Status != domain.ShieldSuspicious {
		t.Fatalf("status = %q, want suspicious with two concerns", report.Status)
	}
}

func TestContradictionLevel(t *testing.T) {
	cases := map[string]float64{
		domain.ShieldCritical: 95,
		domain.ShieldConcern:  70,
		domain.ShieldWarning:  45,
		domain.ShieldClean:    15,
	}
	for level, want := range cases {
		if got := ContradictionLevel(level); got != want {
			t.Errorf("ContradictionLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestMotivationAlignedProfile(t *testing.T) {
	p := cleanProfile()
	p.StakeholderAlignment = []string{"Board approved"}
	p.PartnerReadiness = "high"
	got := DetectMotivation(p)
	if got.AlignmentScore != 82 {
		t.Fatalf("alignment = %v, want 82 (72 base +6 alignment +4 readiness)", got.AlignmentScore)
	}
	if len(got.RedFlags) != 0 {
		t.Fatalf("unexpected red flags: %+v", got.RedFlags)
	}
	if got.ImpliedMotivation != "aggressive market expansion" {
		t.Fatalf("implied motivation = %q", got.ImpliedMotivation)
	}
}

func TestMotivationContradictedProfile(t *testing.T) {
	p := &domain.RequestProfile{
		ID:                     "adv-3",
		OrganizationName:       "Meridian Foods",
		Country:                "Vietnam",
		Industry:               []string{"Manufacturing"},
		StrategicIntent:        []string{"Joint Venture partnership"},
		ExpansionTimeline:      "3 months",
		DealSize:               "$10M-$50M",
		RiskTolerance:          "low",
		PartnerReadiness:       "low",
		PartnerPersonas:        []string{"State-owned operator"},
		PoliticalSensitivities: []string{"Corruption"},
	}
	got := DetectMotivation(p)
	if len(got.RedFlags) != 5 {
		t.Fatalf("red flags = %d, want 5: %+v", len(got.RedFlags), got.RedFlags)
	}
	// 72 - 8 timeline - (7+6+5+5+4) flag deductions.
	if got.AlignmentScore != 37 {
		t.Fatalf("alignment = %v, want 37", got.AlignmentScore)
	}
	if !strings.Contains(got.Summary, "5 conflicting signals") {
		t.Fatalf("summary = %q, want conflicting-signal count", got.Summary)
	}
}

func TestConfidenceHealthyInputs(t *testing.T) {
	shield := &domain.ShieldReport{TrustScore: 100, Status: domain.ShieldTrusted, Passed: true}
	synthesis := &domain.DebateSynthesis{Confidence: 80}
	cf := &domain.CounterfactualAnalysis{Robustness: 90}
	motivation := &domain.MotivationAnalysis{AlignmentScore: 85}

	got := Confidence(shield, synthesis, cf, motivation, nil)
	if got.Band != domain.BandHigh {
		t.Fatalf("band = %q score = %v, want high", got.Band, got.Score)
	}
	if len(got.DegradationFlags) != 0 {
		t.Fatalf("unexpected degradation flags: %v", got.DegradationFlags)
	}
	if len(got.RecommendedHardening) != 1 || !strings.Contains(got.RecommendedHardening[0], "Maintain") {
		t.Fatalf("hardening = %v, want maintain-cadence only", got.RecommendedHardening)
	}
	if got.Coverage.OutcomeLearning != 70 {
		t.Fatalf("outcome learning = %v, want neutral prior 70", got.Coverage.OutcomeLearning)
	}
}

func TestConfidenceDegradedInputs(t *testing.T) {
	shield := &domain.ShieldReport{TrustScore: 40, Status: domain.ShieldSuspicious}
	synthesis := &domain.DebateSynthesis{
		Confidence:    40,
		Disagreements: []string{"a", "b", "c"},
	}
	cf := &domain.CounterfactualAnalysis{Robustness: 30}
	motivation := &domain.MotivationAnalysis{
		AlignmentScore: 30,
		RedFlags: []domain.MotivationRedFlag{
			{Pattern: "urgency-aversion-mismatch", Weight: 0.65},
			{Pattern: "opaque-capital-plan", Weight: 0.55},
		},
	}
	outcomes := []domain.OutcomeSnapshot{{DecisionID: "d1", Result: "failure"}}

	got := Confidence(shield, synthesis, cf, motivation, outcomes)
	if len(got.DegradationFlags) != 4 {
		t.Fatalf("degradation flags = %d, want all 4: %v", len(got.DegradationFlags), got.DegradationFlags)
	}
	if len(got.RecommendedHardening) != 3 {
		t.Fatalf("hardening = %v, want 3 targeted recommendations", got.RecommendedHardening)
	}
	if got.Band != domain.BandLow {
		t.Fatalf("band = %q score = %v, want low", got.Band, got.Score)
	}
	if got.Coverage.CounterfactualStress != 30 {
		t.Fatalf("stress = %v, want 30", got.Coverage.CounterfactualStress)
	}
	if got.Coverage.OutcomeLearning != 35 {
		t.Fatalf("outcome learning = %v, want 35 for a failed outcome", got.Coverage.OutcomeLearning)
	}
}
