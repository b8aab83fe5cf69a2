package counterfactual

import (
	"reflect"
	"strings"
	"testing"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

func TestPriceOpportunityCostAndRegret(t *testing.T) {
	alt := Price(100, 60, 12, domain.Alternative{
		Name:               "reduced-scope",
		ExpectedValue:      60,
		SuccessProbability: 40,
		TimelineMonths:     6,
	})
	if alt.OpportunityCostUSD != 40 {
		t.Fatalf("opportunity cost = %v, want 40", alt.OpportunityCostUSD)
	}
	if alt.RegretProbability != 55 {
		t.Fatalf("regret = %v, want 55 (40 probability + 15 premium)", alt.RegretProbability)
	}
}

func TestPriceNoPremiumWhenAlternativeWins(t *testing.T) {
	alt := Price(100, 60, 12, domain.Alternative{
		Name:               "aggressive",
		ExpectedValue:      150,
		SuccessProbability: 40,
	})
	if alt.OpportunityCostUSD != -50 {
		t.Fatalf("opportunity cost = %v, want -50", alt.OpportunityCostUSD)
	}
	if alt.RegretProbability != 40 {
		t.Fatalf("regret = %v, want 40 with no premium", alt.RegretProbability)
	}
}

func TestPriceRegretClamped(t *testing.T) {
	alt := Price(100, 60, 12, domain.Alternative{
		Name:               "do-nothing",
		ExpectedValue:      0,
		SuccessProbability: 100,
	})
	if alt.RegretProbability != 95 {
		t.Fatalf("regret = %v, want clamp at 95", alt.RegretProbability)
	}
}

func TestParseMonths(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"18 months", 18},
		{"2 years", 24},
		{"1 year", 12},
		{"9", 9},
		{"", 12},
		{"as soon as possible", 12},
		{"3-6 months", 3},
	}
	for _, tc := range cases {
		if got := ParseMonths(tc.in); got != tc.want {
			t.Errorf("ParseMonths(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAnalyzePartnerLedRequiresPartner(t *testing.T) {
	base := &domain.RequestProfile{
		ID: "cf-1", OrganizationName: "Meridian Foods",
		Country: "Vietnam", RiskTolerance: "medium",
		ExpansionTimeline: "12 months",
	}
	without := Analyze(base)
	for _, a := range without.Alternatives {
		if a.Name == "partner-led" {
			t.Fatal("partner-led alternative present without a target partner or partnership intent")
		}
	}

	withPartner := *base
	withPartner.TargetPartner = "Delta Holdings"
	got := Analyze(&withPartner)
	found := false
	for _, a := range got.Alternatives {
		if a.Name == "partner-led" {
			found = true
		}
	}
	if !found {
		t.Fatal("partner-led alternative missing despite named target partner")
	}
}

func TestAnalyzeHighestRegretIsProductArgmax(t *testing.T) {
	profile := &domain.RequestProfile{
		ID: "cf-2", OrganizationName: "Meridian Foods",
		Country: "Vietnam", RiskTolerance: "high",
		BudgetCapUSD: 2_000_000, ExpansionTimeline: "12 months",
	}
	analysis := Analyze(profile)

	best := analysis.Alternatives[0]
	for _, a := range analysis.Alternatives[1:] {
		if a.OpportunityCostUSD*a.RegretProbability > best.OpportunityCostUSD*best.RegretProbability {
			best = a
		}
	}
	if analysis.HighestRegret != best.Name {
		t.Fatalf("highest regret = %q, want %q by cost x regret", analysis.HighestRegret, best.Name)
	}
	// do-nothing forfeits the whole baseline at certainty, so the
	// product argmax must pick it here.
	if analysis.HighestRegret != "do-nothing" {
		t.Fatalf("highest regret = %q, want do-nothing", analysis.HighestRegret)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	profile := &domain.RequestProfile{
		ID: "cf-3", OrganizationName: "Meridian Foods",
		Country: "Vietnam", RiskTolerance: "low",
		TargetPartner: "Delta Holdings", BudgetCapUSD: 5_000_000,
		ExpansionTimeline: "2 years",
	}
	a := Analyze(profile)
	b := Analyze(profile)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over the same profile diverged")
	}
	if a.BaselineMonths != 24 {
		t.Fatalf("baseline months = %v, want 24", a.BaselineMonths)
	}
}

func TestAnalyzeRobustnessAndRecommendation(t *testing.T) {
	strong := Analyze(&domain.RequestProfile{
		ID: "cf-4", OrganizationName: "Meridian Foods",
		Country: "Vietnam", RiskTolerance: "low",
		TargetPartner: "Delta Holdings", BudgetCapUSD: 5_000_000,
		ExpansionTimeline: "18 months",
	})
	if strong.Robustness < 70 {
		t.Fatalf("robustness = %v, want >= 70 for partnered, well-capitalized, low-risk plan", strong.Robustness)
	}
	if !strings.HasPrefix(strong.Recommendation, "PROCEED:") {
		t.Fatalf("recommendation = %q, want PROCEED", strong.Recommendation)
	}

	weak := Analyze(&domain.RequestProfile{
		ID: "cf-5", OrganizationName: "Meridian Foods",
		Country: "Vietnam", RiskTolerance: "high",
		ExpansionTimeline: "6 months",
	})
	if weak.Robustness >= strong.Robustness {
		t.Fatalf("unpartnered high-risk plan scored %v, partnered low-risk plan %v", weak.Robustness, strong.Robustness)
	}
	if strings.HasPrefix(weak.Recommendation, "PROCEED:") {
		t.Fatalf("recommendation = %q, want caution or concern", weak.Recommendation)
	}
	if len(weak.Vulnerabilities) == 0 {
		t.Fatal("weak plan reported no vulnerabilities")
	}
	if len(weak.Scenarios) != 3 {
		t.Fatalf("scenarios = %d, want 3", len(weak.Scenarios))
	}
}
