package indices

import (
	"strings"
	"testing"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// balancedComposite is a mid-range composite used across engine tests.
func balancedComposite() *domain.CompositeScore {
	return &domain.CompositeScore{
		Locator: "vietnam",
		Overall: 68,
		Components: domain.CompositeComponents{
			Infrastructure:     70,
			Talent:             65,
			CostEfficiency:     62,
			MarketAccess:       72,
			Regulatory:         60,
			PoliticalStability: 64,
			GrowthPotential:    75,
			RiskFactors:        42,
			DigitalReadiness:   66,
			Sustainability:     58,
			Innovation:         63,
			SupplyChain:        67,
		},
		DataSources: []string{"World Bank"},
	}
}

func fragileComposite() *domain.CompositeScore {
	c := balancedComposite()
	c.Overall = 41
	c.Components.PoliticalStability = 35
	c.Components.Regulatory = 40
	c.Components.RiskFactors = 72
	c.Components.SupplyChain = 45
	return c
}

func TestResolveArchetype(t *testing.T) {
	tests := []struct {
		industry string
		want     string
	}{
		{"Port Logistics", ArchetypeInfrastructure},
		{"Fintech Lending", ArchetypeFinance},
		{"AI Platform", ArchetypeTechnology},
		{"Vaccine Manufacturing", ArchetypeHealth},
		{"Solar Power", ArchetypeEnergy},
		{"Municipal Authority", ArchetypeGovernment},
		{"Crop Cooperatives", ArchetypeAgriculture},
		{"Carbon Markets", ArchetypeClimate},
		{"Factory Automation", ArchetypeIndustrial},
		{"Retail", ArchetypeGeneral},
		{"", ArchetypeGeneral},
	}
	for _, tt := range tests {
		if got := ResolveArchetype(tt.industry); got != tt.want {
			t.Errorf("ResolveArchetype(%q) = %q, want %q", tt.industry, got, tt.want)
		}
	}
}

func TestCalculateHHI(t *testing.T) {
	tests := []struct {
		name   string
		shares []float64
		want   float64
		level  string
	}{
		{"dominant primary", []float64{60, 25, 15}, 4450, "High Concentration"},
		{"three way split", []float64{40, 30, 30}, 3400, "High Concentration"},
		{"exactly at boundary", []float64{25, 25, 25, 25}, 2500, "Moderate Concentration"},
		{"diversified", []float64{20, 20, 20, 20, 20}, 2000, "Moderate Concentration"},
		{"well spread", []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, 1000, "Well Diversified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shares []domain.MarketShare
			for i, s := range tt.shares {
				shares = append(shares, domain.MarketShare{Market: string(rune('A' + i)), Share: s})
			}
			if got := CalculateHHI(shares); got != tt.want {
				t.Errorf("HHI = %v, want %v", got, tt.want)
			}
			result := AnalyzeConcentration(shares, nil)
			if result.RiskLevel != tt.level {
				t.Errorf("riskLevel = %q, want %q", result.RiskLevel, tt.level)
			}
		})
	}
}

func TestAnalyzeConcentrationRecommendsTopComposites(t *testing.T) {
	candidates := []*domain.CompositeScore{
		{Locator: "vietnam", Overall: 72},
		{Locator: "poland", Overall: 78},
		{Locator: "mexico", Overall: 61},
		{Locator: "morocco", Overall: 55},
	}
	result := AnalyzeConcentration([]domain.MarketShare{{Market: "US", Share: 90}, {Market: "CA", Share: 10}}, candidates)
	if len(result.RecommendedMarkets) != 3 {
		t.Fatalf("recommended %d markets, want 3", len(result.RecommendedMarkets))
	}
	if !strings.HasPrefix(result.RecommendedMarkets[0], "poland") {
		t.Errorf("top recommendation = %q, want poland first", result.RecommendedMarkets[0])
	}
	if !strings.Contains(result.RecommendedMarkets[0], "Accelerated Entry") {
		t.Errorf("composite above 70 should recommend accelerated entry: %q", result.RecommendedMarkets[0])
	}
}

func TestEthicsSanctionsBlock(t *testing.T) {
	profile := &domain.RequestProfile{
		OrganizationName: "Acme Holdings",
		Country:          "Iran",
		Industry:         []string{"Technology"},
	}
	result := RunEthicalSafeguards(profile, balancedComposite())
	if result.Status != domain.EthicsBlock {
		t.Fatalf("status = %q, want BLOCK", result.Status)
	}
	if result.Score != 0 {
		t.Errorf("score = %v, want 0 on block", result.Score)
	}
	if len(result.Mitigation) == 0 {
		t.Error("blocked result must carry mitigation steps")
	}
}

func TestEthicsSanctionsMatchInProblemStatement(t *testing.T) {
	profile := &domain.RequestProfile{
		OrganizationName: "Acme Holdings",
		Country:          "Turkey",
		ProblemStatement: "Evaluate re-export corridors through Belarus for heavy machinery.",
		Industry:         []string{"Logistics"},
	}
	result := RunEthicalSafeguards(profile, balancedComposite())
	if result.Status != domain.EthicsBlock {
		t.Errorf("sanctions keyword in problem statement should block, got %q", result.Status)
	}
}

func TestEthicsCautionDeductions(t *testing.T) {
	profile := &domain.RequestProfile{
		OrganizationName: "Vast Extractives Ltd",
		Country:          "Chile",
		Industry:         []string{"Mining"},
	}
	composite := balancedComposite()
	composite.Components.PoliticalStability = 38 // -15
	composite.Components.Regulatory = 40        // -10
	result := RunEthicalSafeguards(profile, composite)
	if result.Status != domain.EthicsCaution {
		t.Fatalf("status = %q, want CAUTION", result.Status)
	}
	// 100 - 20 (high-risk industry) - 15 (stability) - 10 (regulatory) - 5 (ESG)
	if result.Score != 50 {
		t.Errorf("score = %v, want 50", result.Score)
	}
}

func TestEthicsPass(t *testing.T) {
	profile := &domain.RequestProfile{
		OrganizationName: "Nordwind Retail Group",
		Country:          "Denmark",
		Industry:         []string{"Retail"},
	}
	composite := balancedComposite()
	composite.Components.PoliticalStability = 80
	result := RunEthicalSafeguards(profile, composite)
	if result.Status != domain.EthicsPass {
		t.Fatalf("status = %q, want PASS: %+v", result.Status, result.Flags)
	}
	if result.Score != 100 {
		t.Errorf("score = %v, want 100", result.Score)
	}
}

func TestSPIInteractionPenalty(t *testing.T) {
	// all four compounding conditions firing caps the reduction at 25%
	if got := interactionPenalty(50, 50, 40, 50, 45, 50); got != 0.75 {
		t.Errorf("penalty multiplier = %v, want 0.75", got)
	}
	// healthy inputs leave the score untouched
	if got := interactionPenalty(80, 80, 80, 80, 80, 80); got != 1 {
		t.Errorf("penalty multiplier = %v, want 1", got)
	}
}

func TestSPIDeterministicAndBounded(t *testing.T) {
	profile := &domain.RequestProfile{
		ID:               "req-1",
		OrganizationName: "Meridian Partners",
		Country:          "Vietnam",
		Region:           "Asia-Pacific",
		Industry:         []string{"Technology"},
		StrategicIntent:  []string{"market-entry"},
		ProblemStatement: "Assess a greenfield data platform investment in Vietnam.",
		BudgetCapUSD:     25_000_000,
	}
	composite := balancedComposite()
	ethics := RunEthicalSafeguards(profile, composite)

	a := CalculateSPI(profile, composite, ethics, nil)
	b := CalculateSPI(profile, composite, ethics, nil)
	if a.Score != b.Score || a.CILow != b.CILow || a.CIHigh != b.CIHigh {
		t.Errorf("SPI not deterministic: %+v vs %+v", a, b)
	}
	if a.Score < 0 || a.Score > 100 {
		t.Errorf("SPI = %v, out of range", a.Score)
	}
	// full disclosure collapses the confidence interval to the point score
	if a.Transparency != 100 {
		t.Fatalf("transparency = %v, want 100", a.Transparency)
	}
	if a.CILow != a.Score || a.CIHigh != a.Score {
		t.Errorf("CI [%v, %v] should collapse at full transparency", a.CILow, a.CIHigh)
	}
}

func TestSPIConfidenceIntervalWidensWithOpacity(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam", Region: "Asia"}
	composite := balancedComposite()
	ethics := RunEthicalSafeguards(profile, composite)
	result := CalculateSPI(profile, composite, ethics, nil)
	if result.Transparency != 0 {
		t.Fatalf("transparency = %v, want 0 for an empty profile", result.Transparency)
	}
	if result.CIHigh-result.CILow != 24 {
		t.Errorf("CI width = %v, want 24 (half-width 12) at zero transparency", result.CIHigh-result.CILow)
	}
}

func TestSPIHistoricalSuccessBonus(t *testing.T) {
	profile := &domain.RequestProfile{
		OrganizationName: "Meridian Partners",
		Country:          "Vietnam",
		Region:           "Asia-Pacific",
		Industry:         []string{"Technology"},
	}
	composite := balancedComposite()
	ethics := RunEthicalSafeguards(profile, composite)

	plain := CalculateSPI(profile, composite, ethics, nil)
	withHistory := CalculateSPI(profile, composite, ethics, []domain.PatternMatch{
		{Pattern: domain.HistoricalPattern{ID: "p1", Era: "1990s", Outcome: "success"}, Applicability: 0.8},
	})
	if withHistory.HistoricalBonus != 5 {
		t.Errorf("historical bonus = %v, want 5", withHistory.HistoricalBonus)
	}
	if withHistory.Score < plain.Score {
		t.Errorf("success precedent should not lower SPI: %v < %v", withHistory.Score, plain.Score)
	}
}

func TestSPIWeightsNormalized(t *testing.T) {
	for arch := range archetypeSPIOverrides {
		profile := &domain.RequestProfile{Industry: []string{arch}, Country: "Vietnam"}
		w := contextualSPIWeights(profile, balancedComposite())
		sum := w.ER + w.SP + w.PS + w.PR + w.EA + w.CA + w.UT
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("archetype %s weights sum to %v, want 1", arch, sum)
		}
	}
}

func TestIVASArchetypeBands(t *testing.T) {
	composite := balancedComposite()
	tests := []struct {
		industry string
		minLo    float64
		maxHi    float64
	}{
		{"Hospital Network", 10, 54},
		{"Software Platform", 5, 28},
		{"Retail", 6, 36},
	}
	for _, tt := range tests {
		profile := &domain.RequestProfile{Country: "Vietnam", Industry: []string{tt.industry}}
		result := ComputeIVAS(profile, composite)
		if result.MonthsP10 < tt.minLo || result.MonthsP90 > tt.maxHi {
			t.Errorf("%s: months [%v, %v] outside band [%v, %v]",
				tt.industry, result.MonthsP10, result.MonthsP90, tt.minLo, tt.maxHi)
		}
		if result.Score < 25 || result.Score > 99 {
			t.Errorf("%s: score %v outside 25..99", tt.industry, result.Score)
		}
	}
}

func TestIVASHealthSlowerThanTechnology(t *testing.T) {
	composite := balancedComposite()
	health := ComputeIVAS(&domain.RequestProfile{Industry: []string{"Pharma"}}, composite)
	tech := ComputeIVAS(&domain.RequestProfile{Industry: []string{"Software"}}, composite)
	if health.ActivationMonths <= tech.ActivationMonths {
		t.Errorf("health activation (%v) should exceed technology (%v)", health.ActivationMonths, tech.ActivationMonths)
	}
}

func TestSCFPositiveForecast(t *testing.T) {
	profile := &domain.RequestProfile{Industry: []string{"Manufacturing"}}
	result := ComputeSCF(profile, balancedComposite(), SCFBasis(450_000_000_000, 97_000_000))
	if result.TotalImpactUSD <= 0 {
		t.Fatalf("total impact = %v, want positive", result.TotalImpactUSD)
	}
	if result.DirectJobs <= 0 || result.IndirectJobs <= result.DirectJobs {
		t.Errorf("jobs direct=%d indirect=%d, want indirect > direct > 0", result.DirectJobs, result.IndirectJobs)
	}
	if result.ImpactP10 >= result.TotalImpactUSD || result.ImpactP90 <= result.TotalImpactUSD {
		t.Errorf("percentiles should straddle the central estimate: p10=%v p50=%v p90=%v",
			result.ImpactP10, result.TotalImpactUSD, result.ImpactP90)
	}
}

func TestIVASPercentilesReproducibleAndOrdered(t *testing.T) {
	composite := balancedComposite()
	profile := &domain.RequestProfile{Country: "Vietnam", Industry: []string{"Software"}}

	first := ComputeIVAS(profile, composite)
	second := ComputeIVAS(profile, composite)
	if first.MonthsP10 != second.MonthsP10 || first.MonthsP90 != second.MonthsP90 {
		t.Fatalf("percentiles not reproducible: [%v,%v] vs [%v,%v]",
			first.MonthsP10, first.MonthsP90, second.MonthsP10, second.MonthsP90)
	}
	if first.MonthsP10 > first.MonthsP50 || first.MonthsP50 > first.MonthsP90 {
		t.Errorf("percentiles out of order: p10=%v p50=%v p90=%v",
			first.MonthsP10, first.MonthsP50, first.MonthsP90)
	}
}

func TestSCFBandsVaryByLocator(t *testing.T) {
	composite := balancedComposite()
	basis := SCFBasis(450_000_000_000, 97_000_000)
	countries := []string{"Vietnam", "Poland", "Chile", "Kenya", "Morocco"}

	ratios := make(map[float64]bool)
	for _, country := range countries {
		profile := &domain.RequestProfile{Country: country, Industry: []string{"Manufacturing"}}
		r := ComputeSCF(profile, composite, basis)
		if r.ImpactP10 >= r.TotalImpactUSD || r.ImpactP90 <= r.TotalImpactUSD {
			t.Fatalf("%s: percentiles do not straddle the central estimate", country)
		}
		ratios[r.ImpactP10/r.TotalImpactUSD] = true
	}
	if len(ratios) < 2 {
		t.Error("downside band identical across regions; locator seeding not applied")
	}
}

func TestSCFFallbackBasis(t *testing.T) {
	basis := SCFBasis(0, 0)
	if basis.GDPUSD != 80_000_000_000 {
		t.Errorf("fallback GDP = %v", basis.GDPUSD)
	}
	if basis.GDPPerCapita <= 0 {
		t.Errorf("fallback per-capita = %v", basis.GDPPerCapita)
	}
}

func TestSEAMGapsTrackWeakComponents(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam", Industry: []string{"Logistics"}}
	result := GenerateSEAM(profile, fragileComposite())
	if len(result.Gaps) == 0 {
		t.Fatal("weak composite should surface ecosystem gaps")
	}
	found := false
	for _, g := range result.Gaps {
		if strings.Contains(g, "Regulatory harmonization") {
			found = true
		}
	}
	if !found {
		t.Errorf("regulatory gap missing from %v", result.Gaps)
	}
	if len(result.Partners) != 4 {
		t.Errorf("partner lattice has %d entries, want 4", len(result.Partners))
	}
}

func TestSEAMDeterministic(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam", Industry: []string{"Logistics"}}
	composite := balancedComposite()
	a := GenerateSEAM(profile, composite)
	b := GenerateSEAM(profile, composite)
	for i := range a.Partners {
		if a.Partners[i].Synergy != b.Partners[i].Synergy {
			t.Errorf("partner %d synergy diverged: %v vs %v", i, a.Partners[i].Synergy, b.Partners[i].Synergy)
		}
	}
}

func TestPRIBands(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam"}

	strong := balancedComposite()
	strong.Components.PoliticalStability = 85
	strong.Components.Regulatory = 82
	strong.Components.RiskFactors = 15
	strong.Components.DigitalReadiness = 80
	if got := CalculatePRI(profile, strong); got.RiskBand != "Low" {
		t.Errorf("strong composite band = %q, want Low (overall %v)", got.RiskBand, got.Overall)
	}

	weak := fragileComposite()
	weak.Components.DigitalReadiness = 30
	if got := CalculatePRI(profile, weak); got.RiskBand != "High" {
		t.Errorf("fragile composite band = %q, want High (overall %v)", got.RiskBand, got.Overall)
	}
}

func TestPRILowToleranceCommentary(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam", RiskTolerance: "low"}
	result := CalculatePRI(profile, fragileComposite())
	found := false
	for _, line := range result.Commentary {
		if strings.Contains(line, "risk tolerance is low") {
			found = true
		}
	}
	if !found {
		t.Errorf("low tolerance commentary missing: %v", result.Commentary)
	}
}

func TestRROIMirrorsComposite(t *testing.T) {
	profile := &domain.RequestProfile{Country: "Vietnam", Region: "Asia"}
	composite := balancedComposite()
	result := GenerateRROI(profile, composite)
	if result.OverallScore != composite.Overall {
		t.Errorf("RROI overall = %v, want composite overall %v", result.OverallScore, composite.Overall)
	}
	if len(result.Components) != 4 {
		t.Fatalf("RROI has %d components, want 4", len(result.Components))
	}
	if result.Components[0].Score != 70 {
		t.Errorf("infrastructure pillar = %v, want 70", result.Components[0].Score)
	}
}
