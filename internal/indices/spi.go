package indices

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/variation"
)

// spiWeights are the seven SPI dimension weights: economic readiness,
// symbiotic potential, political stability, partner reliability,
// ethical alignment, capture ability, and user transparency.
type spiWeights struct {
	ER, SP, PS, PR, EA, CA, UT float64
}

var baseSPIWeights = spiWeights{ER: 0.25, SP: 0.20, PS: 0.15, PR: 0.15, EA: 0.10, CA: 0.10, UT: 0.05}

// archetypeSPIOverrides replaces individual base weights per sector
// before normalization.
var archetypeSPIOverrides = map[string]map[string]float64{
	ArchetypeInfrastructure: {"ER": 0.30, "PS": 0.18, "PR": 0.18, "EA": 0.07},
	ArchetypeFinance:        {"SP": 0.24, "EA": 0.14, "UT": 0.08},
	ArchetypeTechnology:     {"SP": 0.24, "CA": 0.16, "ER": 0.22},
	ArchetypeHealth:         {"EA": 0.16, "PS": 0.18, "PR": 0.17},
	ArchetypeEnergy:         {"ER": 0.28, "PS": 0.18, "EA": 0.12},
	ArchetypeGovernment:     {"PS": 0.22, "EA": 0.15, "UT": 0.08},
	ArchetypeAgriculture:    {"ER": 0.28, "CA": 0.14, "PS": 0.17},
	ArchetypeClimate:        {"ER": 0.26, "EA": 0.16, "CA": 0.14},
	ArchetypeIndustrial:     {"ER": 0.30, "PR": 0.18, "CA": 0.12},
}

func (w spiWeights) apply(overrides map[string]float64) spiWeights {
	for key, v := range map[string]*float64{
		"ER": &w.ER, "SP": &w.SP, "PS": &w.PS, "PR": &w.PR,
		"EA": &w.EA, "CA": &w.CA, "UT": &w.UT,
	} {
		if o, ok := overrides[key]; ok {
			*v = o
		}
	}
	return w
}

func (w spiWeights) normalize() spiWeights {
	total := w.ER + w.SP + w.PS + w.PR + w.EA + w.CA + w.UT
	if total == 0 {
		return baseSPIWeights
	}
	w.ER /= total
	w.SP /= total
	w.PS /= total
	w.PR /= total
	w.EA /= total
	w.CA /= total
	w.UT /= total
	return w
}

// contextualSPIWeights adjusts the archetype weights for the profile's
// risk posture and the region's observed instability, then normalizes
// back to sum 1.
func contextualSPIWeights(profile *domain.RequestProfile, composite *domain.CompositeScore) spiWeights {
	archetype := ResolveArchetype(profile.PrimaryIndustry())
	w := baseSPIWeights
	if overrides, ok := archetypeSPIOverrides[archetype]; ok {
		w = w.apply(overrides)
	}

	switch profile.RiskTolerance {
	case "low", "very_low":
		w.PS += 0.03
		w.EA += 0.03
	case "high", "aggressive":
		w.ER += 0.02
		w.CA += 0.02
	}

	if composite.Components.PoliticalStability < 50 {
		w.PS += 0.04
		w.PR += 0.01
	}
	if composite.Components.RiskFactors > 60 {
		w.EA += 0.03
	}
	for _, tag := range profile.IntentTags {
		if tag == "sanctions" {
			w.EA += 0.02
			break
		}
	}

	return w.normalize()
}

// interactionPenalty returns a multiplier below 1 when multiple weak
// dimensions compound. Capped at a 25% reduction.
func interactionPenalty(er, sp, ps, pr, ea, ca float64) float64 {
	penalty := 0.0
	if ps < 50 && pr < 60 {
		penalty += 0.08
	}
	if ea < 55 && sp < 60 {
		penalty += 0.05
	}
	if er < 55 && ca < 55 {
		penalty += 0.04
	}
	if ps < 45 && ea < 50 {
		penalty += 0.05
	}
	return variation.Clamp(1-math.Min(penalty, 0.25), 0.7, 1)
}

// transparencyScore rewards complete disclosure in twenty-point steps.
func transparencyScore(profile *domain.RequestProfile) float64 {
	score := 0.0
	if profile.OrganizationName != "" {
		score += 20
	}
	if len(profile.StrategicIntent) > 0 {
		score += 20
	}
	if len(profile.ProblemStatement) > 20 {
		score += 20
	}
	if len(profile.Industry) > 0 {
		score += 20
	}
	if profile.BudgetCapUSD > 0 {
		score += 20
	}
	return score
}

// regionRiskScore is a simplified country risk lookup. In production
// this would query a dedicated risk feed.
var countryRisk = map[string]float64{
	"Singapore":      95,
	"United Kingdom": 88,
	"United States":  90,
	"Germany":        92,
	"Vietnam":        65,
	"Indonesia":      60,
	"Brazil":         55,
	"Nigeria":        40,
}

func regionRiskScore(region, country string) float64 {
	if v, ok := countryRisk[country]; ok {
		return v
	}
	if region == "Asia-Pacific" {
		return 70
	}
	return 60
}

// CalculateSPI computes the Symbiotic Partnership Index from the
// composite, the ethics screen, and any matched historical patterns.
func CalculateSPI(profile *domain.RequestProfile, composite *domain.CompositeScore, ethics *domain.EthicsResult, patterns []domain.PatternMatch) *domain.SPIResult {
	c := composite.Components

	historicalBonus := 0.0
	for _, m := range patterns {
		if m.Pattern.Outcome == "success" {
			historicalBonus = 5
			break
		}
	}

	er := math.Round(c.Infrastructure*0.35 + c.Talent*0.35 + c.MarketAccess*0.2 + c.CostEfficiency*0.1)

	hasTech := false
	for _, i := range profile.Industry {
		if i == "Technology" {
			hasTech = true
		}
	}
	regionNeedsTech := profile.Region == "Asia-Pacific" || profile.Region == "Middle East"
	symbioticSignal := (c.MarketAccess + c.Innovation + c.SupplyChain) / 3
	techLift := 0.0
	if hasTech && regionNeedsTech {
		techLift = 8
	}
	sp := variation.Clamp(math.Round(symbioticSignal+techLift+historicalBonus), 45, 99)

	ps := math.Round(0.7*c.PoliticalStability + 0.3*regionRiskScore(profile.Region, profile.Country))

	dueDiligenceBase := 65.0
	switch profile.DueDiligenceDepth {
	case "Deep":
		dueDiligenceBase = 95
	case "Standard":
		dueDiligenceBase = 80
	}
	reliabilitySignal := (c.Regulatory + c.SupplyChain) / 2
	pr := variation.Clamp(math.Round(0.5*dueDiligenceBase+0.5*reliabilitySignal), 45, 98)

	ea := ethics.Score

	frictionSignal := 100 - c.RiskFactors
	ca := variation.Clamp(math.Round(0.5*composite.Overall+0.5*frictionSignal+historicalBonus), 45, 98)

	ut := transparencyScore(profile)

	w := contextualSPIWeights(profile, composite)
	weighted := er*w.ER + sp*w.SP + ps*w.PS + pr*w.PR + ea*w.EA + ca*w.CA + ut*w.UT

	penalty := interactionPenalty(er, sp, ps, pr, ea, ca)
	raw := weighted * penalty

	ciDelta := 12 * (1 - ut/100)

	breakdown := []domain.IndexComponent{
		{Label: "Economic Readiness", Value: er, Weight: w.ER},
		{Label: "Symbiotic Fit", Value: sp, Weight: w.SP},
		{Label: "Political Stability", Value: ps, Weight: w.PS},
		{Label: "Partner Reliability", Value: pr, Weight: w.PR},
		{Label: "Ethical Alignment", Value: ea, Weight: w.EA},
		{Label: "Activation Velocity", Value: ca, Weight: w.CA},
		{Label: "Transparency", Value: ut, Weight: w.UT},
		{Label: "Interaction Penalty", Value: math.Round(penalty * 100)},
	}
	if len(patterns) > 0 {
		top := patterns[0]
		breakdown = append(breakdown, domain.IndexComponent{
			Label: fmt.Sprintf("Historical Reference (%s)", top.Pattern.Era),
			Value: math.Round(top.Applicability * 100),
		})
	}

	return &domain.SPIResult{
		Score:              math.Round(raw),
		CILow:              math.Round(raw - ciDelta),
		CIHigh:             math.Round(raw + ciDelta),
		Transparency:       ut,
		Archetype:          ResolveArchetype(profile.PrimaryIndustry()),
		Breakdown:          breakdown,
		InteractionPenalty: penalty,
		HistoricalBonus:    historicalBonus,
		DataSources:        composite.DataSources,
	}
}
