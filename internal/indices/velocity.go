package indices

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/variation"
)

// frictionProfile encodes how hard and how slow sector activation is.
// Bands differ structurally by sector, not just in magnitude: health
// permits run years, technology runs months.
type frictionProfile struct {
	BaseMonths        float64
	MinMonths         float64
	MaxMonths         float64
	BasePermitMonths  float64
	MaxPermitMonths   float64
	PermitSensitivity float64
	Acceleration      float64
	ReadinessWeight   float64
	ComplianceSens    float64
	WRegulatory       float64
	WPermit           float64
	WPartner          float64
	WDigital          float64
}

var frictionProfiles = map[string]frictionProfile{
	ArchetypeInfrastructure: {22, 8, 48, 16, 36, 16, 18, 0.6, 0.8, 0.35, 0.3, 0.2, 0.15},
	ArchetypeFinance:        {14, 6, 30, 10, 24, 10, 22, 0.65, 0.9, 0.4, 0.2, 0.2, 0.2},
	ArchetypeTechnology:     {12, 5, 28, 8, 20, 8, 24, 0.7, 0.6, 0.25, 0.2, 0.25, 0.3},
	ArchetypeHealth:         {26, 10, 54, 20, 40, 18, 14, 0.55, 0.95, 0.4, 0.3, 0.15, 0.15},
	ArchetypeEnergy:         {24, 9, 50, 18, 38, 16, 16, 0.58, 0.85, 0.35, 0.3, 0.2, 0.15},
	ArchetypeGovernment:     {20, 8, 44, 18, 36, 14, 16, 0.6, 0.85, 0.38, 0.3, 0.17, 0.15},
	ArchetypeAgriculture:    {18, 7, 36, 12, 28, 12, 18, 0.6, 0.7, 0.3, 0.3, 0.25, 0.15},
	ArchetypeClimate:        {20, 8, 42, 14, 34, 14, 18, 0.62, 0.8, 0.32, 0.28, 0.2, 0.2},
	ArchetypeIndustrial:     {21, 8, 45, 15, 32, 15, 17, 0.6, 0.78, 0.33, 0.27, 0.23, 0.17},
	ArchetypeGeneral:        {18, 6, 36, 12, 30, 12, 18, 0.62, 0.75, 0.32, 0.28, 0.22, 0.18},
}

// captureProfile encodes how much of a market a successful entry
// captures and what that converts to in jobs.
type captureProfile struct {
	MarketSizeMultiplier float64
	BaseCapture          float64
	MinCapture           float64
	MaxCapture           float64
	Elasticity           float64
	HorizonYears         float64
	DiscountRate         float64
	JobMultiplier        float64
	LaborCostMultiplier  float64
	ReadinessFloor       float64
	ReadinessDivisor     float64
	MinJobCost           float64
}

var captureProfiles = map[string]captureProfile{
	ArchetypeInfrastructure: {0.11, 0.0035, 0.002, 0.012, 0.0005, 7, 0.07, 2.4, 1.9, 0.7, 135, 45000},
	ArchetypeFinance:        {0.09, 0.0045, 0.0025, 0.015, 0.0007, 5, 0.06, 1.8, 2.2, 0.75, 125, 60000},
	ArchetypeTechnology:     {0.1, 0.0055, 0.003, 0.018, 0.0009, 5, 0.065, 2.0, 1.8, 0.78, 120, 50000},
	ArchetypeHealth:         {0.12, 0.004, 0.002, 0.013, 0.0006, 8, 0.065, 2.6, 2.0, 0.72, 135, 55000},
	ArchetypeEnergy:         {0.13, 0.003, 0.0015, 0.01, 0.0005, 9, 0.075, 2.1, 2.1, 0.7, 140, 60000},
	ArchetypeGovernment:     {0.1, 0.0035, 0.002, 0.011, 0.0005, 6, 0.065, 2.3, 2.0, 0.72, 135, 52000},
	ArchetypeAgriculture:    {0.08, 0.0035, 0.002, 0.011, 0.0006, 6, 0.065, 2.8, 1.5, 0.68, 140, 35000},
	ArchetypeClimate:        {0.11, 0.004, 0.002, 0.013, 0.0006, 7, 0.07, 2.5, 1.8, 0.72, 130, 42000},
	ArchetypeIndustrial:     {0.12, 0.0038, 0.002, 0.012, 0.0006, 7, 0.07, 2.2, 1.9, 0.72, 135, 48000},
	ArchetypeGeneral:        {0.1, 0.0038, 0.002, 0.012, 0.0006, 6, 0.068, 2.2, 1.9, 0.72, 135, 45000},
}

// macroInputs the forecast needs beyond the component scores.
type macroBasis struct {
	GDPUSD       float64
	GDPPerCapita float64
}

// ComputeIVAS derives the activation velocity score and timeline
// percentiles for the resolved sector archetype.
func ComputeIVAS(profile *domain.RequestProfile, composite *domain.CompositeScore) *domain.IVASResult {
	archetype := ResolveArchetype(profile.PrimaryIndustry())
	fp, ok := frictionProfiles[archetype]
	if !ok {
		fp = frictionProfiles[ArchetypeGeneral]
	}
	c := composite.Components
	readiness := composite.Overall

	regulatoryFriction := variation.Clamp((100-c.Regulatory)/120+50.0/180, 0.1, 0.85)
	permitFriction := variation.Clamp(fp.BasePermitMonths/fp.MaxPermitMonths, 0.1, 0.9)
	partnerSignal := variation.Clamp(
		(c.MarketAccess*0.4+c.SupplyChain*0.25+c.Talent*0.2+70)/145,
		0.25, 0.95)
	digitalDrag := 1 - c.DigitalReadiness/100

	friction := variation.Clamp(
		regulatoryFriction*fp.WRegulatory+
			permitFriction*fp.WPermit+
			(1-partnerSignal)*fp.WPartner+
			digitalDrag*fp.WDigital,
		0.12, 0.9)

	complianceDrag := variation.Clamp(regulatoryFriction*fp.ComplianceSens, 0.05, 0.6)

	score := variation.Clamp(
		math.Round(readiness*fp.ReadinessWeight+partnerSignal*45-friction*35),
		25, 99)

	baseMonths := variation.Clamp(
		fp.BaseMonths+permitFriction*fp.PermitSensitivity+complianceDrag*12-(readiness/120)*fp.Acceleration,
		fp.MinMonths, fp.MaxMonths)

	// Percentile bands carry locator-seeded spread so two regions with
	// identical components still show distinct timelines.
	locator := profile.Locator()
	p50 := math.Round(baseMonths)
	p10 := math.Max(fp.MinMonths, math.Round(baseMonths*variation.Scaled(locator+"-ivas-p10", 0.8, 0.9)))
	p90 := math.Min(fp.MaxMonths, math.Round(baseMonths*variation.Scaled(locator+"-ivas-p90", 1.2, 1.4)))

	frictionLabel := "Low"
	if friction > 0.55 {
		frictionLabel = "High"
	} else if friction > 0.35 {
		frictionLabel = "Medium"
	}
	opportunityLabel := "Emerging"
	if partnerSignal > 0.75 {
		opportunityLabel = "High"
	} else if partnerSignal > 0.55 {
		opportunityLabel = "Medium"
	}
	complianceLabel := "Controlled"
	if complianceDrag > 0.35 {
		complianceLabel = "Elevated"
	} else if complianceDrag > 0.2 {
		complianceLabel = "Managed"
	}

	return &domain.IVASResult{
		Score:            score,
		ActivationMonths: p50,
		MonthsP10:        p10,
		MonthsP50:        p50,
		MonthsP90:        p90,
		FrictionDrivers: []domain.IndexComponent{
			{Label: "Activation friction: " + frictionLabel, Value: math.Round(friction * 100)},
			{Label: "Opportunity quantum: " + opportunityLabel, Value: math.Round(partnerSignal * 100)},
			{Label: "Compliance friction: " + complianceLabel, Value: math.Round(complianceDrag * 100)},
		},
		Narrative: fmt.Sprintf("P50 activation in %.0f months (P10 %.0f, P90 %.0f) for the %s archetype.", p50, p10, p90, archetype),
	}
}

// ComputeSCF derives the shared-value creation forecast: discounted
// economic impact and jobs over the sector horizon.
func ComputeSCF(profile *domain.RequestProfile, composite *domain.CompositeScore, basis macroBasis) *domain.SCFResult {
	archetype := ResolveArchetype(profile.PrimaryIndustry())
	cp, ok := captureProfiles[archetype]
	if !ok {
		cp = captureProfiles[ArchetypeGeneral]
	}
	c := composite.Components

	marketSize := basis.GDPUSD * cp.MarketSizeMultiplier
	captureRate := variation.Clamp(
		cp.BaseCapture+(c.MarketAccess/100)*cp.Elasticity+c.Innovation/1200,
		cp.MinCapture, cp.MaxCapture)

	readinessMultiplier := cp.ReadinessFloor + composite.Overall/cp.ReadinessDivisor
	annualImpact := marketSize * captureRate * readinessMultiplier
	discountRate := cp.DiscountRate + math.Max(0, (100-c.PoliticalStability)/4000)
	annuityFactor := cp.HorizonYears
	if discountRate != 0 {
		annuityFactor = (1 - math.Pow(1+discountRate, -cp.HorizonYears)) / discountRate
	}
	totalImpact := annualImpact * annuityFactor

	jobCost := math.Max(basis.GDPPerCapita*cp.LaborCostMultiplier, cp.MinJobCost)
	directJobs := totalImpact / jobCost
	volatility := (100 - c.PoliticalStability) / 100
	locator := profile.Locator()

	return &domain.SCFResult{
		TotalImpactUSD:      totalImpact,
		AnnualizedImpactUSD: annualImpact,
		ImpactP10:           totalImpact * (1 - variation.Scaled(locator+"-scf-p10", 0.25, 0.35)*volatility),
		ImpactP90:           totalImpact * (1 + variation.Scaled(locator+"-scf-p90", 0.35, 0.45)*volatility),
		DirectJobs:          int(math.Round(directJobs)),
		IndirectJobs:        int(math.Round(directJobs * cp.JobMultiplier)),
		CaptureRatePct:      captureRate * 100,
		Narrative: fmt.Sprintf("Discounted %.0f-year impact for the %s archetype at a %.2f%% capture rate.",
			cp.HorizonYears, archetype, captureRate*100),
	}
}

// SCFBasis builds the macro basis for the forecast from the same
// fallback constants the composite scorer uses, so both engines agree
// on the underlying economy size.
func SCFBasis(gdpUSD, population float64) macroBasis {
	if gdpUSD <= 0 {
		gdpUSD = 80_000_000_000
	}
	if population <= 0 {
		population = 12_000_000
	}
	return macroBasis{GDPUSD: gdpUSD, GDPPerCapita: gdpUSD / population}
}
