package indices

import (
	"strings"
	"time"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// sanctionedJurisdictions mirrors the OFAC/UN/EU consolidated lists at
// the keyword level. A match anywhere in the country or problem
// statement is a hard block.
var sanctionedJurisdictions = []string{
	"North Korea", "DPRK", "Iran", "Syria", "Cuba", "Crimea",
	"Donetsk", "Luhansk", "Belarus", "Russia", "Myanmar", "Venezuela",
}

var highRiskIndustries = []string{"Defense", "Extraction", "Mining", "Gambling", "Weapons", "Tobacco", "Adult Entertainment"}

var esgIndustries = []string{"Oil", "Gas", "Coal", "Extraction", "Mining"}

// RunEthicalSafeguards applies the compliance rule cascade: a sanctions
// match blocks outright with score 0; the remaining rules deduct
// points and floor the status at CAUTION.
func RunEthicalSafeguards(profile *domain.RequestProfile, composite *domain.CompositeScore) *domain.EthicsResult {
	flags := []domain.EthicsFlag{}
	score := 100.0
	status := domain.EthicsPass

	caution := func() {
		if status != domain.EthicsBlock {
			status = domain.EthicsCaution
		}
	}

	country := strings.ToLower(profile.Country)
	problem := strings.ToLower(profile.ProblemStatement)
	for _, j := range sanctionedJurisdictions {
		needle := strings.ToLower(j)
		if strings.Contains(country, needle) || strings.Contains(problem, needle) {
			flags = append(flags, domain.EthicsFlag{
				Name:   "Sanctions Match",
				Status: domain.EthicsBlock,
				Reason: "Jurisdiction appears on OFAC/UN/EU consolidated sanctions list. Transaction prohibited under international law.",
			})
			score = 0
			status = domain.EthicsBlock
			break
		}
	}

	if matchesAny(profile.Industry, highRiskIndustries) {
		flags = append(flags, domain.EthicsFlag{
			Name:   "High-Risk Industry",
			Status: domain.EthicsCaution,
			Reason: "Sector classified as high-risk under FATF AML/CFT guidance. Enhanced due diligence required.",
		})
		score -= 20
		caution()
	}

	stability := composite.Components.PoliticalStability
	if stability < 40 {
		flags = append(flags, domain.EthicsFlag{
			Name:   "Corruption Risk Elevated",
			Status: domain.EthicsCaution,
			Reason: "Political stability score indicates elevated corruption and governance risk.",
		})
		score -= 15
		caution()
	} else if stability < 55 {
		flags = append(flags, domain.EthicsFlag{
			Name:   "Governance Monitoring Required",
			Status: domain.EthicsCaution,
			Reason: "Moderate governance score, ongoing monitoring recommended.",
		})
		score -= 8
		caution()
	}

	if composite.Components.Regulatory < 45 {
		flags = append(flags, domain.EthicsFlag{
			Name:   "Regulatory Opacity",
			Status: domain.EthicsCaution,
			Reason: "Low regulatory transparency score may complicate compliance.",
		})
		score -= 10
		caution()
	}

	if len(profile.OrganizationName) < 3 {
		flags = append(flags, domain.EthicsFlag{
			Name:   "Insufficient Entity Identification",
			Status: domain.EthicsCaution,
			Reason: "Entity name not provided or insufficient for KYC/AML screening.",
		})
		score -= 10
		caution()
	}

	if matchesAny(profile.Industry, esgIndustries) {
		flags = append(flags, domain.EthicsFlag{
			Name:   "ESG Disclosure Required",
			Status: domain.EthicsCaution,
			Reason: "Sector has elevated environmental impact. ESG assessment and climate disclosure recommended.",
		})
		score -= 5
		caution()
	}

	var mitigation []string
	switch status {
	case domain.EthicsBlock:
		mitigation = []string{
			"Immediate halt: transaction cannot proceed under current sanctions regulations.",
			"Escalate to General Counsel for sanctions validation.",
			"If a legitimate purpose exists, consider an OFAC specific license application.",
		}
	case domain.EthicsCaution:
		mitigation = []string{
			"Trigger enhanced due diligence on local partners and beneficial owners.",
			"Require ISO 37001 anti-bribery certification from counterparties.",
			"Implement continuous sanctions screening and adverse media monitoring.",
		}
		for _, f := range flags {
			if strings.Contains(f.Name, "ESG") {
				mitigation = append(mitigation, "Commission an independent ESG impact assessment before proceeding.")
				break
			}
		}
	default:
		mitigation = []string{"Proceed with standard quarterly compliance reviews and annual audits."}
	}

	if score < 0 {
		score = 0
	}
	return &domain.EthicsResult{
		Status:     status,
		Score:      score,
		Flags:      flags,
		Mitigation: mitigation,
		ScreenedAt: time.Now().UTC(),
	}
}

func matchesAny(industries []string, needles []string) bool {
	for _, industry := range industries {
		low := strings.ToLower(industry)
		for _, n := range needles {
			if strings.Contains(low, strings.ToLower(n)) {
				return true
			}
		}
	}
	return false
}
