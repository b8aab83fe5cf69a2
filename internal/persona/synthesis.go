package persona

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// Synthesize merges the five persona analyses into one verdict. Risk
// weighs criticals at 40 points and warnings at 15; opportunity weighs
// each positive at 20 over a 20-point floor.
func Synthesize(analyses []domain.PersonaAnalysis) *domain.DebateSynthesis {
	var criticals, warnings, positives int
	var keyInsights []domain.PersonaFinding
	var blindSpots []string

	byName := map[string]domain.PersonaAnalysis{}
	for _, a := range analyses {
		byName[a.Persona] = a
		for _, f := range a.Findings {
			switch f.Severity {
			case domain.SeverityCritical:
				criticals++
				keyInsights = append(keyInsights, f)
			case domain.SeverityWarning:
				warnings++
			case domain.SeverityPositive:
				positives++
				if len(keyInsights) < 6 {
					keyInsights = append(keyInsights, f)
				}
			}
		}
		if len(a.Findings) == 0 {
			blindSpots = append(blindSpots, fmt.Sprintf("The %s produced no findings; its dimension is unexamined.", a.Persona))
		}
	}

	riskRating := math.Min(100, float64(criticals)*40+float64(warnings)*15)
	opportunityRating := math.Min(100, float64(positives)*20+20)

	recommendation := domain.RecommendWithCaution
	switch {
	case criticals > 0:
		recommendation = domain.RecommendDoNotProceed
	case warnings >= 5:
		recommendation = domain.RecommendConcerns
	case warnings <= 1 && positives >= 3:
		recommendation = domain.RecommendProceed
	}

	var disagreements []string
	skeptic, advocate := byName[PersonaSkeptic], byName[PersonaAdvocate]
	if skeptic.Stance != "low" && advocate.Stance != "low" {
		disagreements = append(disagreements, fmt.Sprintf(
			"Risk vs opportunity balance: skeptic concern is %s while advocate sees %s opportunity.",
			skeptic.Stance, advocate.Stance))
	}
	if acct := byName[PersonaAccountant]; acct.Stance == "unviable" && advocate.Stance == "exceptional" {
		disagreements = append(disagreements, "Financial viability: accountant rates the plan unviable against an exceptional advocate case.")
	}
	if op := byName[PersonaOperator]; op.Stance == "unrealistic" && recommendation == domain.RecommendProceed {
		disagreements = append(disagreements, "Execution realism: operator rates implementation unrealistic despite a proceed signal.")
	}

	confidence := math.Max(30, math.Min(90,
		70-float64(criticals)*20+float64(positives)*5-float64(warnings)*3))

	consensus := domain.ConsensusBlock
	switch recommendation {
	case domain.RecommendProceed:
		consensus = domain.ConsensusGo
	case domain.RecommendWithCaution:
		consensus = domain.ConsensusHold
	}

	agreement := clamp(100-12*float64(len(disagreements)), 20, 95)

	return &domain.DebateSynthesis{
		RiskRating:        riskRating,
		OpportunityRating: opportunityRating,
		Recommendation:    recommendation,
		Confidence:        confidence,
		Consensus:         consensus,
		AgreementLevel:    agreement,
		Disagreements:     disagreements,
		KeyInsights:       keyInsights,
		BlindSpots:        blindSpots,
		Analyses:          analyses,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
