package indices

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/variation"
)

// CalculatePRI derives the Political Risk Index from the composite's
// governance-adjacent components.
func CalculatePRI(profile *domain.RequestProfile, composite *domain.CompositeScore) *domain.PRIResult {
	c := composite.Components
	political := c.PoliticalStability
	regulatory := c.Regulatory
	market := 100 - c.RiskFactors
	security := c.DigitalReadiness

	overall := variation.Clamp(
		math.Round(political*0.3+regulatory*0.25+market*0.25+security*0.2),
		0, 100)

	riskBand := "High"
	if overall >= 75 {
		riskBand = "Low"
	} else if overall >= 55 {
		riskBand = "Medium"
	}

	commentary := []string{
		fmt.Sprintf("Political stability indexed at %d/100", int(math.Round(political))),
		fmt.Sprintf("Regulatory readiness indexed at %d/100", int(math.Round(regulatory))),
		fmt.Sprintf("Market risk counterweight indexed at %d/100", int(math.Round(market))),
	}
	if profile.RiskTolerance == "low" && overall < 60 {
		commentary = append(commentary, "User risk tolerance is low, so additional governance safeguards are recommended.")
	}

	return &domain.PRIResult{
		Overall:  overall,
		RiskBand: riskBand,
		Components: []domain.IndexComponent{
			{Label: "Political", Value: math.Round(political), Weight: 0.30},
			{Label: "Regulatory", Value: math.Round(regulatory), Weight: 0.25},
			{Label: "Market", Value: math.Round(market), Weight: 0.25},
			{Label: "Security", Value: math.Round(security), Weight: 0.20},
		},
		Commentary: commentary,
	}
}
