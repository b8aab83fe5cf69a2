package indices

import (
	"fmt"
	"math"
	"sort"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// HHI concentration thresholds follow DOJ merger guidelines. Both are
// strict greater-than: an HHI of exactly 2500 is Moderate.
const (
	hhiHighThreshold     = 2500
	hhiModerateThreshold = 1500
)

// CalculateHHI sums squared market shares (shares in percent).
func CalculateHHI(shares []domain.MarketShare) float64 {
	total := 0.0
	for _, s := range shares {
		total += s.Share * s.Share
	}
	return total
}

// AnalyzeConcentration classifies portfolio concentration risk and
// recommends alternative markets ranked by composite score.
func AnalyzeConcentration(shares []domain.MarketShare, candidates []*domain.CompositeScore) *domain.DiversificationAnalysis {
	hhi := CalculateHHI(shares)

	riskLevel := "Well Diversified"
	analysis := "Portfolio is well-balanced."
	if hhi > hhiHighThreshold {
		riskLevel = "High Concentration"
		analysis = "Significant dependency on primary market detected. Recommendation: immediate diversification."
	} else if hhi > hhiModerateThreshold {
		riskLevel = "Moderate Concentration"
		analysis = "Portfolio shows moderate concentration. Monitor key market volatility."
	}

	ranked := append([]*domain.CompositeScore{}, candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Overall > ranked[j].Overall
	})
	var recommended []string
	for i, cs := range ranked {
		if i == 3 {
			break
		}
		strategy := "Phased Approach"
		if cs.Overall > 70 {
			strategy = "Accelerated Entry"
		}
		recommended = append(recommended, fmt.Sprintf("%s (composite %d/100, %s)", cs.Locator, int(math.Round(cs.Overall)), strategy))
	}

	return &domain.DiversificationAnalysis{
		HHI:                hhi,
		RiskLevel:          riskLevel,
		Shares:             shares,
		Analysis:           analysis,
		RecommendedMarkets: recommended,
	}
}
