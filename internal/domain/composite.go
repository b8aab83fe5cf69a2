package domain

import (
	"context"
	"time"
)

// MacroIndicators are the upstream macroeconomic inputs for one locator.
// Zero-valued fields are treated as missing and replaced with fallbacks
// by the composite scorer.
type MacroIndicators struct {
	GDPUSD          float64  `json:"gdpUsd"`
	Population      float64  `json:"population"`
	GDPGrowthPct    float64  `json:"gdpGrowthPct"`
	InflationPct    float64  `json:"inflationPct"`
	FDIInflowsUSD   float64  `json:"fdiInflowsUsd"`
	TradeBalanceUSD float64  `json:"tradeBalanceUsd"`
	EaseOfBusiness  *float64 `json:"easeOfBusiness,omitempty"`
	UnemploymentPct *float64 `json:"unemploymentPct,omitempty"`
	DataSources     []string `json:"dataSources,omitempty"`
}

// MacroSource supplies macro indicators for a locator. Implementations
// may return a nil result with a nil error when no data exists; the
// scorer then runs entirely on fallbacks.
type MacroSource interface {
	Macro(ctx context.Context, locator string) (*MacroIndicators, error)
}

// CompositeComponents are the twelve weighted sub-scores, each on a
// 0..100 scale after clamping.
type CompositeComponents struct {
	Infrastructure     float64 `json:"infrastructure"`
	Talent             float64 `json:"talent"`
	CostEfficiency     float64 `json:"costEfficiency"`
	MarketAccess       float64 `json:"marketAccess"`
	Regulatory         float64 `json:"regulatory"`
	PoliticalStability float64 `json:"politicalStability"`
	GrowthPotential    float64 `json:"growthPotential"`
	RiskFactors        float64 `json:"riskFactors"`
	DigitalReadiness   float64 `json:"digitalReadiness"`
	Sustainability     float64 `json:"sustainability"`
	Innovation         float64 `json:"innovation"`
	SupplyChain        float64 `json:"supplyChain"`
}

// CompositeScore is the regional composite for one locator.
type CompositeScore struct {
	Locator     string              `json:"locator"`
	Overall     float64             `json:"overall"`
	Components  CompositeComponents `json:"components"`
	Baseline    float64             `json:"baseline"`
	DataSources []string            `json:"dataSources"`
	ComputedAt  time.Time           `json:"computedAt"`
}
