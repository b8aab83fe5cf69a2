package domain

import "time"

// IndexComponent is one labelled contribution inside an index breakdown.
type IndexComponent struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight,omitempty"`
}

// SPIResult is the Symbiotic Partnership Index for a request.
type SPIResult struct {
	Score              float64          `json:"score"`
	CILow              float64          `json:"ciLow"`
	CIHigh             float64          `json:"ciHigh"`
	Transparency       float64          `json:"transparency"`
	Archetype          string           `json:"archetype"`
	Breakdown          []IndexComponent `json:"breakdown"`
	InteractionPenalty float64          `json:"interactionPenalty"`
	HistoricalBonus    float64          `json:"historicalBonus,omitempty"`
	DataSources        []string         `json:"dataSources,omitempty"`
}

// RROIComponent is one pillar of the Regional Return on Investment index.
type RROIComponent struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Analysis string  `json:"analysis"`
}

// RROIIndex summarizes regional return attractiveness.
type RROIIndex struct {
	OverallScore float64         `json:"overallScore"`
	Components   []RROIComponent `json:"components"`
	Summary      string          `json:"summary"`
}

// SEAMPartner is one recommended ecosystem participant.
type SEAMPartner struct {
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Synergy float64 `json:"synergy"`
}

// SEAMBlueprint is the Symbiotic Ecosystem Activation Map.
type SEAMBlueprint struct {
	Score           float64       `json:"score"`
	EcosystemHealth string        `json:"ecosystemHealth"`
	Partners        []SEAMPartner `json:"partners"`
	Gaps            []string      `json:"gaps"`
}

// IVASResult is the Investment Velocity & Activation Score: how fast a
// commitment converts into operational activity in the target region.
type IVASResult struct {
	Score            float64 `json:"score"`
	ActivationMonths float64 `json:"activationMonths"`
	MonthsP10        float64 `json:"monthsP10"`
	MonthsP50        float64 `json:"monthsP50"`
	MonthsP90        float64 `json:"monthsP90"`
	FrictionDrivers  []IndexComponent `json:"frictionDrivers"`
	Narrative        string  `json:"narrative"`
}

// SCFResult is the Shared-Value Creation Forecast: projected economic
// impact and employment from the proposed engagement.
type SCFResult struct {
	TotalImpactUSD      float64 `json:"totalImpactUsd"`
	AnnualizedImpactUSD float64 `json:"annualizedImpactUsd"`
	ImpactP10           float64 `json:"impactP10"`
	ImpactP90           float64 `json:"impactP90"`
	DirectJobs          int     `json:"directJobs"`
	IndirectJobs        int     `json:"indirectJobs"`
	CaptureRatePct      float64 `json:"captureRatePct"`
	Narrative           string  `json:"narrative"`
}

// MarketShare is one market's share of an exposure set, in percent.
type MarketShare struct {
	Market string  `json:"market"`
	Share  float64 `json:"share"`
}

// DiversificationAnalysis reports concentration risk over market shares
// using a Herfindahl-Hirschman Index.
type DiversificationAnalysis struct {
	HHI                float64       `json:"hhi"`
	RiskLevel          string        `json:"riskLevel"` // High Concentration | Moderate Concentration | Well Diversified
	Shares             []MarketShare `json:"shares"`
	Analysis           string        `json:"analysis"`
	RecommendedMarkets []string      `json:"recommendedMarkets,omitempty"`
}

// Ethics screening statuses.
const (
	EthicsPass    = "PASS"
	EthicsCaution = "CAUTION"
	EthicsBlock   = "BLOCK"
)

// EthicsFlag is one named finding from the ethics safeguard.
type EthicsFlag struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// EthicsResult is the output of the ethics safeguard screen.
type EthicsResult struct {
	Status     string       `json:"status"`
	Score      float64      `json:"score"`
	Flags      []EthicsFlag `json:"flags"`
	Mitigation []string     `json:"mitigation"`
	ScreenedAt time.Time    `json:"screenedAt"`
}

// PRIResult is the Political Risk Index derived from composite
// components.
type PRIResult struct {
	Overall    float64          `json:"overall"`
	RiskBand   string           `json:"riskBand"` // Low | Medium | High
	Components []IndexComponent `json:"components"`
	Commentary []string         `json:"commentary"`
}
