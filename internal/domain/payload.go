package domain

import "time"

// ReportMetadata identifies who asked and where the data came from.
type ReportMetadata struct {
	RequesterType string    `json:"requesterType"`
	Country       string    `json:"country"`
	Region        string    `json:"region"`
	GeneratedAt   time.Time `json:"generatedAt"`
	DataSources   []string  `json:"dataSources"`
}

// ProblemDefinition frames what the requester is trying to decide.
type ProblemDefinition struct {
	StatedProblem  string   `json:"statedProblem"`
	RefinedProblem string   `json:"refinedProblem,omitempty"`
	Objectives     []string `json:"objectives,omitempty"`
	Context        string   `json:"context,omitempty"`
}

// RegionalProfile is the descriptive section of the report.
type RegionalProfile struct {
	Demographics string `json:"demographics"`
	Economy      string `json:"economy"`
	Governance   string `json:"governance"`
}

// OperationalRisks are the exposures the control layer binds against.
type OperationalRisks struct {
	SupplyChainDependency float64 `json:"supplyChainDependency"`
	CurrencyRisk          float64 `json:"currencyRisk"`
}

// RiskSection aggregates exposure assessments.
type RiskSection struct {
	Operational        OperationalRisks `json:"operational"`
	Political          string           `json:"political,omitempty"`
	Regulatory         string           `json:"regulatory,omitempty"`
	RegulatoryFriction float64          `json:"regulatoryFriction"`
}

// EconomicSignals distills trade posture out of the domain indices so
// downstream consumers do not have to re-derive it from components.
type EconomicSignals struct {
	TradeExposure             float64  `json:"tradeExposure"`
	TariffSensitivity         float64  `json:"tariffSensitivity"`
	CostAdvantages            []string `json:"costAdvantages"`
	BottleneckReliefPotential float64  `json:"bottleneckReliefPotential"`
}

// OpportunityMatches pairs the region with the counterpart shapes the
// ecosystem blueprint surfaced.
type OpportunityMatches struct {
	Sectors         []string `json:"sectors"`
	PartnerTypes    []string `json:"partnerTypes"`
	RiskAdjustedROI float64  `json:"riskAdjustedROI"`
}

// ConfidenceScores are the report-level confidence readings.
type ConfidenceScores struct {
	Overall      float64 `json:"overall"`
	SymbioticFit float64 `json:"symbioticFit"`
	DataQuality  float64 `json:"dataQuality"`
}

// ComputedIntelligence carries every engine output bundled into the
// report.
type ComputedIntelligence struct {
	Composite       *CompositeScore          `json:"composite,omitempty"`
	SPI             *SPIResult               `json:"spi,omitempty"`
	RROI            *RROIIndex               `json:"rroi,omitempty"`
	SEAM            *SEAMBlueprint           `json:"seam,omitempty"`
	IVAS            *IVASResult              `json:"ivas,omitempty"`
	SCF             *SCFResult               `json:"scf,omitempty"`
	Diversification *DiversificationAnalysis `json:"diversification,omitempty"`
	Ethics          *EthicsResult            `json:"ethics,omitempty"`
	PRI             *PRIResult               `json:"pri,omitempty"`
	Personas        *DebateSynthesis         `json:"personas,omitempty"`
	Shield          *ShieldReport            `json:"shield,omitempty"`
	Motivation      *MotivationAnalysis      `json:"motivation,omitempty"`
	Adversarial     *AdversarialConfidence   `json:"adversarial,omitempty"`
	Counterfactual  *CounterfactualAnalysis  `json:"counterfactual,omitempty"`
	Screening       *ScreeningSummary        `json:"screening,omitempty"`
}

// ScreeningSummary condenses a rules-engine pass for the report; the
// hits feed the ethics safeguard and the control binding.
type ScreeningSummary struct {
	Hits            []ScreeningHit `json:"hits,omitempty"`
	ComplianceScore float64        `json:"complianceScore"`
	Blocked         bool           `json:"blocked"`
}

// PayloadValidation is the completeness verdict over a report payload.
type PayloadValidation struct {
	IsComplete    bool     `json:"isComplete"`
	MissingFields []string `json:"missingFields"`
}

// ReportPayload is the full assembled intelligence report for one run.
type ReportPayload struct {
	Metadata          ReportMetadata       `json:"metadata"`
	ProblemDefinition ProblemDefinition    `json:"problemDefinition"`
	RegionalProfile   RegionalProfile      `json:"regionalProfile"`
	Risks             RiskSection          `json:"risks"`
	EconomicSignals   EconomicSignals      `json:"economicSignals"`
	Opportunities     OpportunityMatches   `json:"opportunityMatches"`
	Recommendations   []string             `json:"recommendations"`
	ConfidenceScores  ConfidenceScores     `json:"confidenceScores"`
	Intelligence      ComputedIntelligence `json:"computedIntelligence"`
}
