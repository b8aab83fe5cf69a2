package domain

// Finding severities used across persona and adversarial analysis.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityPositive = "positive"
	SeverityNeutral  = "neutral"
)

// PersonaFinding is one observation from a debate persona.
type PersonaFinding struct {
	Persona  string `json:"persona"`
	Severity string `json:"severity"`
	Topic    string `json:"topic"`
	Detail   string `json:"detail"`
}

// PersonaAnalysis is the full output of one persona's review.
type PersonaAnalysis struct {
	Persona  string           `json:"persona"`
	Stance   string           `json:"stance"`
	Findings []PersonaFinding `json:"findings"`
}

// Recommendation values from the debate synthesis.
const (
	RecommendProceed      = "proceed"
	RecommendWithCaution  = "proceed-with-caution"
	RecommendConcerns     = "significant-concerns"
	RecommendDoNotProceed = "do-not-proceed"
)

// Consensus signals derived from the recommendation.
const (
	ConsensusGo    = "go"
	ConsensusHold  = "hold"
	ConsensusBlock = "block"
)

// DebateSynthesis aggregates all persona reviews into one verdict.
type DebateSynthesis struct {
	RiskRating        float64          `json:"riskRating"`
	OpportunityRating float64          `json:"opportunityRating"`
	Recommendation    string           `json:"recommendation"`
	Confidence        float64          `json:"confidence"`
	Consensus         string           `json:"consensus"`
	AgreementLevel    float64          `json:"agreementLevel"`
	Disagreements     []string         `json:"disagreements"`
	KeyInsights       []PersonaFinding `json:"keyInsights"`
	BlindSpots        []string         `json:"blindSpots"`
	Analyses          []PersonaAnalysis `json:"analyses"`
}
