package domain

// Contradiction severity levels reported by the input shield.
const (
	ShieldClean    = "clean"
	ShieldWarning  = "warning"
	ShieldConcern  = "concern"
	ShieldCritical = "critical"
)

// ShieldFinding is one contradiction or quality issue in the request
// profile detected before any scoring runs.
type ShieldFinding struct {
	Check    string `json:"check"`
	Level    string `json:"level"`
	Detail   string `json:"detail"`
	Evidence string `json:"evidence,omitempty"`
}

// Overall shield verdicts, ordered from best to worst.
const (
	ShieldTrusted    = "trusted"
	ShieldCautionary = "cautionary"
	ShieldSuspicious = "suspicious"
	ShieldRejected   = "rejected"
)

// ShieldReport is the input-shield verdict over a request profile.
type ShieldReport struct {
	ContradictionIndex float64         `json:"contradictionIndex"`
	TrustScore         float64         `json:"trustScore"`
	Status             string          `json:"status"`
	Findings           []ShieldFinding `json:"findings"`
	Recommendations    []string        `json:"recommendations"`
	Passed             bool            `json:"passed"`
}

// MotivationRedFlag is one suspicious pattern in the stated motivation.
type MotivationRedFlag struct {
	Pattern string  `json:"pattern"`
	Weight  float64 `json:"weight"`
	Detail  string  `json:"detail"`
}

// MotivationAnalysis scores how well the stated intent aligns with the
// request's observable facts.
type MotivationAnalysis struct {
	StatedMotivation  string              `json:"statedMotivation"`
	ImpliedMotivation string              `json:"impliedMotivation"`
	AlignmentScore    float64             `json:"alignmentScore"`
	RedFlags          []MotivationRedFlag `json:"redFlags"`
	Summary           string              `json:"summary"`
}

// OutcomeSnapshot is a recorded prior decision outcome used for
// outcome-learning coverage.
type OutcomeSnapshot struct {
	DecisionID string  `json:"decisionId"`
	Result     string  `json:"result"` // success | partial | failure
	Delta      float64 `json:"delta"`
}

// ConfidenceCoverage breaks the adversarial confidence score into its
// weighted dimensions.
type ConfidenceCoverage struct {
	ShieldDepth          float64 `json:"shieldDepth"`
	PersonaBreadth       float64 `json:"personaBreadth"`
	CounterfactualStress float64 `json:"counterfactualStress"`
	MotivationClarity    float64 `json:"motivationClarity"`
	OutcomeLearning      float64 `json:"outcomeLearning"`
}

// Confidence bands.
const (
	BandHigh     = "high"
	BandMedium   = "medium"
	BandLow      = "low"
	BandCritical = "critical"
)

// AdversarialConfidence is the roll-up of all adversarial reasoning
// layers into one calibrated confidence verdict.
type AdversarialConfidence struct {
	Score                float64            `json:"score"`
	Band                 string             `json:"band"`
	Coverage             ConfidenceCoverage `json:"coverage"`
	DegradationFlags     []string           `json:"degradationFlags"`
	RecommendedHardening []string           `json:"recommendedHardening"`
	Rationale            string             `json:"rationale"`
}
