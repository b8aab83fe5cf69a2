package domain

// ImpactDelta captures how an alternative shifts the headline indices
// relative to the base case.
type ImpactDelta struct {
	SPIDelta              float64 `json:"spiDelta"`
	RROIDelta             float64 `json:"rroiDelta"`
	SCFDeltaUSD           float64 `json:"scfDeltaUsd"`
	ActivationMonthsDelta float64 `json:"activationMonthsDelta"`
}

// Alternative is one counterfactual path compared against the base
// case.
type Alternative struct {
	Name               string      `json:"name"`
	ExpectedValue      float64     `json:"expectedValue"`
	SuccessProbability float64     `json:"successProbability"`
	TimelineMonths     float64     `json:"timelineMonths"`
	Impact             ImpactDelta `json:"impact"`
	OpportunityCostUSD float64     `json:"opportunityCostUsd"`
	RegretProbability  float64     `json:"regretProbability"`
	Narrative          string      `json:"narrative"`
}

// StressScenario is one downside scenario applied to the base case.
type StressScenario struct {
	Name        string  `json:"name"`
	ImpactPct   float64 `json:"impactPct"`
	Likelihood  float64 `json:"likelihood"`
	Description string  `json:"description"`
}

// CounterfactualAnalysis compares the recommended path against its
// plausible alternatives and stress scenarios.
type CounterfactualAnalysis struct {
	BaselineExpected float64          `json:"baselineExpected"`
	BaselineMonths   float64          `json:"baselineMonths"`
	Alternatives     []Alternative    `json:"alternatives"`
	Scenarios        []StressScenario `json:"scenarios"`
	HighestRegret    string           `json:"highestRegret"`
	Robustness       float64          `json:"robustness"`
	Vulnerabilities  []string         `json:"vulnerabilities"`
	ResilientFactors []string         `json:"resilientFactors"`
	Recommendation   string           `json:"recommendation"`
}
