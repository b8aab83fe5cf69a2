package domain

// HistoricalPattern is one precedent record used by the pattern
// matcher to contextualize new requests.
type HistoricalPattern struct {
	ID            string   `json:"id"`
	Era           string   `json:"era"`
	Region        string   `json:"region"`
	Industry      string   `json:"industry"`
	Outcome       string   `json:"outcome"` // success | partial | failure
	Lessons       []string `json:"lessons"`
	KeyFactors    []string `json:"keyFactors"`
	Applicability float64  `json:"applicabilityScore"` // base score before boosts
}

// PatternMatch pairs a precedent with its applicability to the current
// request.
type PatternMatch struct {
	Pattern       HistoricalPattern `json:"pattern"`
	Applicability float64           `json:"applicability"`
	Rationale     string            `json:"rationale"`
}
