package pipeline

import (
	"regexp"
	"strings"
)

// fabricSignal is one domain reading from the data fabric snapshot.
type fabricSignal struct {
	Domain     string
	Confidence float64
	Source     string
}

// fabricSnapshot summarizes how well the ambient data feeds cover the
// request. Confidences are keyword-driven so the snapshot is stable for
// a given profile.
type fabricSnapshot struct {
	Signals           []fabricSignal
	OverallConfidence float64
}

var (
	policyKeywords = regexp.MustCompile(`(?i)compliance|regulat|law|policy|sanction`)
	macroKeywords  = regexp.MustCompile(`(?i)gdp|inflation|interest|currency|financ`)
	tradeKeywords  = regexp.MustCompile(`(?i)trade|export|import|logistics|corridor`)
)

// snapshotFabric derives the signal confidences from the request's
// free-text context. A signal the context actually speaks to reads
// higher than one inferred from defaults alone.
func snapshotFabric(contextLines []string) fabricSnapshot {
	joined := strings.Join(contextLines, " ")

	policy := 0.72
	if policyKeywords.MatchString(joined) {
		policy = 0.86
	}
	macro := 0.69
	if macroKeywords.MatchString(joined) {
		macro = 0.82
	}
	trade := 0.67
	if tradeKeywords.MatchString(joined) {
		trade = 0.84
	}

	signals := []fabricSignal{
		{Domain: "policy", Confidence: policy, Source: "regulatory register"},
		{Domain: "macro", Confidence: macro, Source: "macro indicator feed"},
		{Domain: "trade", Confidence: trade, Source: "trade flow telemetry"},
	}

	sum := 0.0
	for _, s := range signals {
		sum += s.Confidence
	}
	overall := sum / float64(len(signals))
	if overall < 0 {
		overall = 0
	}
	if overall > 1 {
		overall = 1
	}

	return fabricSnapshot{Signals: signals, OverallConfidence: overall}
}
