// Package counterfactual builds alternative scenarios against the
// requested plan and scores each by opportunity cost and regret.
package counterfactual

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

const defaultBudgetUSD = 1_000_000

// ParseMonths extracts a month count from a free-text timeline. A
// "year" token multiplies the leading number by 12; unparseable or
// empty input defaults to 12 months.
func ParseMonths(timeline string) float64 {
	t := strings.TrimSpace(strings.ToLower(timeline))
	if t == "" {
		return 12
	}
	var digits strings.Builder
	for _, r := range t {
		if r >= '0' && r <= '9' || r == '.' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	n, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil || n <= 0 {
		return 12
	}
	if strings.Contains(t, "year") {
		return n * 12
	}
	return n
}

func expectedROIPct(riskTolerance string) float64 {
	switch strings.ToLower(riskTolerance) {
	case "high":
		return 25
	case "medium":
		return 15
	default:
		return 10
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// alternative holds the fixed outcome table for one counterfactual
// path before it is priced against the baseline.
type alternative struct {
	name        string
	probability float64
	expectedPct float64 // share of budget, may be zero
	months      string
	narrative   string
}

// Analyze compares the requested plan against its plausible
// alternatives. All outputs are deterministic for a given profile.
func Analyze(profile *domain.RequestProfile) *domain.CounterfactualAnalysis {
	budget := profile.BudgetCapUSD
	if budget <= 0 {
		budget = defaultBudgetUSD
	}
	roi := expectedROIPct(profile.RiskTolerance)
	baselineExpected := budget * roi / 100
	baselineMonths := ParseMonths(profile.ExpansionTimeline)
	baselineProb := 60.0

	candidates := []alternative{
		{
			name:        "do-nothing",
			probability: 100,
			expectedPct: 0,
			months:      "0",
			narrative:   "Hold position; forfeit the opportunity but retain full optionality.",
		},
		{
			name:        "reduced-scope",
			probability: 75,
			expectedPct: 5,
			months:      "6 months",
			narrative:   "Pilot in one market segment before committing the full budget.",
		},
		{
			name:        "aggressive",
			probability: 40,
			expectedPct: 50,
			months:      "9 months",
			narrative:   "Triple down with accelerated entry across multiple channels.",
		},
	}
	if profile.TargetPartner != "" || hasIntent(profile.StrategicIntent, "partnership") {
		candidates = append(candidates, alternative{
			name:        "partner-led",
			probability: 65,
			expectedPct: 10,
			months:      "15 months",
			narrative:   "Let the local partner carry execution while retaining a minority stake.",
		})
	}
	candidates = append(candidates, alternative{
		name:        "alternative-market",
		probability: 55,
		expectedPct: 12,
		months:      "15 months",
		narrative:   "Redirect the same capital to the next-ranked market on the shortlist.",
	})

	alternatives := make([]domain.Alternative, 0, len(candidates))
	for _, c := range candidates {
		months := ParseMonths(c.months)
		if c.months == "0" {
			months = 0
		}
		alt := Price(baselineExpected, baselineProb, baselineMonths, domain.Alternative{
			Name:               c.name,
			ExpectedValue:      budget * c.expectedPct / 100,
			SuccessProbability: c.probability,
			TimelineMonths:     months,
			Narrative:          c.narrative,
		})
		alternatives = append(alternatives, alt)
	}

	highest := alternatives[0]
	for _, a := range alternatives[1:] {
		if a.OpportunityCostUSD*a.RegretProbability > highest.OpportunityCostUSD*highest.RegretProbability {
			highest = a
		}
	}

	scenarios := stressScenarios(profile, baselineExpected)
	robustness, vulns, resilient := assessRobustness(profile, budget, alternatives)
	recommendation := recommend(robustness, lossProbability(profile), highest, vulns)

	return &domain.CounterfactualAnalysis{
		BaselineExpected: baselineExpected,
		BaselineMonths:   baselineMonths,
		Alternatives:     alternatives,
		Scenarios:        scenarios,
		HighestRegret:    highest.Name,
		Robustness:       robustness,
		Vulnerabilities:  vulns,
		ResilientFactors: resilient,
		Recommendation:   recommendation,
	}
}

// Price fills in the comparative fields of an alternative against the
// base case: opportunity cost is the expected value foregone, and
// regret is the alternative's own success probability plus a fixed 15
// point premium whenever the path leaves money on the table.
func Price(baselineExpected, baselineProb, baselineMonths float64, alt domain.Alternative) domain.Alternative {
	oc := baselineExpected - alt.ExpectedValue
	regret := alt.SuccessProbability
	if oc > 0 {
		regret += 15
	}
	alt.OpportunityCostUSD = oc
	alt.RegretProbability = clamp(regret, 5, 95)
	alt.Impact = domain.ImpactDelta{
		SPIDelta:              alt.SuccessProbability - baselineProb,
		RROIDelta:             (alt.ExpectedValue - baselineExpected) / maxAbs(baselineExpected) * 100,
		SCFDeltaUSD:           alt.ExpectedValue - baselineExpected,
		ActivationMonthsDelta: alt.TimelineMonths - baselineMonths,
	}
	return alt
}

func hasIntent(intents []string, token string) bool {
	for _, i := range intents {
		if strings.Contains(strings.ToLower(i), token) {
			return true
		}
	}
	return false
}

func maxAbs(v float64) float64 {
	if v < 0 {
		v = -v
	}
	if v < 1 {
		return 1
	}
	return v
}

// lossProbability is a deterministic downside proxy derived from the
// declared risk appetite.
func lossProbability(profile *domain.RequestProfile) float64 {
	switch strings.ToLower(profile.RiskTolerance) {
	case "high":
		return 45
	case "medium":
		return 30
	default:
		return 20
	}
}

func stressScenarios(profile *domain.RequestProfile, baselineExpected float64) []domain.StressScenario {
	loss := lossProbability(profile)
	return []domain.StressScenario{
		{
			Name:        "demand-shock",
			ImpactPct:   -40,
			Likelihood:  loss,
			Description: fmt.Sprintf("Market demand falls 40%% below plan; expected value drops to %.0f.", baselineExpected*0.6),
		},
		{
			Name:        "regulatory-delay",
			ImpactPct:   -20,
			Likelihood:  clamp(loss+10, 5, 95),
			Description: "Licensing or approval slips two quarters; carrying costs erode the first-year return.",
		},
		{
			Name:        "currency-depreciation",
			ImpactPct:   -15,
			Likelihood:  clamp(loss-5, 5, 95),
			Description: "Local currency weakens against the funding currency; repatriated returns compress.",
		},
	}
}

func assessRobustness(profile *domain.RequestProfile, budget float64, alternatives []domain.Alternative) (float64, []string, []string) {
	var vulns, resilient []string

	loss := lossProbability(profile)
	if loss > 40 {
		vulns = append(vulns, fmt.Sprintf("High probability of loss (%.0f%%) at the declared risk appetite", loss))
	}
	for _, a := range alternatives {
		if a.Name == "reduced-scope" && a.SuccessProbability > 70 {
			resilient = append(resilient, "Pilot option available as fallback")
		}
	}
	if profile.TargetPartner != "" {
		resilient = append(resilient, "Identified partner reduces execution risk")
	} else {
		vulns = append(vulns, "No partner identified; execution may slow")
	}
	if budget > 1_000_000 {
		resilient = append(resilient, "Adequate capital buffer for contingencies")
	} else {
		vulns = append(vulns, "Limited capital buffer")
	}

	score := 50.0
	score += float64(len(resilient)) * 10
	score -= float64(len(vulns)) * 15
	score += (60 - loss) * 0.3
	score -= (loss - 30) * 0.3
	return clamp(score, 0, 100), vulns, resilient
}

func recommend(robustness, loss float64, highest domain.Alternative, vulns []string) string {
	switch {
	case robustness >= 70 && loss < 30:
		return fmt.Sprintf("PROCEED: The plan is robust (score %.0f/100) with acceptable downside risk. The costliest path not taken is %q at $%.0f foregone.", robustness, highest.Name, highest.OpportunityCostUSD)
	case robustness >= 50 && loss < 40:
		return fmt.Sprintf("PROCEED WITH CAUTION: Moderate robustness (score %.0f/100). Consider the reduced-scope pilot to de-risk. Key vulnerabilities: %s.", robustness, strings.Join(vulns, "; "))
	case robustness < 50 && loss > 40:
		return fmt.Sprintf("SIGNIFICANT CONCERNS: Weak robustness (score %.0f/100) with %.0f%% downside probability. Recommend the pilot path or a plan revision before full commitment. Critical vulnerabilities: %s.", robustness, loss, strings.Join(vulns, "; "))
	default:
		return fmt.Sprintf("MIXED SIGNALS: Robustness %.0f/100 with %.0f%% downside probability. Weigh the $%.0f opportunity cost of %q against the identified vulnerabilities before committing.", robustness, loss, highest.OpportunityCostUSD, highest.Name)
	}
}
