package adversarial

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// Families of checks the shield always runs: three required fields,
// country cross-check, watchlist, budget, timeline.
const shieldCheckCount = 7

// Dimension weights for the confidence roll-up.
const (
	weightShieldDepth    = 0.25
	weightPersonaBreadth = 0.20
	weightStress         = 0.20
	weightClarity        = 0.20
	weightLearning       = 0.15
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// learningScore summarizes recorded decision outcomes on a 0-100
// predicted-accuracy scale. With no history it returns a neutral
// prior of 70.
func learningScore(outcomes []domain.OutcomeSnapshot) float64 {
	if len(outcomes) == 0 {
		return 70
	}
	var sum float64
	for _, o := range outcomes {
		base := 35.0
		switch o.Result {
		case "success":
			base = 85
		case "partial":
			base = 60
		}
		sum += clamp(base+o.Delta, 0, 100)
	}
	return sum / float64(len(outcomes))
}

func toBand(score float64) string {
	switch {
	case score >= 80:
		return domain.BandHigh
	case score >= 60:
		return domain.BandMedium
	case score >= 40:
		return domain.BandLow
	default:
		return domain.BandCritical
	}
}

// Confidence fuses every adversarial layer into one calibrated score.
// Each dimension is clamped independently before the fixed-weight
// blend; degradation flags and hardening recommendations come from
// threshold checks that fire independently of one another.
func Confidence(
	shield *domain.ShieldReport,
	synthesis *domain.DebateSynthesis,
	cf *domain.CounterfactualAnalysis,
	motivation *domain.MotivationAnalysis,
	outcomes []domain.OutcomeSnapshot,
) *domain.AdversarialConfidence {
	shieldDepth := clamp(55+shieldCheckCount*3-math.Max(0, 80-shield.TrustScore)*0.4, 25, 95)
	personaBreadth := clamp(synthesis.Confidence-float64(len(synthesis.Disagreements))*5+35, 25, 95)
	stress := clamp(cf.Robustness, 25, 95)

	var avgFlagPct float64
	if n := len(motivation.RedFlags); n > 0 {
		for _, f := range motivation.RedFlags {
			avgFlagPct += f.Weight * 100
		}
		avgFlagPct /= float64(n)
	}
	clarity := clamp(90-avgFlagPct/2, 25, 95)
	learning := clamp(learningScore(outcomes), 30, 95)

	score := math.Round(shieldDepth*weightShieldDepth +
		personaBreadth*weightPersonaBreadth +
		stress*weightStress +
		clarity*weightClarity +
		learning*weightLearning)

	var degradation []string
	if shield.TrustScore < 60 {
		degradation = append(degradation, "Input shield trust below 60; upstream data needs remediation")
	}
	if len(synthesis.Disagreements) > 2 {
		degradation = append(degradation, "Persona debate unresolved on multiple topics")
	}
	if len(motivation.RedFlags) >= 2 {
		degradation = append(degradation, "Motivation analysis flagged multiple adverse incentives")
	}
	if cf.Robustness < 50 {
		degradation = append(degradation, "Counterfactual robustness score below 50/100")
	}

	var hardening []string
	if shield.TrustScore < 70 {
		hardening = append(hardening, "Trigger enhanced provenance review on critical fields")
	}
	if len(synthesis.Disagreements) > 0 {
		hardening = append(hardening, "Schedule red-team replay on disputed persona topics")
	}
	if len(motivation.RedFlags) > 0 {
		hardening = append(hardening, "Run live reference or background calls to validate motives")
	}
	if len(hardening) == 0 {
		hardening = append(hardening, "Maintain current adversarial cadence; no immediate hardening required")
	}

	return &domain.AdversarialConfidence{
		Score: score,
		Band:  toBand(score),
		Coverage: domain.ConfidenceCoverage{
			ShieldDepth:          math.Round(shieldDepth),
			PersonaBreadth:       math.Round(personaBreadth),
			CounterfactualStress: math.Round(stress),
			MotivationClarity:    math.Round(clarity),
			OutcomeLearning:      math.Round(learning),
		},
		DegradationFlags:     degradation,
		RecommendedHardening: hardening,
		Rationale: fmt.Sprintf("Shield depth %.0f, persona breadth %.0f, counterfactual stress %.0f underpin adversarial confidence.",
			shieldDepth, personaBreadth, stress),
	}
}
