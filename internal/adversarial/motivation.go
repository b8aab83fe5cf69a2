package adversarial

import (
	"fmt"
	"strings"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

func containsAny(values []string, tokens ...string) bool {
	for _, v := range values {
		low := strings.ToLower(v)
		for _, tok := range tokens {
			if strings.Contains(low, tok) {
				return true
			}
		}
	}
	return false
}

func impliedMotivation(profile *domain.RequestProfile) string {
	switch {
	case containsAny(profile.StrategicIntent, "turnaround", "stabilize", "rescue"):
		return "crisis stabilization and damage control"
	case containsAny(profile.PriorityThemes, "capital", "liquidity", "financing"):
		return "capital relief and liquidity access"
	case containsAny(profile.StrategicIntent, "expansion", "scale", "market entry"):
		return "aggressive market expansion"
	case containsAny(profile.PriorityThemes, "governance", "compliance", "risk"):
		return "risk hedging and governance hardening"
	default:
		return "balanced growth and partnership building"
	}
}

func motivationRedFlags(profile *domain.RequestProfile) []domain.MotivationRedFlag {
	var flags []domain.MotivationRedFlag

	compressed := strings.Contains(profile.ExpansionTimeline, "3") || strings.Contains(profile.ExpansionTimeline, "0_6")
	if compressed && profile.DealSize != "" && strings.EqualFold(profile.RiskTolerance, "low") {
		flags = append(flags, domain.MotivationRedFlag{
			Pattern: "urgency-aversion-mismatch",
			Weight:  0.65,
			Detail:  fmt.Sprintf("Compressed timeline (%s) declared alongside low risk tolerance.", profile.ExpansionTimeline),
		})
	}

	if profile.DealSize != "" && profile.BudgetCapUSD <= 0 {
		flags = append(flags, domain.MotivationRedFlag{
			Pattern: "opaque-capital-plan",
			Weight:  0.55,
			Detail:  fmt.Sprintf("Deal size %s specified without any budget ceiling.", profile.DealSize),
		})
	}

	if len(profile.StakeholderAlignment) == 0 && len(profile.PartnerPersonas) > 0 {
		flags = append(flags, domain.MotivationRedFlag{
			Pattern: "unaligned-stakeholders",
			Weight:  0.45,
			Detail:  "Partner personas documented but no internal stakeholder alignment declared.",
		})
	}

	if containsAny(profile.PoliticalSensitivities, "corruption", "sanctions") {
		flags = append(flags, domain.MotivationRedFlag{
			Pattern: "governance-pressure",
			Weight:  0.5,
			Detail:  "Corruption or sanctions sensitivities highlighted, indicating legacy issues.",
		})
	}

	if strings.EqualFold(profile.PartnerReadiness, "low") &&
		containsAny(profile.StrategicIntent, "acquisition", "joint venture", "partnership") {
		flags = append(flags, domain.MotivationRedFlag{
			Pattern: "readiness-gap",
			Weight:  0.4,
			Detail:  "Low partner readiness despite a partnership-centric mandate.",
		})
	}

	return flags
}

// DetectMotivation compares the stated motivation against signals the
// profile carries anyway and scores their alignment on a 5-95 scale.
func DetectMotivation(profile *domain.RequestProfile) *domain.MotivationAnalysis {
	stated := profile.ProblemStatement
	if strings.TrimSpace(stated) == "" {
		stated = "Not explicitly stated"
	}
	implied := impliedMotivation(profile)
	flags := motivationRedFlags(profile)

	alignment := 72.0
	if len(profile.StakeholderAlignment) > 0 {
		alignment += 6
	}
	if strings.EqualFold(profile.PartnerReadiness, "high") {
		alignment += 4
	}
	if strings.Contains(profile.ExpansionTimeline, "3") {
		alignment -= 8
	}
	for _, f := range flags {
		alignment -= float64(int(f.Weight*10 + 0.5))
	}
	if alignment < 5 {
		alignment = 5
	} else if alignment > 95 {
		alignment = 95
	}

	parts := []string{fmt.Sprintf("Declared motive centers on %s.", implied)}
	if len(flags) > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicting signals detected across capital, governance, or timing.", len(flags)))
	} else {
		parts = append(parts, "No material motivation contradictions detected.")
	}
	if len(profile.PriorityThemes) > 0 {
		parts = append(parts, fmt.Sprintf("Priority themes (%s) reinforce the stated posture.", strings.Join(profile.PriorityThemes, ", ")))
	}

	return &domain.MotivationAnalysis{
		StatedMotivation:  stated,
		ImpliedMotivation: implied,
		AlignmentScore:    alignment,
		RedFlags:          flags,
		Summary:           strings.Join(parts, " "),
	}
}
