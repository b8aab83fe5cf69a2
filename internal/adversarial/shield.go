// Package adversarial stress-tests a request profile before scoring:
// an input-plausibility shield, a motivation-contradiction detector,
// and a roll-up of every adversarial layer into one confidence verdict.
package adversarial

import (
	"fmt"
	"strings"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// countryFacts is a small authority snapshot used to cross-check the
// stated country. Countries absent from the table pass with a manual
// review note rather than a finding.
type countryFacts struct {
	doingBusinessRank int
	corruptionIndex   int
	sanctioned        bool
}

var countryData = map[string]countryFacts{
	"australia":      {14, 73, false},
	"united states":  {6, 67, false},
	"united kingdom": {8, 71, false},
	"germany":        {22, 79, false},
	"singapore":      {2, 83, false},
	"japan":          {29, 73, false},
	"china":          {31, 45, false},
	"india":          {63, 40, false},
	"vietnam":        {70, 42, false},
	"indonesia":      {73, 37, false},
	"russia":         {28, 28, true},
	"iran":           {127, 24, true},
	"north korea":    {190, 17, true},
	"venezuela":      {188, 14, true},
	"syria":          {176, 13, true},
	"belarus":        {49, 39, true},
	"myanmar":        {165, 23, true},
	"cuba":           {150, 45, true},
}

// Partial SDN-style watchlist. Matching is substring on the lowercased
// entity name.
var sanctionsWatchlist = []string{
	"rosneft", "gazprom", "sberbank", "vtb bank", "russian direct investment fund",
	"national iranian oil company", "islamic revolutionary guard corps",
	"korea mining development trading corporation", "foreign trade bank dprk",
	"hezbollah", "hamas",
	"nicolas maduro", "bashar al-assad",
}

var complexIntentTokens = []string{"manufacturing", "acquisition", "joint venture", "greenfield", "merger"}

func hasComplexIntent(intents []string) bool {
	for _, i := range intents {
		low := strings.ToLower(i)
		for _, tok := range complexIntentTokens {
			if strings.Contains(low, tok) {
				return true
			}
		}
	}
	return false
}

func watchlistMatch(name string) string {
	low := strings.ToLower(name)
	for _, entry := range sanctionsWatchlist {
		if strings.Contains(low, entry) {
			return entry
		}
	}
	return ""
}

// RunShield validates the profile against authority data and known
// abuse patterns. Trust starts at 100 and loses 40 per critical, 15
// per concern, and 5 per warning.
func RunShield(profile *domain.RequestProfile) *domain.ShieldReport {
	var findings []domain.ShieldFinding

	// Required basics.
	required := []struct {
		field string
		value string
	}{
		{"organizationName", profile.OrganizationName},
		{"country", profile.Country},
		{"industry", strings.Join(profile.Industry, ", ")},
	}
	missingRequired := 0
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" || r.value == "Not Selected" {
			missingRequired++
			findings = append(findings, domain.ShieldFinding{
				Check:  "required-field",
				Level:  domain.ShieldWarning,
				Detail: fmt.Sprintf("Required field %q is missing or empty", r.field),
			})
		}
	}

	// Country cross-check against the authority snapshot.
	if profile.Country != "" {
		if facts, ok := countryData[strings.ToLower(profile.Country)]; ok {
			if facts.sanctioned {
				findings = append(findings, domain.ShieldFinding{
					Check:    "sanctioned-party",
					Level:    domain.ShieldCritical,
					Detail:   fmt.Sprintf("%s is subject to international sanctions", profile.Country),
					Evidence: "consolidated sanctions register",
				})
			} else if facts.corruptionIndex < 40 {
				findings = append(findings, domain.ShieldFinding{
					Check:    "corruption-exposure",
					Level:    domain.ShieldWarning,
					Detail:   fmt.Sprintf("%s has a low Corruption Perceptions Index (%d/100); enhanced due diligence recommended", profile.Country, facts.corruptionIndex),
					Evidence: "Corruption Perceptions Index",
				})
			}
		}
	}

	// Entity and partner names against the watchlist.
	for _, entity := range []struct{ field, name string }{
		{"organizationName", profile.OrganizationName},
		{"targetPartner", profile.TargetPartner},
	} {
		if entity.name == "" {
			continue
		}
		if hit := watchlistMatch(entity.name); hit != "" {
			findings = append(findings, domain.ShieldFinding{
				Check:    "sanctioned-party",
				Level:    domain.ShieldCritical,
				Detail:   fmt.Sprintf("Entity %q may match sanctioned party %q", entity.name, hit),
				Evidence: "OFAC SDN list (partial)",
			})
		}
	}

	// Financial reasonableness.
	if profile.BudgetCapUSD > 0 {
		switch {
		case profile.BudgetCapUSD < 50_000:
			findings = append(findings, domain.ShieldFinding{
				Check:  "budget-floor",
				Level:  domain.ShieldConcern,
				Detail: fmt.Sprintf("Budget of $%.0f is critically low for international operations", profile.BudgetCapUSD),
			})
		case profile.BudgetCapUSD < 250_000:
			findings = append(findings, domain.ShieldFinding{
				Check:  "budget-floor",
				Level:  domain.ShieldWarning,
				Detail: fmt.Sprintf("Budget of $%.0f may limit strategic options", profile.BudgetCapUSD),
			})
		}
	}

	// Timeline realism against the stated scope.
	if profile.ExpansionTimeline != "" && hasComplexIntent(profile.StrategicIntent) {
		timeline := strings.ToLower(profile.ExpansionTimeline)
		switch {
		case strings.Contains(timeline, "3 month") || strings.Contains(timeline, "1 month"):
			findings = append(findings, domain.ShieldFinding{
				Check:  "timeline-realism",
				Level:  domain.ShieldConcern,
				Detail: "Complex strategic initiatives require 12-36 months; the current timeline is unrealistic",
			})
			findings = append(findings, domain.ShieldFinding{
				Check:  "rushed-urgency",
				Level:  domain.ShieldWarning,
				Detail: "Complex strategic intent with a compressed timeline",
			})
		case strings.Contains(timeline, "6 month"):
			findings = append(findings, domain.ShieldFinding{
				Check:  "timeline-realism",
				Level:  domain.ShieldWarning,
				Detail: "Timeline is aggressive for the stated strategic intent",
			})
		}
	}

	// Missing basics pattern.
	if missingRequired >= 2 {
		findings = append(findings, domain.ShieldFinding{
			Check:  "missing-basics",
			Level:  domain.ShieldWarning,
			Detail: fmt.Sprintf("%d critical fields are missing or incomplete", missingRequired),
		})
	}

	var criticals, concerns, warnings int
	for _, f := range findings {
		switch f.Level {
		case domain.ShieldCritical:
			criticals++
		case domain.ShieldConcern:
			concerns++
		case domain.ShieldWarning:
			warnings++
		}
	}

	trust := 100 - float64(criticals)*40 - float64(concerns)*15 - float64(warnings)*5
	if trust < 0 {
		trust = 0
	}

	status := domain.ShieldTrusted
	switch {
	case criticals > 0:
		status = domain.ShieldRejected
	case concerns >= 2 || (concerns >= 1 && warnings >= 2):
		status = domain.ShieldSuspicious
	case warnings >= 2:
		status = domain.ShieldCautionary
	}

	var recs []string
	if criticals > 0 {
		recs = append(recs, "Resolve all critical findings before any analysis proceeds")
	}
	if warnings > 0 && criticals == 0 {
		recs = append(recs, "Review the flagged fields before finalizing the analysis")
	}
	if status == domain.ShieldTrusted && trust >= 80 {
		recs = append(recs, "Inputs validated; proceed with analysis")
	}

	return &domain.ShieldReport{
		ContradictionIndex: 100 - trust,
		TrustScore:         trust,
		Status:             status,
		Findings:           findings,
		Recommendations:    recs,
		Passed:             status != domain.ShieldRejected,
	}
}

// ContradictionLevel maps a finding severity to its contradiction
// weight on a 0-100 scale.
func ContradictionLevel(level string) float64 {
	switch level {
	case domain.ShieldCritical:
		return 95
	case domain.ShieldConcern:
		return 70
	case domain.ShieldWarning:
		return 45
	default:
		return 15
	}
}
