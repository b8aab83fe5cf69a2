// Package persona runs the five-perspective debate: Skeptic, Advocate,
// Regulator, Accountant, and Operator each review the same request
// independently, then a synthesis step merges them into one verdict.
package persona

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

const (
	PersonaSkeptic    = "skeptic"
	PersonaAdvocate   = "advocate"
	PersonaRegulator  = "regulator"
	PersonaAccountant = "accountant"
	PersonaOperator   = "operator"
)

var highRiskCountries = []string{"Venezuela", "North Korea", "Iran", "Syria", "Russia", "Belarus", "Myanmar"}

var watchlistCountries = []string{"Russia", "Belarus", "China", "Cuba", "Iran", "North Korea", "Syria", "Venezuela"}

var highGrowthMarkets = []string{"Vietnam", "India", "Indonesia", "Philippines", "Mexico", "Poland", "Morocco"}

var stableMarkets = []string{"Australia", "Japan", "Singapore", "Germany", "UK", "Canada"}

var developingMarkets = []string{"Vietnam", "Indonesia", "Philippines", "India", "Nigeria", "Kenya", "Bangladesh"}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func finding(persona, severity, topic, detail string) domain.PersonaFinding {
	return domain.PersonaFinding{Persona: persona, Severity: severity, Topic: topic, Detail: detail}
}

// RunSkeptic hunts for deal-killers, over-optimism, and hidden risks.
func RunSkeptic(profile *domain.RequestProfile) domain.PersonaAnalysis {
	var findings []domain.PersonaFinding

	if profile.Country == "" || profile.Country == "Not Selected" {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityCritical,
			"No Target Market Defined",
			"Cannot assess viability without knowing the target geography."))
	}
	if profile.OrganizationName == "" {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityCritical,
			"Organization Not Identified",
			"Cannot conduct due diligence or partner matching without entity identification."))
	}
	if profile.BudgetCapUSD > 0 && profile.BudgetCapUSD < 100_000 {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityCritical,
			"Critically Undercapitalized",
			"Budget below $100K is insufficient for most international operations."))
	}
	if strings.Contains(profile.ExpansionTimeline, "3 months") {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityWarning,
			"Unrealistic Timeline",
			"Three-month timelines for international market entry rarely succeed; the average is 12-18 months."))
	}
	if contains(highRiskCountries, profile.Country) {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityCritical,
			"Sanctioned or High-Risk Jurisdiction",
			fmt.Sprintf("%s is subject to significant international sanctions or restrictions.", profile.Country)))
	}
	for _, ind := range profile.Industry {
		if ind == "Cryptocurrency" || ind == "Fintech" {
			findings = append(findings, finding(PersonaSkeptic, domain.SeverityWarning,
				"Rapidly Evolving Regulatory Landscape",
				"Fintech and crypto regulations change frequently; current analysis may be outdated within months."))
			break
		}
	}
	wantsPartner := false
	for _, intent := range profile.StrategicIntent {
		if strings.Contains(intent, "Partnership") || strings.Contains(intent, "Joint Venture") {
			wantsPartner = true
		}
	}
	if wantsPartner && profile.TargetPartner == "" {
		findings = append(findings, finding(PersonaSkeptic, domain.SeverityWarning,
			"Partnership Strategy Without Identified Partner",
			"Strategy depends on partnership but no specific partner has been identified; partner search can take 6-12 months."))
	}

	stance := "low"
	criticals, warnings := countSeverities(findings)
	if criticals > 0 {
		stance = "critical"
	} else if warnings >= 3 {
		stance = "high"
	} else if warnings >= 1 {
		stance = "medium"
	}
	return domain.PersonaAnalysis{Persona: PersonaSkeptic, Stance: stance, Findings: findings}
}

// RunAdvocate looks for upside, synergies, and value levers.
func RunAdvocate(profile *domain.RequestProfile) domain.PersonaAnalysis {
	var findings []domain.PersonaFinding

	if contains(highGrowthMarkets, profile.Country) {
		findings = append(findings, finding(PersonaAdvocate, domain.SeverityPositive,
			"High-Growth Market Selection",
			fmt.Sprintf("%s is in the top tier of emerging market growth prospects.", profile.Country)))
	}
	if len(profile.StrategicIntent) > 0 {
		findings = append(findings, finding(PersonaAdvocate, domain.SeverityPositive,
			"Clear Strategic Direction",
			"Explicit strategic intent increases the probability of success."))
	}
	for _, ind := range profile.Industry {
		if ind == "Technology" || ind == "Software" {
			findings = append(findings, finding(PersonaAdvocate, domain.SeverityPositive,
				"Technology Scalability Advantage",
				"Tech businesses scale internationally with lower marginal costs."))
			break
		}
	}
	if profile.TargetPartner != "" {
		findings = append(findings, finding(PersonaAdvocate, domain.SeverityPositive,
			"Identified Partnership Opportunity",
			"Having a target partner accelerates market entry by 40-60%."))
	}
	if profile.UserCity != "" && profile.UserCity != profile.Country {
		findings = append(findings, finding(PersonaAdvocate, domain.SeverityPositive,
			"Regional City Focus",
			"Regional cities often offer lower costs and less competition than capitals."))
	}

	stance := "low"
	switch n := len(findings); {
	case n >= 5:
		stance = "exceptional"
	case n >= 3:
		stance = "high"
	case n >= 1:
		stance = "medium"
	}
	return domain.PersonaAnalysis{Persona: PersonaAdvocate, Stance: stance, Findings: findings}
}

// RunRegulator checks legal, sanctions, and ethical constraints.
func RunRegulator(profile *domain.RequestProfile) domain.PersonaAnalysis {
	var findings []domain.PersonaFinding

	if profile.OrganizationType == "government" {
		findings = append(findings, finding(PersonaRegulator, domain.SeverityWarning,
			"Government Entity Compliance Burden",
			"Dealing with government entities requires enhanced anti-corruption compliance (FCPA, UK Bribery Act)."))
	}
	if contains(watchlistCountries, profile.Country) {
		findings = append(findings, finding(PersonaRegulator, domain.SeverityCritical,
			"Enhanced Sanctions Screening Required",
			fmt.Sprintf("%s is subject to enhanced due diligence requirements.", profile.Country)))
	}
	for _, ind := range profile.Industry {
		if ind == "Finance" || ind == "Banking" || ind == "Insurance" || ind == "Fintech" {
			findings = append(findings, finding(PersonaRegulator, domain.SeverityWarning,
				"Financial Services Regulatory Burden",
				"Financial services require extensive licensing and ongoing AML/KYC compliance."))
			break
		}
	}
	for _, ind := range profile.Industry {
		if ind == "Mining" || ind == "Oil & Gas" || ind == "Defense" || ind == "Tobacco" || ind == "Gambling" {
			findings = append(findings, finding(PersonaRegulator, domain.SeverityNeutral,
				"ESG-Sensitive Industry",
				"Industry may face ESG scrutiny from investors and stakeholders."))
			break
		}
	}

	criticals, warnings := countSeverities(findings)
	stance := "standard pathway"
	if criticals+warnings > 2 {
		stance = "complex pathway"
	} else if criticals+warnings > 0 {
		stance = "enhanced pathway"
	}
	return domain.PersonaAnalysis{Persona: PersonaRegulator, Stance: stance, Findings: findings}
}

// RunAccountant validates cashflow, margins, and durability.
func RunAccountant(profile *domain.RequestProfile) domain.PersonaAnalysis {
	var findings []domain.PersonaFinding

	switch {
	case profile.BudgetCapUSD <= 0:
		findings = append(findings, finding(PersonaAccountant, domain.SeverityWarning,
			"Capital Requirements Undefined",
			"Cannot assess financial viability without understanding available capital."))
	case profile.BudgetCapUSD < 500_000:
		findings = append(findings, finding(PersonaAccountant, domain.SeverityWarning,
			"Limited Capital Buffer",
			"Budget may not cover unexpected costs or extended timelines; keep a 30% contingency reserve."))
	case profile.BudgetCapUSD >= 1_000_000:
		findings = append(findings, finding(PersonaAccountant, domain.SeverityPositive,
			"Adequate Capitalization",
			"Budget level supports multi-year operations and unexpected challenges."))
	}
	if profile.RiskTolerance == "high" || profile.RiskTolerance == "aggressive" {
		findings = append(findings, finding(PersonaAccountant, domain.SeverityWarning,
			"Aggressive Return Expectations",
			"Return expectations above 25% are difficult to achieve consistently."))
	}
	if contains(stableMarkets, profile.Country) {
		findings = append(findings, finding(PersonaAccountant, domain.SeverityPositive,
			"Stable Economic Environment",
			"Target market has strong institutional stability and a predictable business environment."))
	}

	_, warnings := countSeverities(findings)
	positives := countPositives(findings)
	stance := "viable"
	if warnings >= 3 {
		stance = "unviable"
	} else if warnings >= 2 {
		stance = "marginal"
	} else if positives >= 2 && warnings == 0 {
		stance = "strong"
	}
	return domain.PersonaAnalysis{Persona: PersonaAccountant, Stance: stance, Findings: findings}
}

// RunOperator tests execution feasibility.
func RunOperator(profile *domain.RequestProfile) domain.PersonaAnalysis {
	var findings []domain.PersonaFinding

	if profile.Country != "" && profile.UserCity == "" {
		findings = append(findings, finding(PersonaOperator, domain.SeverityWarning,
			"No Specific Location Selected",
			"Without a target city, operational planning is significantly more complex."))
	}
	for _, intent := range profile.StrategicIntent {
		if strings.Contains(intent, "Manufacturing") || strings.Contains(intent, "Production") {
			findings = append(findings, finding(PersonaOperator, domain.SeverityNeutral,
				"Manufacturing Expertise Required",
				"Manufacturing operations require specialized local expertise and quality control systems."))
			break
		}
	}
	if contains(developingMarkets, profile.Country) {
		findings = append(findings, finding(PersonaOperator, domain.SeverityWarning,
			"Infrastructure Development Considerations",
			"Target market may have infrastructure gaps that affect operations."))
	}
	if profile.Country != "" && profile.Country != profile.UserCountry {
		findings = append(findings, finding(PersonaOperator, domain.SeverityNeutral,
			"International Supply Chain Complexity",
			"Cross-border operations add supply chain complexity and lead times."))
	}
	if strings.Contains(profile.ExpansionTimeline, "3 month") || strings.Contains(profile.ExpansionTimeline, "6 month") {
		findings = append(findings, finding(PersonaOperator, domain.SeverityWarning,
			"Compressed Timeline Risk",
			"Short timelines increase execution risk and reduce the ability to course-correct."))
	}

	_, warnings := countSeverities(findings)
	stance := "achievable"
	if warnings >= 4 {
		stance = "unrealistic"
	} else if warnings >= 2 {
		stance = "challenging"
	} else if warnings == 0 {
		stance = "straightforward"
	}
	return domain.PersonaAnalysis{Persona: PersonaOperator, Stance: stance, Findings: findings}
}

func countSeverities(findings []domain.PersonaFinding) (criticals, warnings int) {
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			criticals++
		case domain.SeverityWarning:
			warnings++
		}
	}
	return
}

func countPositives(findings []domain.PersonaFinding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == domain.SeverityPositive {
			n++
		}
	}
	return n
}

// RunDebate executes all five personas concurrently and synthesizes
// the result. Personas are pure functions of the profile, so the only
// failure mode is context cancellation.
func RunDebate(ctx context.Context, profile *domain.RequestProfile) (*domain.DebateSynthesis, error) {
	analyses := make([]domain.PersonaAnalysis, 5)
	runners := []func(*domain.RequestProfile) domain.PersonaAnalysis{
		RunSkeptic, RunAdvocate, RunRegulator, RunAccountant, RunOperator,
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, run := range runners {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			analyses[i] = run(profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Synthesize(analyses), nil
}
