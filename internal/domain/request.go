// Package domain defines the core types and interfaces for Kestrel.
package domain

import (
	"strings"
	"time"
)

// RequestProfile is the immutable input to one decision pipeline run.
// Created once per run by the caller; the pipeline never mutates it.
type RequestProfile struct {
	// Identity
	ID               string   `json:"id"`
	TenantID         string   `json:"tenantId"`
	OrganizationName string   `json:"organizationName"`
	OrganizationType string   `json:"organizationType"`
	Country          string   `json:"country"`
	Region           string   `json:"region"`
	UserName         string   `json:"userName,omitempty"`
	UserCountry      string   `json:"userCountry,omitempty"`
	UserCity         string   `json:"userCity,omitempty"`
	UserDepartment   string   `json:"userDepartment,omitempty"`
	Industry         []string `json:"industry"`

	// Mandate
	ProblemStatement     string   `json:"problemStatement"`
	StrategicIntent      []string `json:"strategicIntent"`
	StrategicObjectives  []string `json:"strategicObjectives,omitempty"`
	IntelligenceCategory string   `json:"intelligenceCategory,omitempty"`
	ExpansionTimeline    string   `json:"expansionTimeline,omitempty"`
	AnalysisTimeframe    string   `json:"analysisTimeframe,omitempty"`
	RequiredDataFeeds    []string `json:"requiredDataFeeds,omitempty"`

	// Counterparties and audience
	TargetPartner           string   `json:"targetPartner,omitempty"`
	TargetCounterpartTypes  []string `json:"targetCounterpartTypes,omitempty"`
	StakeholderPerspectives []string `json:"stakeholderPerspectives,omitempty"`
	StakeholderAlignment    []string `json:"stakeholderAlignment,omitempty"`
	PartnerPersonas         []string `json:"partnerPersonas,omitempty"`
	PartnerReadiness        string   `json:"partnerReadiness,omitempty"` // low | medium | high

	// Existing market exposure, used for concentration analysis.
	CurrentMarkets []MarketShare `json:"currentMarkets,omitempty"`

	// Constraints
	BudgetCapUSD      float64 `json:"budgetCapUsd,omitempty"`
	DealSize          string  `json:"dealSize,omitempty"`
	RiskTolerance     string  `json:"riskTolerance,omitempty"` // low | medium | high
	DueDiligenceDepth string  `json:"dueDiligenceDepth,omitempty"`

	// Implementation readiness
	CriticalPath         string `json:"criticalPath,omitempty"`
	GoNoGoCriteria       string `json:"goNoGoCriteria,omitempty"`
	AuthorityMatrix      string `json:"authorityMatrix,omitempty"`
	EscalationProcedures string `json:"escalationProcedures,omitempty"`

	// Free-text context
	AdditionalContext      string   `json:"additionalContext,omitempty"`
	CollaborativeNotes     string   `json:"collaborativeNotes,omitempty"`
	PriorityThemes         []string `json:"priorityThemes,omitempty"`
	PoliticalSensitivities []string `json:"politicalSensitivities,omitempty"`
	IngestedDocuments      []string `json:"ingestedDocuments,omitempty"`
	IntentTags             []string `json:"intentTags,omitempty"`

	// Full-autonomy mode bypasses the standard orchestration fan-out.
	FullAutonomy bool `json:"fullAutonomy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Locator returns the lowercase cache key for regional score lookups:
// country, falling back to region, falling back to "global".
func (p *RequestProfile) Locator() string {
	if p.Country != "" {
		return strings.ToLower(p.Country)
	}
	if p.Region != "" {
		return strings.ToLower(p.Region)
	}
	return "global"
}

// PrimaryIndustry returns the first stated industry, or an empty string.
func (p *RequestProfile) PrimaryIndustry() string {
	if len(p.Industry) == 0 {
		return ""
	}
	return p.Industry[0]
}
