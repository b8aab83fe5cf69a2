// Package indices implements the domain index engines: SPI, RROI,
// SEAM, activation velocity, shared-value forecast, diversification,
// ethics screening, and the political risk index. Every engine is a
// deterministic function of the request profile and the regional
// composite.
package indices

import "strings"

// Archetype names. Every request resolves to exactly one; unmatched
// industries fall through to ArchetypeGeneral.
const (
	ArchetypeInfrastructure = "infrastructure"
	ArchetypeFinance        = "finance"
	ArchetypeTechnology     = "technology"
	ArchetypeHealth         = "health"
	ArchetypeEnergy         = "energy"
	ArchetypeGovernment     = "government"
	ArchetypeAgriculture    = "agriculture"
	ArchetypeClimate        = "climate"
	ArchetypeIndustrial     = "industrial"
	ArchetypeGeneral        = "general"
)

// archetypeOrder fixes the keyword scan order so classification stays
// deterministic regardless of map iteration.
var archetypeOrder = []string{
	ArchetypeInfrastructure,
	ArchetypeFinance,
	ArchetypeTechnology,
	ArchetypeHealth,
	ArchetypeEnergy,
	ArchetypeGovernment,
	ArchetypeAgriculture,
	ArchetypeClimate,
	ArchetypeIndustrial,
}

var archetypeKeywords = map[string][]string{
	ArchetypeInfrastructure: {"infrastructure", "urban", "housing", "transport", "logistics", "port", "metro"},
	ArchetypeFinance:        {"bank", "finance", "fund", "credit", "fintech", "capital", "lending"},
	ArchetypeTechnology:     {"tech", "digital", "software", "ai", "data", "platform", "telecom"},
	ArchetypeHealth:         {"health", "hospital", "clinic", "vaccine", "pharma", "medical", "bio"},
	ArchetypeEnergy:         {"energy", "power", "utility", "grid", "hydrogen", "solar", "oil", "gas", "mining"},
	ArchetypeGovernment:     {"authority", "agency", "ministry", "department", "council", "municipal"},
	ArchetypeAgriculture:    {"agri", "rural", "farm", "crop", "cooperative", "food"},
	ArchetypeClimate:        {"climate", "resilience", "carbon", "sustainability", "environment"},
	ArchetypeIndustrial:     {"manufacturing", "factory", "industrial", "supply chain"},
}

// ResolveArchetype classifies an industry string by keyword match.
func ResolveArchetype(industry string) string {
	if industry == "" {
		return ArchetypeGeneral
	}
	normalized := strings.ToLower(industry)
	for _, arch := range archetypeOrder {
		for _, kw := range archetypeKeywords[arch] {
			if strings.Contains(normalized, kw) {
				return arch
			}
		}
	}
	return ArchetypeGeneral
}
