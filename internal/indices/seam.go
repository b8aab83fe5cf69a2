package indices

import (
	"fmt"
	"math"

	"github.com/crossborder-intel/kestrel/internal/domain"
	"github.com/crossborder-intel/kestrel/internal/variation"
)

// GenerateSEAM builds the Symbiotic Ecosystem Activation Map: the
// recommended partner lattice plus the gaps that would slow it down.
func GenerateSEAM(profile *domain.RequestProfile, composite *domain.CompositeScore) *domain.SEAMBlueprint {
	c := composite.Components
	country := profile.Country
	if country == "" {
		country = "Target"
	}
	industry := "Trade"
	if len(profile.Industry) > 0 && profile.Industry[0] != "" {
		industry = profile.Industry[0]
	}

	locator := profile.Locator()
	synergy := func(label string, driver float64) float64 {
		return variation.Clamp(
			math.Round(0.45*driver+0.45*composite.Overall+variation.Scaled(locator+"-"+label, 0, 1)*10),
			50, 99)
	}

	partners := []domain.SEAMPartner{
		{Name: fmt.Sprintf("National %s Board", industry), Role: "Regulator / Enabler", Synergy: synergy("regulator", c.Regulatory)},
		{Name: "Regional Logistics Alliance", Role: "Supply Chain", Synergy: synergy("logistics", c.SupplyChain)},
		{Name: fmt.Sprintf("%s Tech Institute", country), Role: "Talent Pipeline", Synergy: synergy("talent", c.Talent)},
		{Name: "Global Chamber of Commerce", Role: "Network Access", Synergy: synergy("network", c.MarketAccess)},
	}

	gapSignals := []struct {
		label string
		score float64
	}{
		{"Regulatory harmonization", c.Regulatory},
		{"Digital infrastructure hardening", c.DigitalReadiness},
		{"Supply chain observability", c.SupplyChain},
		{"Specialized talent pathways", c.Talent},
	}
	var gaps []string
	for _, g := range gapSignals {
		if g.score < 75 {
			gaps = append(gaps, fmt.Sprintf("%s (%d/100)", g.label, int(math.Round(g.score))))
		}
	}
	if len(gaps) == 0 {
		gaps = []string{
			"Codify advanced autonomy guardrails",
			"Stand up second-source supplier guilds",
		}
	}

	supplySignal := (c.SupplyChain + c.MarketAccess) / 2
	score := variation.Clamp(math.Round(0.6*composite.Overall+0.4*supplySignal), 55, 99)

	health := "Nascent"
	if score > 85 {
		health = "Thriving"
	} else if score > 70 {
		health = "Emerging"
	}

	return &domain.SEAMBlueprint{
		Score:           score,
		EcosystemHealth: health,
		Partners:        partners,
		Gaps:            gaps,
	}
}
