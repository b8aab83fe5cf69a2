package indices

import (
	"fmt"
	"math"
	"strings"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// GenerateRROI projects the composite into the four-pillar Regional
// Return on Investment index.
func GenerateRROI(profile *domain.RequestProfile, composite *domain.CompositeScore) *domain.RROIIndex {
	c := composite.Components

	outlook := "guarded"
	if composite.Overall > 75 {
		outlook = "strong"
	} else if composite.Overall > 60 {
		outlook = "balanced"
	}

	summary := fmt.Sprintf(
		"RROI for %s (%s) reflects %s readiness across infrastructure %d, talent %d, regulatory %d, and market access %d using live data feeds (%s).",
		profile.Country, profile.Region, outlook,
		int(math.Round(c.Infrastructure)), int(math.Round(c.Talent)),
		int(math.Round(c.Regulatory)), int(math.Round(c.MarketAccess)),
		strings.Join(composite.DataSources, ", "),
	)

	return &domain.RROIIndex{
		OverallScore: composite.Overall,
		Summary:      summary,
		Components: []domain.RROIComponent{
			{Name: "Infrastructure Readiness", Score: math.Round(c.Infrastructure), Analysis: "Composite of logistics, utilities, and digital throughput."},
			{Name: "Talent Availability", Score: math.Round(c.Talent), Analysis: "Skill depth, education signals, and unemployment corridor."},
			{Name: "Regulatory Ease", Score: math.Round(c.Regulatory), Analysis: "Permitting efficiency plus ease-of-business differentials."},
			{Name: "Market Access", Score: math.Round(c.MarketAccess), Analysis: "Trade balance posture, FDI inflows, and regional agreements."},
		},
	}
}
