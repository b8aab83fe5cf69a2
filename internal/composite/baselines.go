package composite

import "strings"

// regionBaseline carries the qualitative component priors for one
// world region. Values are calibrated 0..100.
type regionBaseline struct {
	Infrastructure float64
	Digital        float64
	Stability      float64
	CostEfficiency float64
	MarketAccess   float64
	Regulatory     float64
	Sustainability float64
	Innovation     float64
	SupplyChain    float64
}

// regionBaselines maps a lowercase region name to its priors. Updating
// a row shifts every composite computed for that region, so changes
// need recalibration of downstream thresholds.
var regionBaselines = map[string]regionBaseline{
	"europe":         {Infrastructure: 85, Digital: 88, Stability: 82, CostEfficiency: 45, MarketAccess: 80, Regulatory: 82, Sustainability: 74, Innovation: 80, SupplyChain: 78},
	"north america":  {Infrastructure: 83, Digital: 86, Stability: 78, CostEfficiency: 50, MarketAccess: 82, Regulatory: 78, Sustainability: 70, Innovation: 79, SupplyChain: 80},
	"latin america":  {Infrastructure: 62, Digital: 58, Stability: 55, CostEfficiency: 65, MarketAccess: 60, Regulatory: 52, Sustainability: 60, Innovation: 55, SupplyChain: 58},
	"middle east":    {Infrastructure: 70, Digital: 66, Stability: 60, CostEfficiency: 55, MarketAccess: 68, Regulatory: 58, Sustainability: 57, Innovation: 60, SupplyChain: 62},
	"africa":         {Infrastructure: 50, Digital: 45, Stability: 48, CostEfficiency: 70, MarketAccess: 52, Regulatory: 45, Sustainability: 55, Innovation: 48, SupplyChain: 50},
	"asia":           {Infrastructure: 72, Digital: 74, Stability: 65, CostEfficiency: 60, MarketAccess: 75, Regulatory: 60, Sustainability: 63, Innovation: 70, SupplyChain: 72},
	"southeast asia": {Infrastructure: 66, Digital: 68, Stability: 60, CostEfficiency: 68, MarketAccess: 70, Regulatory: 55, Sustainability: 58, Innovation: 62, SupplyChain: 68},
	"oceania":        {Infrastructure: 80, Digital: 82, Stability: 80, CostEfficiency: 58, MarketAccess: 76, Regulatory: 80, Sustainability: 73, Innovation: 78, SupplyChain: 74},
	"caribbean":      {Infrastructure: 58, Digital: 54, Stability: 58, CostEfficiency: 62, MarketAccess: 56, Regulatory: 54, Sustainability: 59, Innovation: 50, SupplyChain: 52},
}

var defaultBaseline = regionBaseline{Infrastructure: 65, Digital: 60, Stability: 60, CostEfficiency: 60, MarketAccess: 65, Regulatory: 60, Sustainability: 60, Innovation: 60, SupplyChain: 60}

// baselineFor resolves a region name to its priors, falling back to the
// default row for unknown regions.
func baselineFor(region string) regionBaseline {
	if b, ok := regionBaselines[strings.ToLower(strings.TrimSpace(region))]; ok {
		return b
	}
	return defaultBaseline
}
