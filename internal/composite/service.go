// Package composite computes the regional composite score: twelve
// weighted sub-scores blended from macro indicators and region
// baseline priors, cached per locator.
package composite

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// Fallback constants substituted when the macro source has no data.
// The scorer never fails for missing data; it degrades to these.
const (
	fallbackGDPUSD     = 80_000_000_000
	fallbackPopulation = 12_000_000
	fallbackGrowthPct  = 3.2
	fallbackInflation  = 4.5
	fallbackFDIUSD     = 6_000_000_000
	fallbackNeutral    = 60 // ease-of-business and unemployment scores when unreported
)

// Overall weights over the twelve components. They sum to 1.0.
var componentWeights = map[string]float64{
	"infrastructure":     0.10,
	"talent":             0.10,
	"costEfficiency":     0.08,
	"marketAccess":       0.10,
	"regulatory":         0.08,
	"politicalStability": 0.08,
	"growthPotential":    0.10,
	"riskFactors":        0.08,
	"digitalReadiness":   0.07,
	"sustainability":     0.07,
	"innovation":         0.07,
	"supplyChain":        0.07,
}

// Service derives and caches regional composite scores.
type Service struct {
	macro  domain.MacroSource
	cache  domain.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewService creates a composite scorer. macro may be nil, in which
// case every locator scores on fallbacks alone.
func NewService(macro domain.MacroSource, cache domain.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		macro:  macro,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "composite"),
	}
}

// GetScores returns the composite for a request's locator, computing
// and caching it on miss. Concurrent misses for the same locator are
// collapsed into a single computation.
func (s *Service) GetScores(ctx context.Context, tenantID string, profile *domain.RequestProfile) (*domain.CompositeScore, error) {
	locator := profile.Locator()

	if cached, err := s.cache.GetComposite(ctx, tenantID, locator); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn("composite cache read failed", "locator", locator, "error", err)
	}

	v, err, _ := s.group.Do(tenantID+":"+locator, func() (interface{}, error) {
		score := s.compute(ctx, locator, profile.Region)
		if err := s.cache.SetComposite(ctx, tenantID, locator, score, s.ttl); err != nil {
			s.logger.Warn("composite cache write failed", "locator", locator, "error", err)
		}
		return score, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CompositeScore), nil
}

func (s *Service) compute(ctx context.Context, locator, region string) *domain.CompositeScore {
	var macro *domain.MacroIndicators
	if s.macro != nil {
		m, err := s.macro.Macro(ctx, locator)
		if err != nil {
			s.logger.Warn("macro source unavailable, using fallbacks", "locator", locator, "error", err)
		} else {
			macro = m
		}
	}
	if macro == nil {
		macro = &domain.MacroIndicators{}
	}

	gdp := fallback(macro.GDPUSD, fallbackGDPUSD)
	population := fallback(macro.Population, fallbackPopulation)
	gdpPerCapita := gdp / math.Max(population, 1)
	growth := fallbackAllowZero(macro.GDPGrowthPct, fallbackGrowthPct)
	inflation := fallbackAllowZero(macro.InflationPct, fallbackInflation)
	fdi := fallback(macro.FDIInflowsUSD, fallbackFDIUSD)
	tradeBalance := macro.TradeBalanceUSD
	tradeBalancePct := clamp(tradeBalance/math.Max(gdp, 1)*100, -40, 40)
	fdiPerCapita := fdi / math.Max(population, 1)

	baseline := baselineFor(region)

	gdpPerCapitaScore := scaleValue(gdpPerCapita, 2_000, 80_000)
	populationScore := scaleValue(math.Log10(population), 6, 9.5)
	growthScore := scaleValue(growth, -5, 12)
	inflationScore := inverseScale(inflation, 1, 20)
	fdiScore := scaleValue(fdiPerCapita, 10, 10_000)
	tradeScore := scaleValue(tradeBalancePct, -25, 25)
	easeScore := float64(fallbackNeutral)
	if macro.EaseOfBusiness != nil {
		easeScore = inverseScale(*macro.EaseOfBusiness, 1, 190)
	}
	unemploymentScore := float64(fallbackNeutral)
	if macro.UnemploymentPct != nil {
		unemploymentScore = inverseScale(*macro.UnemploymentPct, 2, 25)
	}
	costEfficiencyScore := inverseScale(gdpPerCapita, 2_000, 70_000)

	c := domain.CompositeComponents{
		Infrastructure:     clamp(0.4*gdpPerCapitaScore+0.2*baseline.Infrastructure+0.2*tradeScore+0.2*fdiScore, 15, 100),
		Talent:             clamp(0.35*populationScore+0.25*unemploymentScore+0.2*gdpPerCapitaScore+0.2*fdiScore, 15, 100),
		CostEfficiency:     clamp(0.5*costEfficiencyScore+0.3*inflationScore+0.2*baseline.CostEfficiency, 10, 100),
		MarketAccess:       clamp(0.4*tradeScore+0.3*baseline.MarketAccess+0.3*fdiScore, 10, 100),
		Regulatory:         clamp(0.5*easeScore+0.3*baseline.Regulatory+0.2*inflationScore, 10, 100),
		PoliticalStability: clamp(0.5*baseline.Stability+0.2*tradeScore+0.3*inflationScore, 10, 100),
		GrowthPotential:    clamp(0.5*growthScore+0.3*fdiScore+0.2*populationScore, 10, 100),
		RiskFactors:        clamp(100-(0.4*baseline.Stability+0.3*easeScore+0.3*inflationScore), 5, 95),
		DigitalReadiness:   clamp(0.5*baseline.Digital+0.3*gdpPerCapitaScore+0.2*populationScore, 10, 100),
		Sustainability:     clamp(0.4*baseline.Sustainability+0.3*tradeScore+0.3*growthScore, 10, 100),
		Innovation:         clamp(0.4*gdpPerCapitaScore+0.3*fdiScore+0.3*baseline.Innovation, 10, 100),
		SupplyChain:        clamp(0.4*baseline.SupplyChain+0.3*tradeScore+0.3*baseline.Infrastructure, 10, 100),
	}

	overall := c.Infrastructure*componentWeights["infrastructure"] +
		c.Talent*componentWeights["talent"] +
		c.CostEfficiency*componentWeights["costEfficiency"] +
		c.MarketAccess*componentWeights["marketAccess"] +
		c.Regulatory*componentWeights["regulatory"] +
		c.PoliticalStability*componentWeights["politicalStability"] +
		c.GrowthPotential*componentWeights["growthPotential"] +
		c.RiskFactors*componentWeights["riskFactors"] +
		c.DigitalReadiness*componentWeights["digitalReadiness"] +
		c.Sustainability*componentWeights["sustainability"] +
		c.Innovation*componentWeights["innovation"] +
		c.SupplyChain*componentWeights["supplyChain"]

	sources := append([]string{}, macro.DataSources...)
	sources = append(sources, "Composite Score Engine v2")

	return &domain.CompositeScore{
		Locator:     locator,
		Overall:     math.Round(overall),
		Components:  c,
		Baseline:    baseline.Stability,
		DataSources: sources,
		ComputedAt:  time.Now().UTC(),
	}
}

// scaleValue projects v from [min, max] onto 0..100 and clamps to the
// 5..95 confidence band so no single indicator saturates a component.
func scaleValue(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 50
	}
	if max == min {
		return 95
	}
	return clamp((v-min)/(max-min)*100, 5, 95)
}

func inverseScale(v, min, max float64) float64 {
	return 100 - scaleValue(v, min, max)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// fallback substitutes d when v is unreported (zero) or invalid.
func fallback(v, d float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	return v
}

// fallbackAllowZero keeps negative readings (growth and inflation can
// go below zero) but treats an exact zero as unreported.
func fallbackAllowZero(v, d float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	return v
}
