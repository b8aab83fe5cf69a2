// Package history matches new requests against precedent patterns of
// cross-border economic outcomes.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// Seed precedents loaded when a tenant has no curated pattern library
// of its own. Scores are the base applicability before boosts.
var seedPatterns = []domain.HistoricalPattern{
	{
		ID: "ind-rev-001", Era: "1820-1880", Region: "United Kingdom", Industry: "Manufacturing",
		Outcome:       "success",
		KeyFactors:    []string{"Steam power adoption", "Railway network expansion", "Financial system development"},
		Lessons:       []string{"Infrastructure investment precedes industrial growth by 5-10 years", "Financial innovation enables scaling"},
		Applicability: 0.65,
	},
	{
		ID: "col-trade-002", Era: "1890-1930", Region: "Argentina", Industry: "Agriculture",
		Outcome:       "partial",
		KeyFactors:    []string{"Resource abundance", "British investment", "Export dependency"},
		Lessons:       []string{"Over-reliance on commodity exports creates vulnerability", "Foreign capital without local capacity building is unsustainable"},
		Applicability: 0.80,
	},
	{
		ID: "depression-001", Era: "1929-1939", Region: "United States", Industry: "Banking & Finance",
		Outcome:       "failure",
		KeyFactors:    []string{"Speculation bubble", "Lack of regulation", "Protectionist response"},
		Lessons:       []string{"Financial deregulation without oversight leads to systemic risk", "Protectionism deepens recessions"},
		Applicability: 0.85,
	},
	{
		ID: "postwar-002", Era: "1960-1990", Region: "East Asia", Industry: "Export Manufacturing",
		Outcome:       "success",
		KeyFactors:    []string{"Export-oriented industrialization", "High savings rates", "Education investment"},
		Lessons:       []string{"Export discipline forces competitiveness", "Education investment pays off in 15-20 years"},
		Applicability: 0.90,
	},
	{
		ID: "oil-shock-001", Era: "1973-1985", Region: "OECD", Industry: "Energy & Manufacturing",
		Outcome:       "partial",
		KeyFactors:    []string{"Oil price quadrupling", "Supply-side inflation", "Structural adjustment"},
		Lessons:       []string{"Energy dependency is a strategic vulnerability", "Supply shocks require a different policy response than demand shocks"},
		Applicability: 0.85,
	},
	{
		ID: "asia-fin-001", Era: "1997-2005", Region: "Southeast Asia", Industry: "Banking & Finance",
		Outcome:       "partial",
		KeyFactors:    []string{"Short-term dollar debt", "Pegged exchange rates", "IMF restructuring"},
		Lessons:       []string{"Currency mismatch amplifies external shocks", "Post-crisis reform can rebuild credibility within a decade"},
		Applicability: 0.85,
	},
	{
		ID: "china-wto-001", Era: "2001-2015", Region: "China", Industry: "Export Manufacturing",
		Outcome:       "success",
		KeyFactors:    []string{"WTO accession", "Special economic zones", "Supply chain clustering"},
		Lessons:       []string{"Market access agreements compound zone-based experimentation", "Cluster effects dominate unit labor cost"},
		Applicability: 0.85,
	},
	{
		ID: "digital-leap-001", Era: "2010-2024", Region: "East Africa", Industry: "Technology",
		Outcome:       "success",
		KeyFactors:    []string{"Mobile money adoption", "Leapfrog infrastructure", "Diaspora capital"},
		Lessons:       []string{"Digital rails can precede physical infrastructure", "Regulatory sandboxes attract first movers"},
		Applicability: 0.80,
	},
	{
		ID: "nearshore-001", Era: "2018-2025", Region: "Mexico", Industry: "Manufacturing",
		Outcome:       "success",
		KeyFactors:    []string{"Supply chain regionalization", "Tariff arbitrage", "Trade agreement anchoring"},
		Lessons:       []string{"Geopolitical realignment reprices logistics proximity", "Anchor customers de-risk greenfield capacity"},
		Applicability: 0.85,
	},
	{
		ID: "energy-trans-001", Era: "2015-2025", Region: "Middle East (Gulf)", Industry: "Energy",
		Outcome:       "partial",
		KeyFactors:    []string{"Sovereign wealth diversification", "Renewable buildout", "Talent import"},
		Lessons:       []string{"Resource windfalls must be saved and diversified", "Imported expertise needs local succession plans"},
		Applicability: 0.80,
	},
}

// Matcher ranks precedent patterns by applicability to a request.
// Tenant-curated patterns from the repository take precedence over the
// seed library.
type Matcher struct {
	repo   domain.Repository
	logger *slog.Logger
}

func NewMatcher(repo domain.Repository, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{repo: repo, logger: logger}
}

// FindRelevant scores every known pattern against the profile and
// returns the top five with applicability >= 0.70, highest first.
// Repository failures degrade to the seed library; the lookup never
// fails a pipeline run.
func (m *Matcher) FindRelevant(ctx context.Context, tenantID string, profile *domain.RequestProfile) []domain.PatternMatch {
	patterns := seedPatterns
	if m.repo != nil {
		stored, err := m.repo.ListHistoricalPatterns(ctx, tenantID)
		if err != nil {
			m.logger.Warn("historical pattern lookup failed, using seed library",
				"tenant_id", tenantID, "error", err)
		} else if len(stored) > 0 {
			patterns = make([]domain.HistoricalPattern, 0, len(stored))
			for _, p := range stored {
				patterns = append(patterns, *p)
			}
		}
	}
	return Rank(patterns, profile)
}

// Rank applies the match boosts and relevance cutoff to a pattern set.
func Rank(patterns []domain.HistoricalPattern, profile *domain.RequestProfile) []domain.PatternMatch {
	var matches []domain.PatternMatch
	for _, p := range patterns {
		score := p.Applicability
		var reasons []string

		if profile.Region != "" && strings.Contains(strings.ToLower(p.Region), strings.ToLower(profile.Region)) {
			score += 0.10
			reasons = append(reasons, "region precedent")
		}
		for _, ind := range profile.Industry {
			if ind != "" && strings.Contains(strings.ToLower(p.Industry), strings.ToLower(ind)) {
				score += 0.15
				reasons = append(reasons, "industry precedent")
				break
			}
		}
		if year := eraEndYear(p.Era); year >= 2010 {
			score += 0.10
			reasons = append(reasons, "recent era")
			if year >= 2020 {
				score += 0.05
			}
		}
		if score < 0.70 {
			continue
		}
		if score > 1 {
			score = 1
		}
		rationale := fmt.Sprintf("%s (%s, %s): base applicability %.2f", p.Outcome, p.Region, p.Era, p.Applicability)
		if len(reasons) > 0 {
			rationale += "; boosted by " + strings.Join(reasons, ", ")
		}
		matches = append(matches, domain.PatternMatch{
			Pattern:       p,
			Applicability: score,
			Rationale:     rationale,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Applicability != matches[j].Applicability {
			return matches[i].Applicability > matches[j].Applicability
		}
		return matches[i].Pattern.ID < matches[j].Pattern.ID
	})
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}

func eraEndYear(era string) int {
	parts := strings.Split(era, "-")
	if len(parts) < 2 {
		return 0
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return year
}
