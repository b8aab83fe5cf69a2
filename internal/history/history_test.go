package history

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

func TestRankAppliesBoostsAndCutoff(t *testing.T) {
	patterns := []domain.HistoricalPattern{
		{ID: "low", Era: "1900-1950", Region: "Nowhere", Industry: "Other", Outcome: "failure", Applicability: 0.50},
		{ID: "regional", Era: "1960-1990", Region: "East Asia", Industry: "Export Manufacturing", Outcome: "success", Applicability: 0.65},
		{ID: "recent", Era: "2018-2025", Region: "Mexico", Industry: "Manufacturing", Outcome: "success", Applicability: 0.85},
	}
	profile := &domain.RequestProfile{
		Region:   "East Asia",
		Industry: []string{"Manufacturing"},
	}

	matches := Rank(patterns, profile)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2 (cutoff at 0.70): %+v", len(matches), matches)
	}
	// recent: 0.85 + 0.15 industry + 0.10 + 0.05 era, capped at 1.
	if matches[0].Pattern.ID != "recent" || matches[0].Applicability != 1 {
		t.Fatalf("top match = %q at %v, want recent at 1.0", matches[0].Pattern.ID, matches[0].Applicability)
	}
	// regional: 0.65 + 0.10 region + 0.15 industry.
	if matches[1].Pattern.ID != "regional" || math.Abs(matches[1].Applicability-0.90) > 1e-9 {
		t.Fatalf("second match = %q at %v, want regional at 0.90", matches[1].Pattern.ID, matches[1].Applicability)
	}
}

func TestRankCapsAtFive(t *testing.T) {
	profile := &domain.RequestProfile{Region: "East Asia", Industry: []string{"Manufacturing"}}
	matches := Rank(seedPatterns, profile)
	if len(matches) > 5 {
		t.Fatalf("matches = %d, want at most 5", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Applicability > matches[i-1].Applicability {
			t.Fatalf("matches not sorted: %v before %v", matches[i-1].Applicability, matches[i].Applicability)
		}
	}
}

type failingRepo struct {
	domain.Repository
}

func (failingRepo) ListHistoricalPatterns(ctx context.Context, tenantID string) ([]*domain.HistoricalPattern, error) {
	return nil, errors.New("connection refused")
}

func TestFindRelevantDegradesToSeeds(t *testing.T) {
	m := NewMatcher(failingRepo{}, slog.Default())
	profile := &domain.RequestProfile{Region: "Southeast Asia", Industry: []string{"Technology"}}
	matches := m.FindRelevant(context.Background(), "tenant-1", profile)
	if len(matches) == 0 {
		t.Fatal("repository failure produced no matches; seed library should back-fill")
	}
}

func TestEraEndYear(t *testing.T) {
	cases := map[string]int{
		"2018-2025": 2025,
		"1820-1880": 1880,
		"ancient":   0,
		"1990-now":  0,
	}
	for era, want := range cases {
		if got := eraEndYear(era); got != want {
			t.Errorf("eraEndYear(%q) = %d, want %d", era, got, want)
		}
	}
}
