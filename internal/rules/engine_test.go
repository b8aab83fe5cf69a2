package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(4)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func testProfile() *domain.RequestProfile {
	return &domain.RequestProfile{
		ID:                "req-1",
		TenantID:          "tenant-1",
		OrganizationName:  "Meridian Foods",
		Country:           "Vietnam",
		Region:            "Southeast Asia",
		Industry:          []string{"Agriculture", "Manufacturing"},
		StrategicIntent:   []string{"Market Entry"},
		BudgetCapUSD:      500_000,
		DealSize:          "$1M-$10M",
		RiskTolerance:     "low",
		ExpansionTimeline: "18 months",
	}
}

func TestValidateRule(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name    string
		rule    *domain.ScreeningRule
		wantErr bool
	}{
		{
			name: "valid bool expression",
			rule: &domain.ScreeningRule{ID: "r1", Expression: `budget_cap_usd < 100000.0`, Severity: "caution"},
		},
		{
			name: "list membership",
			rule: &domain.ScreeningRule{ID: "r2", Expression: `"Mining" in industry`, Severity: "block"},
		},
		{
			name:    "non-bool output rejected",
			rule:    &domain.ScreeningRule{ID: "r3", Expression: `budget_cap_usd * 2.0`, Severity: "caution"},
			wantErr: true,
		},
		{
			name:    "syntax error",
			rule:    &domain.ScreeningRule{ID: "r4", Expression: `country ==`, Severity: "caution"},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			rule:    &domain.ScreeningRule{ID: "r5", Expression: `true`, Severity: "fatal"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.ValidateRule(tc.rule)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateRule() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	if engine.RulesCount() != 0 {
		t.Fatalf("ValidateRule mutated the loaded rule set: %d rules", engine.RulesCount())
	}
}

func TestEvaluateAllDeductionsAndBlocks(t *testing.T) {
	engine := newTestEngine(t)
	err := engine.LoadRules([]*domain.ScreeningRule{
		{ID: "low-budget", Name: "Low budget", Expression: `budget_cap_usd < 1000000.0`, Severity: "caution", Deduction: 10, Enabled: true},
		{ID: "timid", Name: "Low risk tolerance", Expression: `risk_tolerance == "low"`, Severity: "caution", Deduction: 5, Enabled: true},
		{ID: "no-partner", Name: "No partner", Expression: `target_partner == ""`, Severity: "caution", Deduction: 15, Enabled: true},
		{ID: "embargo", Name: "Embargoed country", Expression: `country in ["Iran", "Syria"]`, Severity: "block", Enabled: true},
		{ID: "disabled", Name: "Disabled", Expression: `true`, Severity: "block", Enabled: false},
	})
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if engine.RulesCount() != 4 {
		t.Fatalf("loaded %d rules, want 4 (disabled rule skipped)", engine.RulesCount())
	}

	result, err := engine.EvaluateAll(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if result.Blocked {
		t.Fatal("Vietnam profile blocked by embargo rule")
	}
	if len(result.Hits) != 3 {
		t.Fatalf("hits = %d, want 3: %+v", len(result.Hits), result.Hits)
	}
	if result.ComplianceScore != 70 {
		t.Fatalf("compliance = %v, want 70 (100 - 10 - 5 - 15)", result.ComplianceScore)
	}

	blocked := testProfile()
	blocked.Country = "Iran"
	result, err = engine.EvaluateAll(context.Background(), blocked)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if !result.Blocked {
		t.Fatal("Iran profile not blocked")
	}
}

func TestEvaluateAllEmptyEngine(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.EvaluateAll(context.Background(), testProfile())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(result.Hits) != 0 || result.ComplianceScore != 100 || result.Blocked {
		t.Fatalf("empty engine result = %+v, want clean pass", result)
	}
}

func TestReloadRulesSwapsAtomically(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.LoadRule(&domain.ScreeningRule{ID: "old", Expression: `true`, Severity: "caution", Enabled: true}); err != nil {
		t.Fatalf("LoadRule: %v", err)
	}
	err := engine.ReloadRules([]*domain.ScreeningRule{
		{ID: "new-1", Expression: `country == "Vietnam"`, Severity: "caution", Deduction: 5, Enabled: true},
		{ID: "new-2", Expression: `false`, Severity: "block", Enabled: true},
	})
	if err != nil {
		t.Fatalf("ReloadRules: %v", err)
	}
	if engine.RulesCount() != 2 {
		t.Fatalf("rules = %d, want 2 after reload", engine.RulesCount())
	}
	for _, r := range engine.GetLoadedRules() {
		if r.ID == "old" {
			t.Fatal("reload kept the old rule")
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	yaml := `rules:
  - id: seed-embargo
    name: Embargoed destination
    expression: 'country in ["Iran", "Syria", "North Korea"]'
    severity: block
  - id: seed-thin-capital
    name: Thin capitalization
    expression: 'budget_cap_usd > 0.0 && budget_cap_usd < 250000.0'
    severity: caution
    deduction: 10
  - id: seed-disabled
    name: Disabled seed
    expression: 'true'
    severity: caution
    enabled: false
`
	if err := os.WriteFile(filepath.Join(dir, "seed.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	// Non-YAML files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}

	rules, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("rules = %d, want 3", len(rules))
	}
	if rules[0].ID != "seed-disabled" || rules[0].Enabled {
		t.Fatalf("first rule = %+v, want disabled seed-disabled (sorted by id)", rules[0])
	}

	engine := newTestEngine(t)
	if err := engine.LoadRules(rules); err != nil {
		t.Fatalf("LoadRules from dir: %v", err)
	}
	if engine.RulesCount() != 2 {
		t.Fatalf("loaded = %d, want 2 enabled rules", engine.RulesCount())
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("LoadDir on a missing directory did not error")
	}
}
