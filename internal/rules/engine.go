// Package rules provides the CEL-Go based screening rule engine.
package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// Engine compiles and evaluates tenant screening rules against request
// profiles. Rules are CEL expressions returning bool; a true result
// means the rule triggered.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.ScreeningRule
	Program cel.Program
}

// NewEngine creates a new screening engine.
func NewEngine(maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	env, err := cel.NewEnv(
		cel.Variable("profile", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("country", cel.StringType),
		cel.Variable("region", cel.StringType),
		cel.Variable("organization_name", cel.StringType),
		cel.Variable("organization_type", cel.StringType),
		cel.Variable("industry", cel.ListType(cel.StringType)),
		cel.Variable("strategic_intent", cel.ListType(cel.StringType)),
		cel.Variable("budget_cap_usd", cel.DoubleType),
		cel.Variable("deal_size", cel.StringType),
		cel.Variable("risk_tolerance", cel.StringType),
		cel.Variable("expansion_timeline", cel.StringType),
		cel.Variable("target_partner", cel.StringType),
		cel.Variable("problem_statement", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles a rule without mutating the loaded rule set.
func (e *Engine) ValidateRule(rule *domain.ScreeningRule) error {
	if rule == nil {
		return fmt.Errorf("screening rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.ScreeningRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiledRules[rule.ID] = compiled

	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(rules []*domain.ScreeningRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules swaps the loaded rule set atomically. This enables
// hot-reloading of rules from the database.
func (e *Engine) ReloadRules(rules []*domain.ScreeningRule) error {
	newRules := make(map[string]*CompiledRule)

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		newRules[rule.ID] = compiled
	}

	e.compiledRules = newRules

	return nil
}

// ScreeningResult is the outcome of evaluating all loaded rules.
type ScreeningResult struct {
	Hits            []domain.ScreeningHit
	ComplianceScore float64 // 100 minus caution deductions, floored at 0
	Blocked         bool    // any block-severity rule triggered
	ProcessMs       int64
}

// EvaluateAll runs every loaded rule against the profile in parallel.
// A rule that fails to evaluate is skipped rather than treated as a
// hit; screening degrades open, the shield and ethics layers degrade
// closed.
func (e *Engine) EvaluateAll(ctx context.Context, profile *domain.RequestProfile) (*ScreeningResult, error) {
	start := time.Now()

	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	result := &ScreeningResult{ComplianceScore: 100}
	if len(rules) == 0 {
		result.ProcessMs = time.Since(start).Milliseconds()
		return result, nil
	}

	activation := activationFor(profile)

	hits := make([]*domain.ScreeningHit, len(rules))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out, _, err := r.Program.Eval(activation)
			if err != nil {
				return
			}
			if triggered, ok := out.(types.Bool); ok && bool(triggered) {
				hits[idx] = &domain.ScreeningHit{
					RuleID:    r.Rule.ID,
					Name:      r.Rule.Name,
					Severity:  r.Rule.Severity,
					Deduction: r.Rule.Deduction,
				}
			}
		}(i, rule)
	}

	wg.Wait()

	for _, hit := range hits {
		if hit == nil {
			continue
		}
		result.Hits = append(result.Hits, *hit)
		if hit.Severity == "block" {
			result.Blocked = true
			continue
		}
		result.ComplianceScore -= hit.Deduction
	}
	if result.ComplianceScore < 0 {
		result.ComplianceScore = 0
	}
	result.ProcessMs = time.Since(start).Milliseconds()

	return result, nil
}

func activationFor(profile *domain.RequestProfile) map[string]any {
	industry := append([]string{}, profile.Industry...)
	intent := append([]string{}, profile.StrategicIntent...)

	return map[string]any{
		"profile": map[string]any{
			"id":                profile.ID,
			"organization_name": profile.OrganizationName,
			"country":           profile.Country,
			"region":            profile.Region,
			"industry":          industry,
			"deal_size":         profile.DealSize,
		},
		"country":            profile.Country,
		"region":             profile.Region,
		"organization_name":  profile.OrganizationName,
		"organization_type":  profile.OrganizationType,
		"industry":           industry,
		"strategic_intent":   intent,
		"budget_cap_usd":     profile.BudgetCapUSD,
		"deal_size":          profile.DealSize,
		"risk_tolerance":     profile.RiskTolerance,
		"expansion_timeline": profile.ExpansionTimeline,
		"target_partner":     profile.TargetPartner,
		"problem_statement":  profile.ProblemStatement,
	}
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.ScreeningRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.ScreeningRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(rule *domain.ScreeningRule) (*CompiledRule, error) {
	if rule.Severity != "caution" && rule.Severity != "block" {
		return nil, fmt.Errorf("rule %s: severity must be caution or block, got %q", rule.ID, rule.Severity)
	}

	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}
